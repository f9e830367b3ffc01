package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/service"
)

type wordPressSettingsPayload struct {
	SiteURL             string `json:"siteUrl"`
	Username            string `json:"username"`
	ApplicationPassword string `json:"applicationPassword"`
	PostType            string `json:"postType"`
	PostStatus          string `json:"postStatus"`
}

func (p wordPressSettingsPayload) toInput() service.WordPressSettings {
	return service.WordPressSettings{
		SiteURL:             p.SiteURL,
		Username:            p.Username,
		ApplicationPassword: p.ApplicationPassword,
		PostType:            p.PostType,
		PostStatus:          p.PostStatus,
	}
}

func newWordPressSettingsPayload(settings service.WordPressSettings) wordPressSettingsPayload {
	return wordPressSettingsPayload{
		SiteURL:             settings.SiteURL,
		Username:            settings.Username,
		ApplicationPassword: settings.ApplicationPassword,
		PostType:            settings.PostType,
		PostStatus:          settings.PostStatus,
	}
}

// GetWordPressSettings 返回当前用户保存的 WordPress 设置。
func (a *API) GetWordPressSettings(c *gin.Context) {
	settings, err := a.settings.Get(currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWordPressSettingsPayload(settings))
}

// UpdateWordPressSettings 保存 WordPress 设置。
func (a *API) UpdateWordPressSettings(c *gin.Context) {
	var payload wordPressSettingsPayload
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	settings, err := a.settings.Update(currentUserID(c), payload.toInput())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newWordPressSettingsPayload(settings))
}

// TestWordPressConnection 探测站点 REST 接口是否可达；失败也返回 200。
func (a *API) TestWordPressConnection(c *gin.Context) {
	var payload wordPressSettingsPayload
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	result := a.settings.TestConnection(c.Request.Context(), payload.toInput())
	c.JSON(http.StatusOK, gin.H{"success": result.Success, "message": result.Message})
}
