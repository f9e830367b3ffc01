package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type imageRequest struct {
	Content string `json:"content"`
	Title   string `json:"title"`
}

// GenerateImage 根据标题与正文生成配图，返回图片 URL。
func (a *API) GenerateImage(c *gin.Context) {
	var payload imageRequest
	if !bindJSON(c, &payload, "content and title are required") {
		return
	}

	imageURL, err := a.pipeline.GenerateImage(c.Request.Context(), payload.Title, payload.Content)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"imageUrl": imageURL})
}
