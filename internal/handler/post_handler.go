package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/service"
)

type postRequest struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Summary  *string  `json:"summary"`
	Keywords []string `json:"keywords"`
	ImageURL *string  `json:"image_url"`
}

type postUpdateRequest struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Summary  *string   `json:"summary"`
	Keywords *[]string `json:"keywords"`
	ImageURL *string   `json:"image_url"`
}

type postResponse struct {
	ID              uint      `json:"id"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Summary         *string   `json:"summary"`
	Keywords        []string  `json:"keywords"`
	ImageURL        *string   `json:"image_url"`
	Status          string    `json:"status"`
	WordPressPostID *int64    `json:"wordpress_post_id"`
	UserID          uint      `json:"user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func newPostResponse(post *db.Post) postResponse {
	keywords := post.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return postResponse{
		ID:              post.ID,
		Title:           post.Title,
		Content:         post.Content,
		Summary:         post.Summary,
		Keywords:        keywords,
		ImageURL:        post.ImageURL,
		Status:          string(post.Status),
		WordPressPostID: post.WordPressPostID,
		UserID:          post.UserID,
		CreatedAt:       post.CreatedAt,
		UpdatedAt:       post.UpdatedAt,
	}
}

// ListPosts 返回当前用户的文章，可按 ?status= 过滤。
func (a *API) ListPosts(c *gin.Context) {
	filter := service.PostFilter{Status: db.PostStatus(strings.TrimSpace(c.Query("status")))}
	posts, err := a.posts.List(currentUserID(c), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	items := make([]postResponse, 0, len(posts))
	for i := range posts {
		items = append(items, newPostResponse(&posts[i]))
	}
	c.JSON(http.StatusOK, items)
}

// GetPost 返回当前用户的单篇文章。
func (a *API) GetPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(id, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(post))
}

// CreatePost 保存一篇新草稿。
func (a *API) CreatePost(c *gin.Context) {
	var payload postRequest
	if !bindJSON(c, &payload, "invalid post payload") {
		return
	}

	post, err := a.posts.Create(currentUserID(c), service.PostInput{
		Title:    payload.Title,
		Content:  payload.Content,
		Summary:  payload.Summary,
		Keywords: payload.Keywords,
		ImageURL: payload.ImageURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(post))
}

// UpdatePost 部分更新文章，状态字段不可在此修改。
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var payload postUpdateRequest
	if !bindJSON(c, &payload, "invalid post payload") {
		return
	}

	post, err := a.posts.Update(id, currentUserID(c), service.PostUpdate{
		Title:    payload.Title,
		Content:  payload.Content,
		Summary:  payload.Summary,
		Keywords: payload.Keywords,
		ImageURL: payload.ImageURL,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, newPostResponse(post))
}

// DeletePost 删除当前用户的文章。
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.posts.Delete(id, currentUserID(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PublishPost 将文章推送到当前用户配置的 WordPress 站点。
func (a *API) PublishPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	outcome, err := a.pipeline.PublishPost(c.Request.Context(), id, currentUserID(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if outcome.Remote.Degraded() {
		c.Header("X-Publish-Warning", "featured image upload failed")
	}
	c.JSON(http.StatusOK, newPostResponse(outcome.Post))
}
