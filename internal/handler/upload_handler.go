package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/service"
)

// UploadDocument 接收 docx/pdf 判决文书，返回生成的博客草稿（不落库）。
func (a *API) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "No file uploaded")
		return
	}

	// 先校验扩展名，避免无谓地读取文件内容
	if _, err := service.DetectKind(file.Filename); err != nil {
		respondServiceError(c, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer src.Close()

	result, err := a.pipeline.ProcessUpload(c.Request.Context(), service.UploadInput{
		Filename:     file.Filename,
		Body:         src,
		CustomPrompt: c.PostForm("custom_prompt"),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	keywords := result.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	c.JSON(http.StatusOK, gin.H{
		"filename": result.Filename,
		"content":  result.Content,
		"title":    result.Title,
		"keywords": keywords,
		"summary":  result.Summary,
	})
}
