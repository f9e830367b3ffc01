package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthCheck 报告数据库连通性以及模型凭据是否就绪。
// 模型未配置时仍返回 200，仅在 llm 字段标记为 missing。
func (a *API) HealthCheck(c *gin.Context) {
	llm := "missing"
	if a.llmConfigured {
		llm = "configured"
	}

	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
			"llm":     llm,
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "error",
			"database": "down",
			"llm":      llm,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
		"llm":      llm,
	})
}
