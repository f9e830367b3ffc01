package handler

import (
	"github.com/judgmentpress/internal/service"
	"gorm.io/gorm"
)

// API 汇总 HTTP 处理器共享的依赖。
type API struct {
	db       *gorm.DB
	users    *service.UserService
	posts    *service.PostService
	settings *service.WordPressSettingsService
	pipeline *service.Pipeline

	llmConfigured bool
}

// Deps 列出 NewAPI 需要的依赖，除 LLMConfigured 外均必填。
type Deps struct {
	DB       *gorm.DB
	Users    *service.UserService
	Posts    *service.PostService
	Settings *service.WordPressSettingsService
	Pipeline *service.Pipeline
	// LLMConfigured 表示是否配置了模型 API key，仅在健康检查中展示。
	LLMConfigured bool
}

// NewAPI 使用共享服务构造处理器集合。
func NewAPI(deps Deps) *API {
	return &API{
		db:            deps.DB,
		users:         deps.Users,
		posts:         deps.Posts,
		settings:      deps.Settings,
		pipeline:      deps.Pipeline,
		llmConfigured: deps.LLMConfigured,
	}
}

// DB 暴露底层 gorm 实例，供健康检查与工具使用。
func (a *API) DB() *gorm.DB {
	return a.db
}
