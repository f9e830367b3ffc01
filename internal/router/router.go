package router

import (
	"net/http"
	"strconv"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/handler"
	"github.com/judgmentpress/internal/metrics"
	"github.com/judgmentpress/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const sessionName = "judgmentpress_session"

// Options 汇总路由层需要的外部配置。
type Options struct {
	SessionSecret string
	SecureCookies bool
	CORSOrigins   []string
	// AILimiter 限制消耗模型额度的接口；为 nil 时不限流。
	AILimiter *middleware.RateLimiter
	Metrics   metrics.Recorder
	// Gatherer 为 nil 时不暴露 /metrics。
	Gatherer prometheus.Gatherer
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(api *handler.API, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(opts.Metrics))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(opts.CORSOrigins))

	// 配置会话中间件
	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/healthz", api.HealthCheck)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(opts.Gatherer)))
	}

	v1 := r.Group("/api/v1")
	{
		v1.POST("/auth/login", api.Login)
		v1.POST("/auth/logout", api.Logout)

		// 需要认证的接口
		auth := v1.Group("")
		auth.Use(api.AuthRequired())
		{
			auth.GET("/users/me", api.Me)
			auth.PUT("/users/me", api.UpdateMe)

			llm := auth.Group("")
			if opts.AILimiter != nil {
				llm.Use(opts.AILimiter.Middleware())
			}
			llm.POST("/files/upload", api.UploadDocument)
			llm.POST("/images/generate", api.GenerateImage)

			auth.GET("/blog", api.ListPosts)
			auth.POST("/blog", api.CreatePost)
			auth.GET("/blog/:id", api.GetPost)
			auth.PUT("/blog/:id", api.UpdatePost)
			auth.DELETE("/blog/:id", api.DeletePost)
			auth.POST("/blog/:id/publish", api.PublishPost)

			auth.GET("/settings/wordpress", api.GetWordPressSettings)
			auth.PUT("/settings/wordpress", api.UpdateWordPressSettings)
			auth.POST("/settings/wordpress/test", api.TestWordPressConnection)
		}
	}

	return r
}

// UserKey 返回按用户限流使用的键。
func UserKey(c *gin.Context) string {
	if id := c.GetUint(handler.ContextUserIDKey); id != 0 {
		return "user:" + strconv.FormatUint(uint64(id), 10)
	}
	return ""
}
