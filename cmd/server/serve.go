package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/config"
	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/handler"
	"github.com/judgmentpress/internal/logging"
	"github.com/judgmentpress/internal/metrics"
	"github.com/judgmentpress/internal/middleware"
	"github.com/judgmentpress/internal/router"
	"github.com/judgmentpress/internal/security"
	"github.com/judgmentpress/internal/service"
	"github.com/judgmentpress/internal/wordpress"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func loadConfig() (config.AppConfig, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.AppConfig{}, err
	}
	cfg := config.Load()
	logging.Setup(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.GinMode)

	gdb, err := db.Open(cfg.DatabaseDriver, cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		defer sqlDB.Close()
	}
	if err := db.EnsureUser(gdb, cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		return fmt.Errorf("ensure root user: %w", err)
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set; upload and image generation will fail")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	ai := service.NewAIClient(service.AIClientConfig{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		ChatModel:  cfg.OpenAIChatModel,
		ImageModel: cfg.OpenAIImageModel,
	})

	var outbound *http.Client
	if cfg.SSRFProtection {
		outbound = security.NewSafeClient(wordpress.CallTimeout)
	}
	wpClient := wordpress.NewClient(outbound)

	posts := service.NewPostService(gdb)
	settings := service.NewWordPressSettingsService(gdb, wpClient)
	if cfg.SSRFProtection {
		settings.SetURLValidator(security.ValidateURL)
	}

	pipeline := service.NewPipeline(service.PipelineDeps{
		Extractor:   service.NewTextExtractor(cfg.UploadMaxBytes),
		Transformer: service.NewContentTransformer(ai),
		Synthesizer: service.NewImageSynthesizer(ai),
		Publisher:   wordpress.NewPublisher(wpClient),
		Posts:       posts,
		Settings:    settings,
		Metrics:     collector,
	})

	limiter := middleware.NewRateLimiter(middleware.PerMinute(cfg.AIRatePerMinute), router.UserKey)
	defer limiter.Stop()

	api := handler.NewAPI(handler.Deps{
		DB:            gdb,
		Users:         service.NewUserService(gdb),
		Posts:         posts,
		Settings:      settings,
		Pipeline:      pipeline,
		LLMConfigured: strings.TrimSpace(cfg.OpenAIAPIKey) != "",
	})
	engine := router.SetupRouter(api, router.Options{
		SessionSecret: cfg.SessionSecret,
		SecureCookies: cfg.GinMode == gin.ReleaseMode,
		CORSOrigins:   cfg.CORSOrigins,
		AILimiter:     limiter,
		Metrics:       collector,
		Gatherer:      reg,
	})
	// 限制 multipart 解析时驻留内存的大小，超出部分写入临时文件
	engine.MaxMultipartMemory = 8 << 20

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		// 上传接口串行调用多次模型，写超时需覆盖整条流水线
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("db_driver", cfg.DatabaseDriver).Bool("ssrf_protection", cfg.SSRFProtection).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("run server: %w", err)
		}
		return nil
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
