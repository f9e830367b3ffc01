package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string
	Port              string
	DatabaseDriver    string
	DatabasePath      string
	DatabaseURL       string
	SessionSecret     string
	GinMode           string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	OpenAIChatModel   string
	OpenAIImageModel  string
	UploadMaxBytes    int64
	CORSOrigins       []string
	LogLevel          string
	LogFormat         string
	SSRFProtection    bool
	AIRatePerMinute   int
	SuperRootUserName string
	SuperRootPassword string
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var defaultCORSOrigins = []string{
	"http://localhost:5173",
	"http://localhost:5174",
	"http://localhost:8000",
}

// LoadDotEnv 读取可选的 .env 文件，文件不存在时静默忽略。
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8000")

	listenAddr := env("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	driver := strings.ToLower(env("DATABASE_DRIVER", DriverSQLite))
	if driver != DriverPostgres {
		driver = DriverSQLite
	}

	return AppConfig{
		ListenAddr:        listenAddr,
		Port:              port,
		DatabaseDriver:    driver,
		DatabasePath:      env("DATABASE_PATH", "judgmentpress.db"),
		DatabaseURL:       env("DATABASE_URL", ""),
		SessionSecret:     env("SESSION_SECRET", "judgmentpress-dev-secret"),
		GinMode:           env("GIN_MODE", "release"),
		OpenAIAPIKey:      env("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     env("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIChatModel:   env("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
		OpenAIImageModel:  env("OPENAI_IMAGE_MODEL", "dall-e-3"),
		UploadMaxBytes:    envInt64("UPLOAD_MAX_BYTES", 20<<20),
		CORSOrigins:       envList("CORS_ORIGINS", defaultCORSOrigins),
		LogLevel:          env("LOG_LEVEL", "info"),
		LogFormat:         env("LOG_FORMAT", "json"),
		SSRFProtection:    envBool("SSRF_PROTECTION", true),
		AIRatePerMinute:   int(envInt64("AI_RATE_PER_MINUTE", 10)),
		SuperRootUserName: env("SUPER_ROOT_USER_NAME", ""),
		SuperRootPassword: env("SUPER_ROOT_PASSWORD", ""),
	}
}

// DatabaseDSN 根据驱动返回 gorm 使用的连接串。
func (c AppConfig) DatabaseDSN() string {
	if c.DatabaseDriver == DriverPostgres {
		return c.DatabaseURL
	}
	return c.DatabasePath
}

func env(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func envInt64(key string, fallback int64) int64 {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

// envList 兼容逗号分隔或 JSON 风格的 ["a","b"] 写法。
func envList(key string, fallback []string) []string {
	raw := env(key, "")
	if raw == "" {
		return append([]string(nil), fallback...)
	}
	raw = strings.TrimSuffix(strings.TrimPrefix(raw, "["), "]")

	var values []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.Trim(strings.TrimSpace(part), `"'`)
		if part != "" {
			values = append(values, part)
		}
	}
	if len(values) == 0 {
		return append([]string(nil), fallback...)
	}
	return values
}
