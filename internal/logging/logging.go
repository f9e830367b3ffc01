// Package logging 配置进程级的 zerolog 日志。
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options 控制日志构建方式。
type Options struct {
	Level  string
	Format string // json 或 console
	Output io.Writer
}

// New 构建带服务名的 zerolog.Logger。
func New(opts Options) zerolog.Logger {
	output := opts.Output
	if output == nil {
		output = os.Stdout
	}

	var zl zerolog.Logger
	if strings.EqualFold(opts.Format, "console") {
		zl = zerolog.New(zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339})
	} else {
		zl = zerolog.New(output)
	}

	return zl.Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", "judgmentpress").
		Logger()
}

// Setup 替换 github.com/rs/zerolog/log 使用的全局 logger。
func Setup(opts Options) zerolog.Logger {
	logger := New(opts)
	log.Logger = logger
	return logger
}

// ParseLevel 将文本级别映射为 zerolog 级别，默认 info。
func ParseLevel(level string) zerolog.Level {
	parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || parsed == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return parsed
}
