package service

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// 判决书正文可能很长，日志只保留开头一段。
const maxAILogSnippetRunes = 1024

// logChatRequest 以 debug 级别记录一次模型调用的参数与截断后的用户提示词。
func logChatRequest(stage string, req ChatRequest) {
	event := log.Debug().
		Str("ai_stage", stage).
		Int("max_tokens", req.MaxTokens).
		Float64("temperature", req.Temperature)
	withSnippet(event, req.UserPrompt).Msg("ai request")
}

// logChatResponse 记录模型返回的 token 用量与截断后的内容。
func logChatResponse(stage string, resp ChatResponse) {
	event := log.Debug().
		Str("ai_stage", stage).
		Int("prompt_tokens", resp.PromptTokens).
		Int("completion_tokens", resp.CompletionTokens)
	withSnippet(event, resp.Content).Msg("ai response")
}

func withSnippet(event *zerolog.Event, content string) *zerolog.Event {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return event.Bool("empty", true)
	}
	runes := utf8.RuneCountInString(trimmed)
	return event.Int("runes", runes).Str("snippet", truncateRunes(trimmed, maxAILogSnippetRunes))
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "…(truncated)"
}
