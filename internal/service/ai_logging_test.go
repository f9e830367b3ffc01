package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func TestLogChatResponseTruncatesLongContent(t *testing.T) {
	buf := captureLog(t)

	long := strings.Repeat("判", maxAILogSnippetRunes+10)
	logChatResponse("body", ChatResponse{Content: long, PromptTokens: 12, CompletionTokens: 3})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line %q: %v", buf.String(), err)
	}
	if entry["ai_stage"] != "body" || entry["prompt_tokens"] != float64(12) {
		t.Fatalf("unexpected fields %v", entry)
	}
	if entry["runes"] != float64(maxAILogSnippetRunes+10) {
		t.Fatalf("expected full rune count, got %v", entry["runes"])
	}
	snippet, _ := entry["snippet"].(string)
	if !strings.HasSuffix(snippet, "…(truncated)") {
		t.Fatalf("expected truncated snippet")
	}
	if got := utf8.RuneCountInString(strings.TrimSuffix(snippet, "…(truncated)")); got != maxAILogSnippetRunes {
		t.Fatalf("expected %d runes kept, got %d", maxAILogSnippetRunes, got)
	}
}

func TestLogChatRequestMarksEmptyPrompt(t *testing.T) {
	buf := captureLog(t)

	logChatRequest("title", ChatRequest{UserPrompt: "  ", MaxTokens: 100, Temperature: 0.7})

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to decode log line: %v", err)
	}
	if entry["empty"] != true || entry["max_tokens"] != float64(100) {
		t.Fatalf("unexpected fields %v", entry)
	}
	if _, ok := entry["snippet"]; ok {
		t.Fatalf("empty prompt must not log a snippet")
	}
}
