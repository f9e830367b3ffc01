package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
)

// stubChat 根据 system 提示词选择回答。
type stubChat struct {
	mu       sync.Mutex
	requests []ChatRequest
	answer   func(ChatRequest) (ChatResponse, error)
}

func (s *stubChat) Chat(_ context.Context, req ChatRequest) (ChatResponse, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return s.answer(req)
}

func (s *stubChat) find(systemPrompt string) (ChatRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, req := range s.requests {
		if req.SystemPrompt == systemPrompt {
			return req, true
		}
	}
	return ChatRequest{}, false
}

func legalAnswers(req ChatRequest) (ChatResponse, error) {
	switch req.SystemPrompt {
	case bodySystemPrompt:
		return ChatResponse{Content: "<h2>Background</h2><p>The court allowed the appeal.</p>"}, nil
	case titleSystemPrompt:
		return ChatResponse{Content: `"Rao v. State: Bail Pending Appeal - Granted"`}, nil
	case keywordsSystemPrompt:
		return ChatResponse{Content: " bail ,appeal,  criminal law , bail,"}, nil
	case summarySystemPrompt:
		return ChatResponse{Content: "The High Court granted bail pending appeal."}, nil
	}
	return ChatResponse{}, errors.New("unexpected prompt")
}

func TestContentTransformerTransform(t *testing.T) {
	llm := &stubChat{answer: legalAnswers}
	transformer := NewContentTransformer(llm)

	result, err := transformer.Transform(context.Background(), "JUDGMENT TEXT", "")
	if err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	if result.Content != "<h2>Background</h2><p>The court allowed the appeal.</p>" {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.Title != "Rao v. State: Bail Pending Appeal - Granted" {
		t.Fatalf("unexpected title %q", result.Title)
	}
	wantKeywords := []string{"bail", "appeal", "criminal law", "bail"}
	if strings.Join(result.Keywords, "|") != strings.Join(wantKeywords, "|") {
		t.Fatalf("unexpected keywords %#v", result.Keywords)
	}
	if result.Summary != "The High Court granted bail pending appeal." {
		t.Fatalf("unexpected summary %q", result.Summary)
	}

	body, ok := llm.find(bodySystemPrompt)
	if !ok {
		t.Fatalf("expected body request")
	}
	if !strings.Contains(body.UserPrompt, "JUDGMENT TEXT") || strings.Contains(body.UserPrompt, contentPlaceholder) {
		t.Fatalf("expected placeholder to be replaced, got %q", body.UserPrompt)
	}
	if body.MaxTokens != 2000 || body.Temperature != 0.7 {
		t.Fatalf("unexpected body sampling %+v", body)
	}

	keywords, ok := llm.find(keywordsSystemPrompt)
	if !ok {
		t.Fatalf("expected keywords request")
	}
	if !strings.Contains(keywords.UserPrompt, result.Content) {
		t.Fatalf("keyword prompt should carry the generated body")
	}
	if keywords.Temperature != 0.3 || keywords.MaxTokens != 100 {
		t.Fatalf("unexpected keyword sampling %+v", keywords)
	}
}

func TestContentTransformerUsesCustomPrompt(t *testing.T) {
	llm := &stubChat{answer: legalAnswers}
	transformer := NewContentTransformer(llm)

	if _, err := transformer.Transform(context.Background(), "FACTS", "Summarise for students: {content}"); err != nil {
		t.Fatalf("transform failed: %v", err)
	}

	body, _ := llm.find(bodySystemPrompt)
	if body.UserPrompt != "Summarise for students: FACTS" {
		t.Fatalf("unexpected prompt %q", body.UserPrompt)
	}
}

func TestContentTransformerFailsWhole(t *testing.T) {
	upstream := errors.New("rate limited")
	llm := &stubChat{answer: func(req ChatRequest) (ChatResponse, error) {
		if req.SystemPrompt == summarySystemPrompt {
			return ChatResponse{}, upstream
		}
		return legalAnswers(req)
	}}

	result, err := NewContentTransformer(llm).Transform(context.Background(), "text", "")
	if !errors.Is(err, ErrTransformationFailed) {
		t.Fatalf("expected ErrTransformationFailed, got %v", err)
	}
	if !errors.Is(err, upstream) {
		t.Fatalf("expected underlying cause to be kept, got %v", err)
	}
	if result.Content != "" || result.Title != "" || result.Keywords != nil {
		t.Fatalf("expected no partial result, got %+v", result)
	}
}

func TestContentTransformerRejectsEmptyBody(t *testing.T) {
	llm := &stubChat{answer: func(req ChatRequest) (ChatResponse, error) {
		if req.SystemPrompt == bodySystemPrompt {
			return ChatResponse{Content: "   "}, nil
		}
		return legalAnswers(req)
	}}

	_, err := NewContentTransformer(llm).Transform(context.Background(), "text", "")
	if !errors.Is(err, ErrEmptyModelResponse) {
		t.Fatalf("expected ErrEmptyModelResponse, got %v", err)
	}
	if len(llm.requests) != 1 {
		t.Fatalf("expected metadata calls to be skipped, got %d requests", len(llm.requests))
	}
}

func TestSplitKeywordsTrimsEntries(t *testing.T) {
	cases := map[string][]string{
		"a,b,c":              {"a", "b", "c"},
		"  a ,  b  ,c  ":     {"a", "b", "c"},
		"contract law, tort": {"contract law", "tort"},
		"":                   {},
		" , ,":               {},
		"a, a ,b":            {"a", "a", "b"},
	}
	for raw, want := range cases {
		got := splitKeywords(raw)
		if len(got) != len(want) {
			t.Fatalf("splitKeywords(%q) = %#v, want %#v", raw, got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("splitKeywords(%q)[%d] = %q, want %q", raw, i, got[i], want[i])
			}
			if strings.TrimSpace(got[i]) != got[i] {
				t.Fatalf("keyword %q carries whitespace", got[i])
			}
		}
	}
}

func TestBuildBlogPromptAppendsWhenPlaceholderMissing(t *testing.T) {
	got := buildBlogPrompt("FACTS", "Write a short note")
	if got != "Write a short note\n\nFACTS" {
		t.Fatalf("unexpected prompt %q", got)
	}
}
