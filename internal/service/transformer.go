package service

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// TransformationResult 是改写后的文章及其元数据。
type TransformationResult struct {
	Content  string
	Title    string
	Keywords []string
	Summary  string
}

// ContentTransformer 将判决书文本改写为博客文章。
type ContentTransformer struct {
	llm ChatCompleter
}

// NewContentTransformer 创建内容改写服务，llm 通常为 *AIClient。
func NewContentTransformer(llm ChatCompleter) *ContentTransformer {
	return &ContentTransformer{llm: llm}
}

// Transform 生成正文、标题、关键词与摘要。先生成正文，
// 随后三个元数据调用基于正文并发执行，
// 任一失败则整个转换失败。
func (t *ContentTransformer) Transform(ctx context.Context, text, customPrompt string) (TransformationResult, error) {
	if t == nil || t.llm == nil {
		return TransformationResult{}, fmt.Errorf("%w: language model not configured", ErrTransformationFailed)
	}

	prompt := buildBlogPrompt(text, customPrompt)

	rawBody, err := t.complete(ctx, "body", ChatRequest{
		SystemPrompt: bodySystemPrompt,
		UserPrompt:   prompt,
		MaxTokens:    2000,
		Temperature:  0.7,
	})
	if err != nil {
		return TransformationResult{}, err
	}

	body, err := normalizeGeneratedHTML(rawBody)
	if err != nil {
		return TransformationResult{}, fmt.Errorf("%w: %w", ErrTransformationFailed, err)
	}
	if body == "" {
		return TransformationResult{}, fmt.Errorf("%w: %w", ErrTransformationFailed, ErrEmptyModelResponse)
	}

	var (
		title       string
		rawKeywords string
		summary     string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		title, err = t.complete(gctx, "title", ChatRequest{
			SystemPrompt: titleSystemPrompt,
			UserPrompt:   titleUserPrompt + body,
			MaxTokens:    100,
			Temperature:  0.7,
		})
		return err
	})
	g.Go(func() error {
		var err error
		rawKeywords, err = t.complete(gctx, "keywords", ChatRequest{
			SystemPrompt: keywordsSystemPrompt,
			UserPrompt:   keywordsUserPrompt + body,
			MaxTokens:    100,
			Temperature:  0.3,
		})
		return err
	})
	g.Go(func() error {
		var err error
		summary, err = t.complete(gctx, "summary", ChatRequest{
			SystemPrompt: summarySystemPrompt,
			UserPrompt:   summaryUserPrompt + body,
			MaxTokens:    100,
			Temperature:  0.3,
		})
		return err
	})
	if err := g.Wait(); err != nil {
		return TransformationResult{}, err
	}

	return TransformationResult{
		Content:  body,
		Title:    strings.Trim(title, "\"' "),
		Keywords: splitKeywords(rawKeywords),
		Summary:  summary,
	}, nil
}

func (t *ContentTransformer) complete(ctx context.Context, kind string, req ChatRequest) (string, error) {
	logChatRequest(kind, req)

	resp, err := t.llm.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTransformationFailed, kind, err)
	}
	logChatResponse(kind, resp)
	content := strings.TrimSpace(resp.Content)
	if content == "" {
		return "", fmt.Errorf("%w: %s: %w", ErrTransformationFailed, kind, ErrEmptyModelResponse)
	}
	return content, nil
}

// buildBlogPrompt 有自定义提示词时优先使用，并填入文本；
// 不含占位符的自定义提示词会在末尾追加文本。
func buildBlogPrompt(text, customPrompt string) string {
	prompt := defaultBlogPrompt
	if strings.TrimSpace(customPrompt) != "" {
		prompt = customPrompt
	}
	if !strings.Contains(prompt, contentPlaceholder) {
		return prompt + "\n\n" + text
	}
	return strings.ReplaceAll(prompt, contentPlaceholder, text)
}

// splitKeywords 按逗号切分并去除首尾空白，保留顺序与重复项，
// 丢弃空片段。
func splitKeywords(raw string) []string {
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		keyword := strings.TrimSpace(part)
		if keyword == "" {
			continue
		}
		keywords = append(keywords, keyword)
	}
	return keywords
}
