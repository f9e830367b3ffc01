package service

import (
	"context"
	"fmt"
	"strings"
)

const (
	imageSize    = "1024x1024"
	imageQuality = "hd"
	imageStyle   = "natural"
)

// ImageLLM 是配图服务对模型客户端的依赖。
type ImageLLM interface {
	ChatCompleter
	ImageGenerator
}

// ImageSynthesizer 先用对话模型描述文章画面，
// 再交给图片模型渲染。
type ImageSynthesizer struct {
	llm ImageLLM
}

func NewImageSynthesizer(llm ImageLLM) *ImageSynthesizer {
	return &ImageSynthesizer{llm: llm}
}

// Synthesize 返回生成插图的托管地址。
func (s *ImageSynthesizer) Synthesize(ctx context.Context, title, content string) (string, error) {
	if s == nil || s.llm == nil {
		return "", fmt.Errorf("%w: language model not configured", ErrImageGenerationFailed)
	}

	userPrompt := fmt.Sprintf("Title: %s\n\nContent: %s", title, content)
	req := ChatRequest{
		SystemPrompt: imagePromptSystemPrompt,
		UserPrompt:   userPrompt,
		MaxTokens:    200,
		Temperature:  0.5,
	}
	logChatRequest("image-prompt", req)

	resp, err := s.llm.Chat(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: describe image: %w", ErrImageGenerationFailed, err)
	}
	logChatResponse("image-prompt", resp)
	description := strings.TrimSpace(resp.Content)
	if description == "" {
		return "", fmt.Errorf("%w: describe image: %w", ErrImageGenerationFailed, ErrEmptyModelResponse)
	}

	url, err := s.llm.GenerateImage(ctx, ImageRequest{
		Prompt:  description + imageSpellingSuffix,
		Size:    imageSize,
		Quality: imageQuality,
		Style:   imageStyle,
	})
	if err != nil {
		return "", fmt.Errorf("%w: render image: %w", ErrImageGenerationFailed, err)
	}
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("%w: render image: empty url", ErrImageGenerationFailed)
	}
	return url, nil
}
