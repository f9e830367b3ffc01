package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIChatModel  = "gpt-4o-mini"
	defaultOpenAIImageModel = "dall-e-3"
	defaultAIHTTPTimeout    = 180 * time.Second
)

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

type imageGenerationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size,omitempty"`
	Quality string `json:"quality,omitempty"`
	Style   string `json:"style,omitempty"`
	N       int    `json:"n"`
}

type imageGenerationResponse struct {
	Data []struct {
		URL           string `json:"url"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ChatRequest 描述一次 system+user 的对话补全。
type ChatRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ChatResponse 包含去除首尾空白的回复与 token 用量。
type ChatResponse struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
}

// ImageRequest 描述一次图片生成。
type ImageRequest struct {
	Prompt  string
	Size    string
	Quality string
	Style   string
}

// ChatCompleter 是模型客户端的对话部分。
type ChatCompleter interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// ImageGenerator 是模型客户端的图片部分。
type ImageGenerator interface {
	GenerateImage(ctx context.Context, req ImageRequest) (string, error)
}

// AIClientConfig 保存 AIClient 的凭据与模型名称。
type AIClientConfig struct {
	APIKey     string
	BaseURL    string
	ChatModel  string
	ImageModel string
}

// AIClient 访问兼容 OpenAI 的接口，可并发使用。
type AIClient struct {
	http       httpDoer
	apiKey     string
	baseURL    string
	chatModel  string
	imageModel string
}

// NewAIClient 根据显式配置构建客户端。
func NewAIClient(cfg AIClientConfig) *AIClient {
	c := &AIClient{
		http:       &http.Client{Timeout: defaultAIHTTPTimeout},
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    defaultOpenAIBaseURL,
		chatModel:  defaultOpenAIChatModel,
		imageModel: defaultOpenAIImageModel,
	}
	c.SetBaseURL(cfg.BaseURL)
	if model := strings.TrimSpace(cfg.ChatModel); model != "" {
		c.chatModel = model
	}
	if model := strings.TrimSpace(cfg.ImageModel); model != "" {
		c.imageModel = model
	}
	return c
}

// SetHTTPClient 覆盖默认 HTTP 客户端，主要用于测试。
func (c *AIClient) SetHTTPClient(client httpDoer) {
	if client == nil {
		c.http = &http.Client{Timeout: defaultAIHTTPTimeout}
		return
	}
	c.http = client
}

// SetBaseURL 覆盖接口根地址，空值保持不变。
func (c *AIClient) SetBaseURL(base string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return
	}
	c.baseURL = base
}

// Chat 发起一次对话补全并返回第一个候选。
func (c *AIClient) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens < 0 {
		maxTokens = 0
	}

	payload := chatCompletionRequest{
		Model: c.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: strings.TrimSpace(req.SystemPrompt)},
			{Role: "user", Content: req.UserPrompt},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	var completion chatCompletionResponse
	status, raw, err := c.post(ctx, "/chat/completions", payload, &completion)
	if err != nil {
		return ChatResponse{}, err
	}
	if status >= http.StatusBadRequest {
		return ChatResponse{}, apiError(status, completion.Error.Message, raw)
	}
	if len(completion.Choices) == 0 {
		return ChatResponse{}, fmt.Errorf("openai returned no choices")
	}

	return ChatResponse{
		Content:          strings.TrimSpace(completion.Choices[0].Message.Content),
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}

// GenerateImage 生成一张图片并返回其托管地址。
func (c *AIClient) GenerateImage(ctx context.Context, req ImageRequest) (string, error) {
	payload := imageGenerationRequest{
		Model:   c.imageModel,
		Prompt:  req.Prompt,
		Size:    req.Size,
		Quality: req.Quality,
		Style:   req.Style,
		N:       1,
	}

	var generation imageGenerationResponse
	status, raw, err := c.post(ctx, "/images/generations", payload, &generation)
	if err != nil {
		return "", err
	}
	if status >= http.StatusBadRequest {
		return "", apiError(status, generation.Error.Message, raw)
	}
	if len(generation.Data) == 0 || strings.TrimSpace(generation.Data[0].URL) == "" {
		return "", fmt.Errorf("openai returned no image")
	}
	return strings.TrimSpace(generation.Data[0].URL), nil
}

func (c *AIClient) post(ctx context.Context, path string, payload, out any) (int, []byte, error) {
	if c.apiKey == "" {
		return 0, nil, ErrAIAPIKeyMissing
	}

	client := c.http
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode openai request: %w", err)
	}

	endpoint := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return 0, nil, fmt.Errorf("build openai request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "judgmentpress-ai/1.0")

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, fmt.Errorf("call openai %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read openai response: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return resp.StatusCode, respBody, nil
		}
		return resp.StatusCode, respBody, fmt.Errorf("decode openai response: %w", err)
	}
	return resp.StatusCode, respBody, nil
}

func apiError(status int, message string, raw []byte) error {
	msg := strings.TrimSpace(message)
	if msg == "" {
		msg = strings.TrimSpace(string(raw))
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("openai returned %d: %s", status, msg)
}
