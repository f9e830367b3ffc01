package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/metrics"
	"github.com/judgmentpress/internal/wordpress"
	"github.com/rs/zerolog/log"
)

type documentExtractor interface {
	ExtractFile(ctx context.Context, filename string, r io.Reader) (string, error)
}

type contentTransformer interface {
	Transform(ctx context.Context, text, customPrompt string) (TransformationResult, error)
}

type imageSynthesizer interface {
	Synthesize(ctx context.Context, title, content string) (string, error)
}

// Publisher 将完成的文章推送到远端站点。
type Publisher interface {
	Publish(ctx context.Context, post wordpress.Post, creds wordpress.Credentials) (wordpress.PublishResult, error)
}

type credentialSource interface {
	Credentials(userID uint) (wordpress.Credentials, error)
}

// PipelineDeps 列出 Pipeline 的协作者。
type PipelineDeps struct {
	Extractor   documentExtractor
	Transformer contentTransformer
	Synthesizer imageSynthesizer
	Publisher   Publisher
	Posts       *PostService
	Settings    credentialSource
	Metrics     metrics.Recorder
}

// Pipeline 编排上传、配图与发布三条流程。
type Pipeline struct {
	extractor   documentExtractor
	transformer contentTransformer
	synthesizer imageSynthesizer
	publisher   Publisher
	posts       *PostService
	settings    credentialSource
	metrics     metrics.Recorder
}

func NewPipeline(deps PipelineDeps) *Pipeline {
	recorder := deps.Metrics
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Pipeline{
		extractor:   deps.Extractor,
		transformer: deps.Transformer,
		synthesizer: deps.Synthesizer,
		publisher:   deps.Publisher,
		posts:       deps.Posts,
		settings:    deps.Settings,
		metrics:     recorder,
	}
}

// UploadInput 是一份上传文档及可选的自定义提示词。
type UploadInput struct {
	Filename     string
	Body         io.Reader
	CustomPrompt string
}

// UploadResult 直接返回给调用方，不做持久化。
type UploadResult struct {
	Filename string
	Content  string
	Title    string
	Keywords []string
	Summary  string
}

// PublishOutcome 是刷新后的文章以及远端站点的反馈。
type PublishOutcome struct {
	Post   *db.Post
	Remote wordpress.PublishResult
}

// ProcessUpload 提取文档文本并改写为文章草稿。
func (p *Pipeline) ProcessUpload(ctx context.Context, input UploadInput) (UploadResult, error) {
	filename := strings.TrimSpace(input.Filename)
	logger := log.With().Str("file", filename).Logger()

	start := time.Now()
	text, err := p.extractor.ExtractFile(ctx, filename, input.Body)
	p.metrics.ObserveStage(metrics.StageExtract, time.Since(start), err)
	if err != nil {
		logger.Error().Err(err).Msg("extraction failed")
		return UploadResult{}, err
	}
	logger.Debug().Int("chars", len(text)).Msg("extracted document")

	start = time.Now()
	result, err := p.transformer.Transform(ctx, text, input.CustomPrompt)
	p.metrics.ObserveStage(metrics.StageTransform, time.Since(start), err)
	if err != nil {
		logger.Error().Err(err).Msg("transformation failed")
		return UploadResult{}, err
	}

	logger.Info().Str("title", result.Title).Int("keywords", len(result.Keywords)).Msg("processed upload")
	return UploadResult{
		Filename: filename,
		Content:  result.Content,
		Title:    result.Title,
		Keywords: result.Keywords,
		Summary:  result.Summary,
	}, nil
}

// GenerateImage 为文章配图，标题与正文均必填。
func (p *Pipeline) GenerateImage(ctx context.Context, title, content string) (string, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content and title are required", ErrInvalidInput)
	}

	start := time.Now()
	url, err := p.synthesizer.Synthesize(ctx, title, content)
	p.metrics.ObserveStage(metrics.StageImage, time.Since(start), err)
	if err != nil {
		log.Error().Err(err).Str("title", title).Msg("image generation failed")
		return "", err
	}
	return url, nil
}

// PublishPost 将文章推送到所有者的站点，再同时记录状态与远端 id。
// 远端调用在前；若随后本地更新失败，会记录远端 id
// 以便人工对账。
func (p *Pipeline) PublishPost(ctx context.Context, postID, userID uint) (*PublishOutcome, error) {
	post, err := p.posts.Get(postID, userID)
	if err != nil {
		return nil, err
	}

	creds, err := p.settings.Credentials(userID)
	if err != nil {
		return nil, err
	}
	if !creds.Complete() {
		return nil, wordpress.ErrNotConfigured
	}

	remotePost := wordpress.Post{
		Title:    post.Title,
		Content:  post.Content,
		RemoteID: post.WordPressPostID,
	}
	if post.ImageURL != nil {
		remotePost.ImageURL = *post.ImageURL
	}

	logger := log.With().Uint("post_id", post.ID).Uint("user_id", userID).Logger()

	start := time.Now()
	remote, err := p.publisher.Publish(ctx, remotePost, creds)
	p.metrics.ObserveStage(metrics.StagePublish, time.Since(start), err)
	if err != nil {
		logger.Error().Err(err).Msg("publish failed")
		return nil, err
	}
	if remote.Degraded() {
		p.metrics.RecordDegradedPublish()
		logger.Warn().Err(remote.MediaErr).Int64("wordpress_post_id", remote.PostID).Msg("published without featured image")
	}

	updated, err := p.posts.MarkPublished(post.ID, userID, remote.PostID)
	if err != nil {
		logger.Error().Err(err).Int64("wordpress_post_id", remote.PostID).Msg("remote publish succeeded but local status update failed")
		return nil, fmt.Errorf("record publish of remote post %d: %w", remote.PostID, err)
	}

	logger.Info().Int64("wordpress_post_id", remote.PostID).Bool("updated", remote.Updated).Msg("post published")
	return &PublishOutcome{Post: updated, Remote: remote}, nil
}
