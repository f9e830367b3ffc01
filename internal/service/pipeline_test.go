package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/wordpress"
)

type stubExtractor struct {
	text string
	err  error
}

func (s stubExtractor) ExtractFile(_ context.Context, filename string, r io.Reader) (string, error) {
	if _, err := DetectKind(filename); err != nil {
		return "", err
	}
	if s.err != nil {
		return "", s.err
	}
	return s.text, nil
}

type stubTransformer struct {
	result TransformationResult
	err    error
	prompt string
}

func (s *stubTransformer) Transform(_ context.Context, text, customPrompt string) (TransformationResult, error) {
	s.prompt = customPrompt
	return s.result, s.err
}

type stubSynthesizer struct {
	url   string
	err   error
	calls int
}

func (s *stubSynthesizer) Synthesize(context.Context, string, string) (string, error) {
	s.calls++
	return s.url, s.err
}

type stubPublisher struct {
	result wordpress.PublishResult
	err    error
	calls  int
	post   wordpress.Post
}

func (s *stubPublisher) Publish(_ context.Context, post wordpress.Post, creds wordpress.Credentials) (wordpress.PublishResult, error) {
	if !creds.Complete() {
		return wordpress.PublishResult{}, wordpress.ErrNotConfigured
	}
	s.calls++
	s.post = post
	return s.result, s.err
}

type pipelineFixture struct {
	pipeline  *Pipeline
	posts     *PostService
	settings  *WordPressSettingsService
	publisher *stubPublisher
	user      *db.User
}

func newPipelineFixture(t *testing.T) pipelineFixture {
	t.Helper()
	gdb := setupServiceTestDB(t)
	user := seedUser(t, gdb, "alice")
	posts := NewPostService(gdb)
	settings := NewWordPressSettingsService(gdb, &stubPinger{})
	publisher := &stubPublisher{result: wordpress.PublishResult{PostID: 901}}

	pipeline := NewPipeline(PipelineDeps{
		Extractor: stubExtractor{text: "judgment"},
		Transformer: &stubTransformer{result: TransformationResult{
			Content: "<p>body</p>", Title: "A v. B", Keywords: []string{"a"}, Summary: "s",
		}},
		Synthesizer: &stubSynthesizer{url: "https://img.example.com/x.png"},
		Publisher:   publisher,
		Posts:       posts,
		Settings:    settings,
	})
	return pipelineFixture{pipeline: pipeline, posts: posts, settings: settings, publisher: publisher, user: user}
}

func (f pipelineFixture) configure(t *testing.T) {
	t.Helper()
	if _, err := f.settings.Update(f.user.ID, WordPressSettings{
		SiteURL:             "https://legal.example.com",
		Username:            "editor",
		ApplicationPassword: "secret",
	}); err != nil {
		t.Fatalf("configure settings: %v", err)
	}
}

func TestPipelineProcessUpload(t *testing.T) {
	f := newPipelineFixture(t)

	result, err := f.pipeline.ProcessUpload(context.Background(), UploadInput{
		Filename:     "judgment.pdf",
		Body:         bytes.NewReader([]byte("%PDF")),
		CustomPrompt: "custom {content}",
	})
	if err != nil {
		t.Fatalf("process upload failed: %v", err)
	}
	if result.Filename != "judgment.pdf" || result.Title != "A v. B" || result.Content != "<p>body</p>" {
		t.Fatalf("unexpected result %+v", result)
	}
	if f.pipeline.transformer.(*stubTransformer).prompt != "custom {content}" {
		t.Fatalf("custom prompt not forwarded")
	}

	posts, err := f.posts.List(f.user.ID, PostFilter{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(posts) != 0 {
		t.Fatalf("upload flow must not persist posts")
	}
}

func TestPipelineProcessUploadUnsupported(t *testing.T) {
	f := newPipelineFixture(t)

	_, err := f.pipeline.ProcessUpload(context.Background(), UploadInput{Filename: "notes.txt", Body: strings.NewReader("x")})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestPipelineGenerateImageValidates(t *testing.T) {
	f := newPipelineFixture(t)
	synth := f.pipeline.synthesizer.(*stubSynthesizer)

	if _, err := f.pipeline.GenerateImage(context.Background(), "", "content"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := f.pipeline.GenerateImage(context.Background(), "title", "  "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if synth.calls != 0 {
		t.Fatalf("synthesizer must not be called for invalid input")
	}

	url, err := f.pipeline.GenerateImage(context.Background(), "title", "content")
	if err != nil || url != "https://img.example.com/x.png" {
		t.Fatalf("unexpected result %q, %v", url, err)
	}
}

func TestPipelinePublishPost(t *testing.T) {
	f := newPipelineFixture(t)
	f.configure(t)

	post, err := f.posts.Create(f.user.ID, PostInput{Title: "T", Content: "C", ImageURL: strPtr("https://img.example.com/x.png")})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	outcome, err := f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if outcome.Post.Status != db.PostStatusPublished || outcome.Post.WordPressPostID == nil || *outcome.Post.WordPressPostID != 901 {
		t.Fatalf("unexpected post after publish %+v", outcome.Post)
	}
	if f.publisher.post.ImageURL != "https://img.example.com/x.png" || f.publisher.post.RemoteID != nil {
		t.Fatalf("unexpected remote post %+v", f.publisher.post)
	}

	stored, err := f.posts.Get(post.ID, f.user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !stored.IsPublished() {
		t.Fatalf("expected stored post to be published")
	}

	// 重新发布时会带上已有的远端 id
	f.publisher.result = wordpress.PublishResult{PostID: 901, Updated: true}
	if _, err := f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID); err != nil {
		t.Fatalf("republish failed: %v", err)
	}
	if f.publisher.post.RemoteID == nil || *f.publisher.post.RemoteID != 901 {
		t.Fatalf("expected remote id on republish, got %+v", f.publisher.post.RemoteID)
	}
}

func TestPipelinePublishDegradedStillSucceeds(t *testing.T) {
	f := newPipelineFixture(t)
	f.configure(t)
	f.publisher.result = wordpress.PublishResult{PostID: 42, MediaErr: wordpress.ErrMediaUpload}

	post, err := f.posts.Create(f.user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	outcome, err := f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID)
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	if !outcome.Remote.Degraded() || *outcome.Post.WordPressPostID != 42 {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestPipelinePublishNotConfigured(t *testing.T) {
	f := newPipelineFixture(t)

	post, err := f.posts.Create(f.user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, err = f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID)
	if !errors.Is(err, wordpress.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if f.publisher.calls != 0 {
		t.Fatalf("publisher must not be called without credentials")
	}
}

func TestPipelinePublishFailureKeepsDraft(t *testing.T) {
	f := newPipelineFixture(t)
	f.configure(t)
	f.publisher.err = errors.New("remote exploded")

	post, err := f.posts.Create(f.user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID); err == nil {
		t.Fatalf("expected publish error")
	}
	stored, err := f.posts.Get(post.ID, f.user.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Status != db.PostStatusDraft || stored.WordPressPostID != nil {
		t.Fatalf("failed publish must leave the draft untouched, got %+v", stored)
	}
}

func TestPipelinePublishForeignPost(t *testing.T) {
	f := newPipelineFixture(t)
	f.configure(t)

	post, err := f.posts.Create(f.user.ID, PostInput{Title: "T", Content: "C"})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if _, err := f.pipeline.PublishPost(context.Background(), post.ID, f.user.ID+1); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
	if f.publisher.calls != 0 {
		t.Fatalf("publisher must not be called for a foreign post")
	}
}
