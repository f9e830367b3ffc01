package wordpress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
)

// Post 是推送到远端站点的内容。
type Post struct {
	Title    string
	Content  string
	ImageURL string
	// RemoteID 在文章曾经发布过时设置。
	RemoteID *int64
}

// PublishResult 描述一次成功的发布。特色图片上传失败、
// 文章在无图情况下发出时设置 MediaErr。
type PublishResult struct {
	PostID   int64
	MediaID  int64
	Updated  bool
	MediaErr error
}

// Degraded 表示文章是否在缺少图片的情况下发布。
func (r PublishResult) Degraded() bool { return r.MediaErr != nil }

// Publisher 上传特色媒体并创建或更新远端文章。
type Publisher struct {
	client *Client
}

func NewPublisher(client *Client) *Publisher {
	if client == nil {
		client = NewClient(nil)
	}
	return &Publisher{client: client}
}

// Client 暴露底层传输，供连接测试使用。
func (p *Publisher) Client() *Client { return p.client }

type remoteObject struct {
	ID int64 `json:"id"`
}

type postPayload struct {
	Title         string `json:"title"`
	Content       string `json:"content"`
	Status        string `json:"status"`
	FeaturedMedia int64  `json:"featured_media,omitempty"`
}

// Publish 将文章推送到 creds 指定的站点。凭据不完整时在发出任何请求前
// 返回 ErrNotConfigured。图片下载失败是致命错误，
// 媒体上传失败只会降级结果。
func (p *Publisher) Publish(ctx context.Context, post Post, creds Credentials) (PublishResult, error) {
	if !creds.Complete() {
		return PublishResult{}, ErrNotConfigured
	}
	if _, err := creds.endpoint(""); err != nil {
		return PublishResult{}, fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}

	logger := log.With().Str("site", creds.SiteURL).Logger()
	var result PublishResult

	if imageURL := strings.TrimSpace(post.ImageURL); imageURL != "" {
		data, err := p.fetchImage(ctx, imageURL)
		if err != nil {
			return PublishResult{}, fmt.Errorf("%w: %w", ErrImageFetch, err)
		}

		mediaID, err := p.uploadMedia(ctx, creds, data)
		if err != nil {
			result.MediaErr = fmt.Errorf("%w: %w", ErrMediaUpload, err)
			logger.Warn().Err(err).Msg("featured image upload failed, publishing without it")
		} else {
			result.MediaID = mediaID
			logger.Info().Int64("media_id", mediaID).Msg("uploaded featured image")
		}
	}

	payload := postPayload{
		Title:         post.Title,
		Content:       post.Content,
		Status:        creds.status(),
		FeaturedMedia: result.MediaID,
	}

	if post.RemoteID != nil && *post.RemoteID > 0 {
		id, err := p.updatePost(ctx, creds, *post.RemoteID, payload)
		switch {
		case err == nil:
			result.PostID = id
			result.Updated = true
			logger.Info().Int64("post_id", id).Msg("updated wordpress post")
			return result, nil
		case isStatus(err, http.StatusNotFound), isStatus(err, http.StatusGone):
			logger.Warn().Int64("post_id", *post.RemoteID).Msg("remote post missing, creating a new one")
		default:
			return PublishResult{}, fmt.Errorf("%w: %w", ErrPublish, err)
		}
	}

	id, err := p.createPost(ctx, creds, payload)
	if err != nil {
		return PublishResult{}, fmt.Errorf("%w: %w", ErrPublish, err)
	}
	result.PostID = id
	logger.Info().Int64("post_id", id).Msg("published wordpress post")
	return result, nil
}

// fetchImage 下载图片并确认其能被解码。
func (p *Publisher) fetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	resp, err := p.client.fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}
	if len(resp.Body) == 0 {
		return nil, errors.New("empty image body")
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(resp.Body)); err != nil {
		return nil, fmt.Errorf("not a supported image: %w", err)
	}
	return resp.Body, nil
}

func (p *Publisher) uploadMedia(ctx context.Context, creds Credentials, data []byte) (int64, error) {
	mtype := mimetype.Detect(data)
	filename := "featured-image" + mtype.Extension()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", mtype.String())
	part, err := writer.CreatePart(header)
	if err != nil {
		return 0, err
	}
	if _, err := part.Write(data); err != nil {
		return 0, err
	}
	if err := writer.Close(); err != nil {
		return 0, err
	}

	resp, err := p.client.postBody(ctx, creds, "/wp-json/wp/v2/media", writer.FormDataContentType(), &body)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, &StatusError{Op: "upload media", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	var media remoteObject
	if err := resp.decode("upload media", &media); err != nil {
		return 0, err
	}
	if media.ID <= 0 {
		return 0, errors.New("upload media: response without id")
	}
	return media.ID, nil
}

func (p *Publisher) createPost(ctx context.Context, creds Credentials, payload postPayload) (int64, error) {
	resp, err := p.client.postJSON(ctx, creds, "/wp-json/wp/v2/posts", payload)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusCreated {
		return 0, &StatusError{Op: "create post", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return decodeRemoteID(resp, "create post")
}

func (p *Publisher) updatePost(ctx context.Context, creds Credentials, remoteID int64, payload postPayload) (int64, error) {
	route := "/wp-json/wp/v2/posts/" + strconv.FormatInt(remoteID, 10)
	resp, err := p.client.postJSON(ctx, creds, route, payload)
	if err != nil {
		return 0, err
	}
	if resp.StatusCode != http.StatusOK {
		return 0, &StatusError{Op: "update post", StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return decodeRemoteID(resp, "update post")
}

func decodeRemoteID(resp *response, op string) (int64, error) {
	var created remoteObject
	if err := resp.decode(op, &created); err != nil {
		return 0, err
	}
	if created.ID <= 0 {
		return 0, fmt.Errorf("%s: response without id", op)
	}
	return created.ID, nil
}

func isStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}
