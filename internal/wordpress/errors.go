package wordpress

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotConfigured 表示站点地址、用户名或密码缺失。
	ErrNotConfigured = errors.New("wordpress settings not configured")
	// ErrImageFetch 会中止发布：特色图片无法下载。
	ErrImageFetch = errors.New("failed to fetch featured image")
	// ErrMediaUpload 只记录不返回：文章在没有媒体的情况下发出。
	ErrMediaUpload = errors.New("failed to upload featured image")
	// ErrPublish 包装创建或更新文章时的所有远端失败。
	ErrPublish = errors.New("failed to publish to wordpress")

	ErrTimeout          = errors.New("wordpress request timed out")
	ErrUnexpectedStatus = errors.New("unexpected wordpress response status")
)

// StatusError 表示非 2xx（或其他非预期）的响应。
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "…"
	}
	if body == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, body)
}

func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
