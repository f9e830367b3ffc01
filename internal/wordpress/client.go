// Package wordpress 通过 WordPress REST API 发布文章与媒体。
package wordpress

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ConnectTimeout = 10 * time.Second
	CallTimeout    = 30 * time.Second
	PingTimeout    = 10 * time.Second

	maxResponseBytes = 25 << 20
	userAgent        = "judgmentpress-wordpress/1.0"

	DefaultPostStatus = "publish"
)

// Credentials 标识一个 WordPress 站点及其应用密码。
type Credentials struct {
	SiteURL             string
	Username            string
	ApplicationPassword string
	// PostStatus 是新文章在远端的状态（"publish"、"draft" 等）。
	PostStatus string
}

// Complete 判断站点地址、用户名与密码是否齐全。
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.SiteURL) != "" &&
		strings.TrimSpace(c.Username) != "" &&
		strings.TrimSpace(c.ApplicationPassword) != ""
}

func (c Credentials) status() string {
	if s := strings.TrimSpace(c.PostStatus); s != "" {
		return s
	}
	return DefaultPostStatus
}

// endpoint 将 REST 路由拼接到站点地址上，
// 保留站点所在的子路径。
func (c Credentials) endpoint(route string) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(c.SiteURL), "/")
	parsed, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid site url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("invalid site url %q: scheme must be http or https", c.SiteURL)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("invalid site url %q: missing host", c.SiteURL)
	}
	return base + route, nil
}

type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *response) decode(op string, out any) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// Client 以有限时长向 WordPress 站点和图片主机发起请求。
type Client struct {
	http        *http.Client
	callTimeout time.Duration
}

// NewClient 为 httpClient（nil 时新建）加上连接与单次调用超时，
// 不修改传入的客户端。
func NewClient(httpClient *http.Client) *Client {
	var base http.Client
	if httpClient != nil {
		base = *httpClient
	}
	base.Transport = withConnectTimeout(base.Transport, ConnectTimeout)
	if base.Timeout <= 0 || base.Timeout > CallTimeout {
		base.Timeout = CallTimeout
	}
	return &Client{http: &base, callTimeout: CallTimeout}
}

// withConnectTimeout 单独限制拨号阶段的耗时。
func withConnectTimeout(rt http.RoundTripper, timeout time.Duration) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	transport, ok := rt.(*http.Transport)
	if !ok {
		return rt
	}

	cloned := transport.Clone()
	dial := cloned.DialContext
	if dial == nil {
		dial = (&net.Dialer{}).DialContext
	}
	cloned.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		dialCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return dial(dialCtx, network, addr)
	}
	if cloned.TLSHandshakeTimeout <= 0 || cloned.TLSHandshakeTimeout > timeout {
		cloned.TLSHandshakeTimeout = timeout
	}
	return cloned
}

// Ping 探测 REST 发现文档，只检查可达性：
// 返回 200 即算成功，即使凭据无权发文。
func (c *Client) Ping(ctx context.Context, creds Credentials) error {
	endpoint, err := creds.endpoint("/wp-json/wp/v2/")
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.SetBasicAuth(creds.Username, creds.ApplicationPassword)

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return &StatusError{Op: "discover", StatusCode: resp.StatusCode}
	}
	return nil
}

// fetch 下载任意 URL，要求返回 200。
func (c *Client) fetch(ctx context.Context, rawURL string) (*response, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.send(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "fetch image", StatusCode: resp.StatusCode}
	}
	return resp, nil
}

// postJSON 以 basic auth 向站点路由发送 payload。
func (c *Client) postJSON(ctx context.Context, creds Credentials, route string, payload any) (*response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	return c.postBody(ctx, creds, route, "application/json", bytes.NewReader(body))
}

func (c *Client) postBody(ctx context.Context, creds Credentials, route, contentType string, body io.Reader) (*response, error) {
	endpoint, err := creds.endpoint(route)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(creds.Username, creds.ApplicationPassword)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	return c.send(req)
}

// send 执行请求，并在调用上下文结束前读完响应体。
// 截止时间与网络超时统一报告为 ErrTimeout。
func (c *Client) send(req *http.Request) (*response, error) {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classify(req.Context(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, classify(req.Context(), err)
	}
	return &response{StatusCode: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
