package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/wordpress"
	"gorm.io/gorm"
)

// WordPressPostType 是发布时唯一使用的远端内容类型。
const WordPressPostType = "post"

var allowedRemoteStatuses = []string{"publish", "draft", "pending", "private"}

// WordPressSettings 描述用户保存的 WordPress 发布目标。
type WordPressSettings struct {
	SiteURL             string
	Username            string
	ApplicationPassword string
	PostType            string
	PostStatus          string
}

// Credentials 将设置转换为发布凭据。
func (s WordPressSettings) Credentials() wordpress.Credentials {
	return wordpress.Credentials{
		SiteURL:             s.SiteURL,
		Username:            s.Username,
		ApplicationPassword: s.ApplicationPassword,
		PostStatus:          s.PostStatus,
	}
}

// ConnectionResult 是连接测试的结果。
type ConnectionResult struct {
	Success bool
	Message string
}

type sitePinger interface {
	Ping(ctx context.Context, creds wordpress.Credentials) error
}

// WordPressSettingsService 提供用户 WordPress 凭据的读取、更新与连通性测试。
type WordPressSettingsService struct {
	db          *gorm.DB
	pinger      sitePinger
	validateURL func(string) error
}

func NewWordPressSettingsService(gdb *gorm.DB, pinger sitePinger) *WordPressSettingsService {
	return &WordPressSettingsService{db: gdb, pinger: pinger}
}

// SetURLValidator 为站点地址增加额外校验，例如 SSRF 防护。
func (s *WordPressSettingsService) SetURLValidator(fn func(string) error) {
	s.validateURL = fn
}

// Get 返回已保存的设置，缺失项为空值。
func (s *WordPressSettingsService) Get(userID uint) (WordPressSettings, error) {
	user, err := s.loadUser(s.db, userID)
	if err != nil {
		return WordPressSettings{}, err
	}
	return settingsFromUser(user), nil
}

// Update 覆盖用户的凭据。设置从不删除，
// 留空只会让发布处于未配置状态。
func (s *WordPressSettingsService) Update(userID uint, input WordPressSettings) (WordPressSettings, error) {
	siteURL := strings.TrimRight(strings.TrimSpace(input.SiteURL), "/")
	if siteURL != "" {
		if err := s.checkSiteURL(siteURL); err != nil {
			return WordPressSettings{}, err
		}
	}

	postStatus, err := normalizeRemoteStatus(input.PostStatus)
	if err != nil {
		return WordPressSettings{}, err
	}
	if postType := strings.TrimSpace(input.PostType); postType != "" && postType != WordPressPostType {
		return WordPressSettings{}, fmt.Errorf("%w: unsupported post type %q", ErrInvalidInput, postType)
	}

	var updated db.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		user, err := s.loadUser(tx, userID)
		if err != nil {
			return err
		}
		if err := tx.Model(user).Updates(map[string]interface{}{
			"wordpress_url":         siteURL,
			"wordpress_username":    strings.TrimSpace(input.Username),
			"wordpress_password":    strings.TrimSpace(input.ApplicationPassword),
			"wordpress_post_status": postStatus,
		}).Error; err != nil {
			return err
		}
		return tx.First(&updated, userID).Error
	})
	if err != nil {
		return WordPressSettings{}, err
	}
	return settingsFromUser(&updated), nil
}

// Credentials 加载 userID 的发布凭据。
func (s *WordPressSettingsService) Credentials(userID uint) (wordpress.Credentials, error) {
	settings, err := s.Get(userID)
	if err != nil {
		return wordpress.Credentials{}, err
	}
	return settings.Credentials(), nil
}

// TestConnection 使用给定设置探测站点的 REST 发现接口，
// 失败写入返回结果而不是作为 error 返回。
func (s *WordPressSettingsService) TestConnection(ctx context.Context, input WordPressSettings) ConnectionResult {
	siteURL := strings.TrimSpace(input.SiteURL)
	if siteURL == "" {
		return ConnectionResult{Message: "Site URL is required"}
	}
	if err := s.checkSiteURL(siteURL); err != nil {
		return ConnectionResult{Message: fmt.Sprintf("Connection error: %v", err)}
	}
	if s.pinger == nil {
		return ConnectionResult{Message: "Connection test is not available"}
	}

	creds := input.Credentials()
	creds.SiteURL = siteURL
	if err := s.pinger.Ping(ctx, creds); err != nil {
		var statusErr *wordpress.StatusError
		if errors.As(err, &statusErr) {
			return ConnectionResult{Message: fmt.Sprintf("Failed to connect to WordPress. Status code: %d", statusErr.StatusCode)}
		}
		return ConnectionResult{Message: fmt.Sprintf("Connection error: %v", err)}
	}
	return ConnectionResult{Success: true, Message: "Successfully connected to WordPress"}
}

func (s *WordPressSettingsService) loadUser(tx *gorm.DB, userID uint) (*db.User, error) {
	var user db.User
	if err := tx.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *WordPressSettingsService) checkSiteURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: site url must be an absolute http(s) url", ErrInvalidInput)
	}
	if s.validateURL != nil {
		if err := s.validateURL(raw); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}
	return nil
}

func normalizeRemoteStatus(status string) (string, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		return wordpress.DefaultPostStatus, nil
	}
	for _, allowed := range allowedRemoteStatuses {
		if status == allowed {
			return status, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported post status %q", ErrInvalidInput, status)
}

func settingsFromUser(user *db.User) WordPressSettings {
	status := user.WordPressPostStatus
	if strings.TrimSpace(status) == "" {
		status = wordpress.DefaultPostStatus
	}
	return WordPressSettings{
		SiteURL:             user.WordPressURL,
		Username:            user.WordPressUsername,
		ApplicationPassword: user.WordPressPassword,
		PostType:            WordPressPostType,
		PostStatus:          status,
	}
}
