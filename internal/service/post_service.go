package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/judgmentpress/internal/db"
	"gorm.io/gorm"
)

// PostService 封装按所有者隔离的文章数据库操作。
type PostService struct {
	db *gorm.DB
}

// PostFilter 用于筛选文章列表。
type PostFilter struct {
	Status db.PostStatus
}

// PostInput 表示创建文章时接受的字段。
type PostInput struct {
	Title    string
	Content  string
	Summary  *string
	Keywords []string
	ImageURL *string
}

// PostUpdate 为部分更新，nil 字段保持不变。
type PostUpdate struct {
	Title    *string
	Content  *string
	Summary  *string
	Keywords *[]string
	ImageURL *string
}

// NewPostService 创建 PostService 实例。
func NewPostService(gdb *gorm.DB) *PostService {
	return &PostService{db: gdb}
}

// List 按创建时间倒序返回所有者的文章。
func (s *PostService) List(userID uint, filter PostFilter) ([]db.Post, error) {
	query := s.db.Where("user_id = ?", userID)
	if filter.Status != "" {
		if !filter.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, filter.Status)
		}
		query = query.Where("status = ?", filter.Status)
	}

	posts := make([]db.Post, 0)
	if err := query.Order("created_at desc, id desc").Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// Get 按 id 获取文章。属于他人的文章与不存在同样处理，
// 查询条件本身就带有所有者过滤。
func (s *PostService) Get(id, userID uint) (*db.Post, error) {
	var post db.Post
	if err := s.db.Where("id = ? AND user_id = ?", id, userID).First(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

// Create 为 userID 保存一篇新草稿。
func (s *PostService) Create(userID uint, input PostInput) (*db.Post, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	post := db.Post{
		Title:    title,
		Content:  input.Content,
		Summary:  trimmedOrNil(input.Summary),
		Keywords: cleanKeywords(input.Keywords),
		ImageURL: trimmedOrNil(input.ImageURL),
		Status:   db.PostStatusDraft,
		UserID:   userID,
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// Update 对所有者的文章做部分更新。状态与远端 id 无法在此修改，
// 只有 MarkPublished 会写入它们。
func (s *PostService) Update(id, userID uint, input PostUpdate) (*db.Post, error) {
	existing, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		updates["title"] = title
	}
	if input.Content != nil {
		if strings.TrimSpace(*input.Content) == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrInvalidInput)
		}
		updates["content"] = *input.Content
	}
	if input.Summary != nil {
		updates["summary"] = trimmedOrNil(input.Summary)
	}
	if input.ImageURL != nil {
		updates["image_url"] = trimmedOrNil(input.ImageURL)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&db.Post{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates).Error; err != nil {
				return err
			}
		}
		if input.Keywords != nil {
			// json 序列化器只在结构体路径上生效
			existing.Keywords = cleanKeywords(*input.Keywords)
			if err := tx.Model(existing).Select("keywords").Updates(existing).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id, userID)
}

// Delete 删除所有者的文章，影响行数为 0 视为不存在。
func (s *PostService) Delete(id, userID uint) error {
	result := s.db.Where("id = ? AND user_id = ?", id, userID).Delete(&db.Post{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPostNotFound
	}
	return nil
}

// MarkPublished 记录一次成功的远端发布，状态与远端 id
// 在同一条语句中更新，要么都成功要么都不变。
func (s *PostService) MarkPublished(id, userID uint, remoteID int64) (*db.Post, error) {
	if remoteID <= 0 {
		return nil, ErrPublishedWithoutRemote
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&db.Post{}).
			Where("id = ? AND user_id = ?", id, userID).
			Updates(map[string]interface{}{
				"status":            db.PostStatusPublished,
				"wordpress_post_id": remoteID,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrPostNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(id, userID)
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func cleanKeywords(keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}
	cleaned := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if trimmed := strings.TrimSpace(keyword); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	return cleaned
}
