package db

import "gorm.io/gorm"

// PostStatus 是文章生命周期状态的封闭枚举。
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid 判断状态是否为已知取值。
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post 定义了博客文章模型。
// Status 为 published 时 WordPressPostID 必然非空，二者只通过一次更新同时写入。
type Post struct {
	gorm.Model
	Title           string     `gorm:"index"`
	Content         string     `gorm:"type:text"`
	Summary         *string    `gorm:"type:text"`
	Keywords        []string   `gorm:"type:text;serializer:json"`
	ImageURL        *string    `gorm:"column:image_url"`
	Status          PostStatus `gorm:"size:16;not null;default:draft;index"`
	WordPressPostID *int64     `gorm:"column:wordpress_post_id"`
	UserID          uint       `gorm:"not null;index"`
}

// IsPublished 表示文章是否已推送到远端站点。
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished && p.WordPressPostID != nil
}
