package db

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrUserExists 表示用户名已被占用。
var ErrUserExists = errors.New("user already exists")

// User 定义了用户模型，同时保存该用户的 WordPress 发布凭据。
type User struct {
	gorm.Model
	Username            string `gorm:"unique;not null"`
	Password            string `gorm:"not null"`
	FullName            string
	IsActive            bool   `gorm:"default:true"`
	WordPressURL        string `gorm:"column:wordpress_url"`
	WordPressUsername   string `gorm:"column:wordpress_username"`
	WordPressPassword   string `gorm:"column:wordpress_password"`
	WordPressPostStatus string `gorm:"column:wordpress_post_status;size:16"`
}

// CreateUser 以 bcrypt 哈希保存新用户，用户名重复时返回 ErrUserExists。
func CreateUser(gdb *gorm.DB, username, password, fullName string) (*User, error) {
	trimmedUser := strings.TrimSpace(username)
	trimmedPassword := strings.TrimSpace(password)
	if trimmedUser == "" || trimmedPassword == "" {
		return nil, errors.New("username and password are required")
	}

	var existing User
	err := gdb.Where("username = ?", trimmedUser).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := HashPassword(trimmedPassword)
	if err != nil {
		return nil, err
	}

	user := User{
		Username: trimmedUser,
		Password: hashed,
		FullName: strings.TrimSpace(fullName),
		IsActive: true,
	}
	if err := gdb.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// EnsureUser 存在性检查：若提供的用户名与密码均非空且不存在对应账号，则创建一个 bcrypt 哈希的用户。
func EnsureUser(gdb *gorm.DB, username, password string) error {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(password) == "" {
		return nil
	}
	if gdb == nil {
		return errors.New("database not initialized")
	}

	if _, err := CreateUser(gdb, username, password, ""); err != nil && !errors.Is(err, ErrUserExists) {
		return err
	}
	return nil
}

// CheckPassword 校验明文密码是否与存储的哈希匹配。
func (u User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

// HashPassword 生成用于存储的 bcrypt 哈希。
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
