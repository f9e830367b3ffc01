package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/judgmentpress/internal/db"
	"gorm.io/gorm"
)

// UserService 负责登录校验、会话用户加载与个人资料更新。
type UserService struct {
	db *gorm.DB
}

// ProfileUpdate 为部分更新，nil 字段保持不变。
type ProfileUpdate struct {
	FullName *string
	Password *string
}

// NewUserService 创建 UserService 实例。
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{db: gdb}
}

// Authenticate 校验用户名与密码；密码正确但账号停用时返回 ErrInactiveUser。
func (s *UserService) Authenticate(username, password string) (*db.User, error) {
	var user db.User
	err := s.db.Where("username = ?", strings.TrimSpace(username)).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return &user, nil
}

// ActiveUser 按 id 加载仍处于启用状态的用户。
func (s *UserService) ActiveUser(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return &user, nil
}

// UpdateProfile 修改姓名和/或密码，新密码以 bcrypt 重新哈希。
func (s *UserService) UpdateProfile(id uint, input ProfileUpdate) (*db.User, error) {
	updates := map[string]interface{}{}
	if input.FullName != nil {
		updates["full_name"] = strings.TrimSpace(*input.FullName)
	}
	if input.Password != nil {
		password := strings.TrimSpace(*input.Password)
		if password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", ErrInvalidInput)
		}
		hashed, err := db.HashPassword(password)
		if err != nil {
			return nil, err
		}
		updates["password"] = hashed
	}

	user, err := s.ActiveUser(id)
	if err != nil {
		return nil, err
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.ActiveUser(id)
}
