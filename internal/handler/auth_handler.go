package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/judgmentpress/internal/db"
	"github.com/judgmentpress/internal/service"
	"github.com/rs/zerolog/log"
)

const (
	sessionUserIDKey = "user_id"
	// ContextUserIDKey 是已认证用户 id 在 gin 上下文中的键。
	ContextUserIDKey = "userID"
	contextUserKey   = "currentUser"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userUpdateRequest struct {
	FullName *string `json:"full_name"`
	Password *string `json:"password"`
}

type userResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	IsActive bool   `json:"is_active"`
}

func newUserResponse(user *db.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		FullName: user.FullName,
		IsActive: user.IsActive,
	}
}

// Login 校验 bcrypt 密码并建立 cookie 会话。
func (a *API) Login(c *gin.Context) {
	var payload loginRequest
	if !bindJSON(c, &payload, "username and password are required") {
		return
	}
	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		respondError(c, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := a.users.Authenticate(payload.Username, payload.Password)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserIDKey, user.ID)
	if err := session.Save(); err != nil {
		log.Error().Err(err).Msg("failed to save session")
		respondError(c, http.StatusInternalServerError, "failed to save session")
		return
	}

	log.Info().Uint("user_id", user.ID).Msg("user logged in")
	c.JSON(http.StatusOK, newUserResponse(user))
}

// Logout 清空会话。
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		log.Warn().Err(err).Msg("failed to clear session")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me 返回当前登录用户。
func (a *API) Me(c *gin.Context) {
	if current, ok := c.Get(contextUserKey); ok {
		if user, ok := current.(*db.User); ok {
			c.JSON(http.StatusOK, newUserResponse(user))
			return
		}
	}

	loaded, err := a.users.ActiveUser(currentUserID(c))
	if err != nil {
		respondAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(loaded))
}

// UpdateMe 部分更新当前用户的姓名与密码。
func (a *API) UpdateMe(c *gin.Context) {
	var payload userUpdateRequest
	if !bindJSON(c, &payload, "invalid user payload") {
		return
	}

	user, err := a.users.UpdateProfile(currentUserID(c), service.ProfileUpdate{
		FullName: payload.FullName,
		Password: payload.Password,
	})
	if err != nil {
		respondAuthError(c, err)
		return
	}
	if payload.Password != nil {
		log.Info().Uint("user_id", user.ID).Msg("user changed password")
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}

// AuthRequired 每次请求都重新加载会话用户：会话缺失或用户不存在返回 401，
// 账号停用返回 403。通过后用户 id 写入 ContextUserIDKey。
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, ok := sessionUserID(session.Get(sessionUserIDKey))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, err := a.users.ActiveUser(userID)
		if err != nil {
			respondAuthError(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserIDKey, user.ID)
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// respondAuthError 把账号相关错误转换为登录接口约定的提示语。
func respondAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Incorrect username or password")
	case errors.Is(err, service.ErrUserNotFound):
		respondError(c, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, service.ErrInactiveUser):
		respondError(c, http.StatusForbidden, "Inactive user")
	default:
		respondServiceError(c, err)
	}
}

func sessionUserID(value interface{}) (uint, bool) {
	switch v := value.(type) {
	case uint:
		return v, v != 0
	case int:
		return uint(v), v > 0
	case int64:
		return uint(v), v > 0
	case uint64:
		return uint(v), v != 0
	default:
		return 0, false
	}
}

func currentUserID(c *gin.Context) uint {
	return c.GetUint(ContextUserIDKey)
}
