package service

import (
	"errors"
	"fmt"
)

// 流水线错误类型。各阶段错误会把其中之一与底层原因一起包装，
// 调用方用 errors.Is 匹配。
var (
	ErrUnsupportedFormat      = errors.New("unsupported document format")
	ErrExtraction             = errors.New("document extraction failed")
	ErrTransformationFailed   = errors.New("content transformation failed")
	ErrImageGenerationFailed  = errors.New("image generation failed")
	ErrPostNotFound           = errors.New("post not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrUserNotFound           = errors.New("user not found")
	ErrInvalidCredentials     = errors.New("incorrect username or password")
	ErrAIAPIKeyMissing        = errors.New("api key is required")
	ErrEmptyModelResponse     = errors.New("model returned empty content")
	ErrPublishedWithoutRemote = errors.New("published status requires a remote id")
)

// ErrInactiveUser 表示账号已被停用，仍可通过 errors.Is 匹配 ErrForbidden。
var ErrInactiveUser = fmt.Errorf("%w: inactive user", ErrForbidden)
