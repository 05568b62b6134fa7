package api

import (
	"context"

	apperrors "github.com/wfunc/floran-server/internal/errors"
	"github.com/wfunc/floran-server/internal/models"
	"github.com/wfunc/floran-server/internal/service"
	ws "github.com/wfunc/floran-server/internal/websocket"
)

// tokenValidator 把认证服务适配成连接层的令牌校验器
type tokenValidator struct {
	authService service.AuthService
	userService service.UserService
}

// NewTokenValidator 创建WebSocket令牌校验器
func NewTokenValidator(authService service.AuthService, userService service.UserService) ws.TokenValidator {
	return &tokenValidator{
		authService: authService,
		userService: userService,
	}
}

// Validate 校验令牌与会话，并确认账号可登录
func (v *tokenValidator) Validate(ctx context.Context, token, sessionID string) (*ws.Identity, error) {
	claims, err := v.authService.ValidateToken(ctx, token)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}
	if sessionID != "" && sessionID != claims.SessionID {
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}

	user, err := v.userService.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrTokenInvalid)
	}
	switch user.Status {
	case models.UserStatusBanned:
		return nil, apperrors.New(apperrors.ErrAccountBanned)
	case models.UserStatusFrozen:
		return nil, apperrors.New(apperrors.ErrAccountFrozen)
	}

	return &ws.Identity{
		UserID:    claims.UserID,
		Username:  claims.Username,
		SessionID: claims.SessionID,
		Role:      claims.Role,
	}, nil
}
