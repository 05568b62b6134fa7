package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/wfunc/floran-server/internal/service"
)

// AuthMiddleware JWT认证中间件
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// RequireAuth 需要认证的中间件
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.authenticate(c) == nil {
			return
		}
		c.Next()
	}
}

// RequireRole 需要特定角色的中间件
func (m *AuthMiddleware) RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := m.authenticate(c)
		if claims == nil {
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{
			"code":    "INSUFFICIENT_PERMISSION",
			"message": "权限不足",
		})
		c.Abort()
	}
}

// authenticate 提取并校验令牌，失败时写出401并中止请求
func (m *AuthMiddleware) authenticate(c *gin.Context) *service.TokenClaims {
	token := extractToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "NO_TOKEN",
			"message": "缺少认证令牌",
		})
		c.Abort()
		return nil
	}

	claims, err := m.authService.ValidateToken(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    "INVALID_TOKEN",
			"message": "无效的令牌",
			"details": err.Error(),
		})
		c.Abort()
		return nil
	}

	c.Set("userID", claims.UserID)
	c.Set("username", claims.Username)
	c.Set("role", claims.Role)
	c.Set("sessionID", claims.SessionID)
	c.Set("token", token)
	return claims
}

// extractToken 依次尝试Bearer头、X-Access-Token头、Cookie与查询参数
func extractToken(c *gin.Context) string {
	if bearer := c.GetHeader("Authorization"); bearer != "" {
		parts := strings.Split(bearer, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if token := c.GetHeader("X-Access-Token"); token != "" {
		return token
	}

	if token, err := c.Cookie("access_token"); err == nil && token != "" {
		return token
	}

	return c.Query("token")
}

// GetUserID 从上下文获取认证后的用户ID
func GetUserID(c *gin.Context) (uint, bool) {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(uint); ok {
			return id, true
		}
	}
	return 0, false
}
