package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xiebiao/bookorder/internal/domain/order"
	apperrors "github.com/xiebiao/bookorder/pkg/errors"
	"github.com/xiebiao/bookorder/pkg/jwt"
	"github.com/xiebiao/bookorder/pkg/response"
)

const actorKey = "actor"

// AuthMiddleware JWT认证中间件
// 1. 从Header提取Token
// 2. 验证Token有效性
// 3. 将操作者(邮箱+角色)注入Context
type AuthMiddleware struct {
	jwtManager *jwt.Manager
}

// NewAuthMiddleware 创建认证中间件
func NewAuthMiddleware(jwtManager *jwt.Manager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth 要求登录
//
//	authorized := r.Group("/api/v1")
//	authorized.Use(authMiddleware.RequireAuth())
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 格式:Authorization: Bearer <token>
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			response.Abort(c, apperrors.ErrInvalidToken)
			return
		}

		claims, err := m.jwtManager.ParseToken(strings.TrimSpace(parts[1]))
		if err != nil {
			response.Abort(c, err)
			return
		}

		c.Set(actorKey, actorFromClaims(claims))
		c.Next()
	}
}

// RequireAdmin 要求管理员,必须在RequireAuth之后使用
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			response.Abort(c, apperrors.ErrUnauthorized)
			return
		}
		if !actor.IsAdmin() {
			response.Abort(c, apperrors.ErrForbidden)
			return
		}
		c.Next()
	}
}

// actorFromClaims 只有ADMIN会映射为管理员,Token不能声明系统身份
func actorFromClaims(claims *jwt.Claims) order.Actor {
	role := order.RoleUser
	if strings.EqualFold(claims.Role, string(order.RoleAdmin)) {
		role = order.RoleAdmin
	}
	return order.Actor{Email: claims.Email, Role: role}
}

// GetActor 从Context获取当前操作者
func GetActor(c *gin.Context) (order.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return order.Actor{}, false
	}
	actor, ok := v.(order.Actor)
	return actor, ok
}
