package middleware

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/retailerp/chitledger/internal/domain/shared"
	"github.com/retailerp/chitledger/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

// PermissionConfig holds configuration for role middleware
type PermissionConfig struct {
	Logger *zap.Logger
}

// RequireRoles creates middleware that admits only actors holding one of roles
func RequireRoles(roles ...shared.Role) gin.HandlerFunc {
	return RequireRolesWithConfig(PermissionConfig{}, roles...)
}

// RequireRolesWithConfig is RequireRoles with custom config
func RequireRolesWithConfig(cfg PermissionConfig, roles ...shared.Role) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return func(c *gin.Context) {
		actor, ok := GetActor(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", GetRequestID(c)))
			return
		}
		if !slices.Contains(roles, actor.Role) {
			log.Warn("role check failed",
				zap.String("user_id", actor.ID),
				zap.String("role", string(actor.Role)),
				zap.String("path", c.FullPath()),
			)
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden, "Insufficient role for this operation", GetRequestID(c)))
			return
		}
		c.Next()
	}
}

// RequireVerifier admits admins and supervisors
func RequireVerifier() gin.HandlerFunc {
	return RequireRoles(shared.RoleAdmin, shared.RoleSupervisor)
}

// RequireAdmin admits admins only
func RequireAdmin() gin.HandlerFunc {
	return RequireRoles(shared.RoleAdmin)
}
