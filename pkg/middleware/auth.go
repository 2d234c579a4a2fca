package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/pkg/contextkeys"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/service"
	"school-system/pkg/utils"
)

// ActorLoader отдаёт роли и права пользователя.
type ActorLoader interface {
	GetActor(ctx context.Context, userID uint64) (*authz.Actor, error)
}

type AuthMiddleware struct {
	jwtService service.JWTService
	actors     ActorLoader
	logger     *zap.Logger
}

func NewAuthMiddleware(jwtSvc service.JWTService, actors ActorLoader, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtSvc,
		actors:     actors,
		logger:     logger,
	}
}

func bearerToken(c echo.Context) (string, error) {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		// браузерный WebSocket не умеет слать заголовки
		if token := c.QueryParam("token"); token != "" {
			return token, nil
		}
		return "", apperrors.ErrEmptyAuthHeader
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.ErrInvalidAuthHeader
	}
	return parts[1], nil
}

// Auth проверяет токен и кладёт в контекст запроса UserID, роли и карту прав.
func (m *AuthMiddleware) Auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := bearerToken(c)
		if err != nil {
			m.logger.Debug("AuthMiddleware: нет токена", zap.Error(err))
			return utils.ErrorResponse(c, err, nil)
		}

		claims, err := m.jwtService.ValidateToken(token)
		if err != nil {
			m.logger.Debug("AuthMiddleware: ошибка валидации токена", zap.Error(err))
			return utils.ErrorResponse(c, err, nil)
		}

		ctx := c.Request().Context()
		actor, err := m.actors.GetActor(ctx, claims.UserID)
		if err != nil {
			return utils.ErrorResponse(c, err, m.logger)
		}

		ctx = context.WithValue(ctx, contextkeys.UserIDKey, claims.UserID)
		ctx = context.WithValue(ctx, contextkeys.UserRolesKey, actor.Roles)
		ctx = context.WithValue(ctx, contextkeys.UserPermissionsMapKey, actor.Permissions)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RequirePermission пропускает только пользователей с указанным правом. Ставится после Auth.
func RequirePermission(permission string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			perms, err := utils.GetPermissionsMapFromCtx(c.Request().Context())
			if err != nil || !perms[permission] {
				return utils.ErrorResponse(c, apperrors.ErrForbidden, nil)
			}
			return next(c)
		}
	}
}
