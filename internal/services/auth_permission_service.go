package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
)

type AuthPermissionServiceInterface interface {
	// GetActor - роли и права пользователя, через кеш.
	GetActor(ctx context.Context, userID uint64) (*authz.Actor, error)
	InvalidateUserPermissionsCache(ctx context.Context, userID uint64) error
}

type AuthPermissionService struct {
	permissionRepo repositories.PermissionRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	logger         *zap.Logger
	cacheTTL       time.Duration
}

func NewAuthPermissionService(
	permissionRepo repositories.PermissionRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
	cacheTTL time.Duration,
) AuthPermissionServiceInterface {
	return &AuthPermissionService{
		permissionRepo: permissionRepo,
		cacheRepo:      cacheRepo,
		logger:         logger,
		cacheTTL:       cacheTTL,
	}
}

type cachedAccess struct {
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

func permissionsCacheKey(userID uint64) string {
	return fmt.Sprintf("auth:permissions:user:%d", userID)
}

func (a cachedAccess) actor(userID uint64) *authz.Actor {
	perms := make(map[string]bool, len(a.Permissions))
	for _, p := range a.Permissions {
		perms[p] = true
	}
	return &authz.Actor{ID: userID, Roles: a.Roles, Permissions: perms}
}

func (s *AuthPermissionService) GetActor(ctx context.Context, userID uint64) (*authz.Actor, error) {
	cacheKey := permissionsCacheKey(userID)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil {
		var access cachedAccess
		if err := json.Unmarshal([]byte(cached), &access); err == nil {
			return access.actor(userID), nil
		}
		s.logger.Warn("Ошибка при десериализации прав из кеша", zap.String("key", cacheKey))
	}

	roles, err := s.permissionRepo.GetUserRoleNames(ctx, userID)
	if err != nil {
		s.logger.Error("Не удалось получить роли пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}
	permissions, err := s.permissionRepo.GetAllUserPermissionsNames(ctx, userID)
	if err != nil {
		s.logger.Error("Не удалось получить права пользователя", zap.Uint64("userID", userID), zap.Error(err))
		return nil, apperrors.ErrInternalServer
	}

	access := cachedAccess{Roles: roles, Permissions: permissions}
	if data, err := json.Marshal(access); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, string(data), s.cacheTTL); err != nil {
			s.logger.Warn("Не удалось сохранить права в кеш", zap.Uint64("userID", userID), zap.Error(err))
		}
	}
	return access.actor(userID), nil
}

func (s *AuthPermissionService) InvalidateUserPermissionsCache(ctx context.Context, userID uint64) error {
	if err := s.cacheRepo.Del(ctx, permissionsCacheKey(userID)); err != nil {
		s.logger.Error("Ошибка инвалидации кеша прав", zap.Uint64("userID", userID), zap.Error(err))
		return err
	}
	return nil
}
