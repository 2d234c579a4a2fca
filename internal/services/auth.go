package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/service"
	"school-system/pkg/utils"
)

const (
	defaultMaxLoginAttempts = 5
	defaultLockoutMinutes   = 15
)

type AuthServiceInterface interface {
	Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error)
	Me(ctx context.Context) (*dto.UserProfileDTO, error)
}

type AuthService struct {
	userRepo       repositories.UserRepositoryInterface
	cacheRepo      repositories.CacheRepositoryInterface
	permissionSvc  AuthPermissionServiceInterface
	settingService SettingServiceInterface
	jwtService     service.JWTService
	validator      Validator
	logger         *zap.Logger
}

func NewAuthService(
	userRepo repositories.UserRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	permissionSvc AuthPermissionServiceInterface,
	settingService SettingServiceInterface,
	jwtService service.JWTService,
	validator Validator,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		userRepo:       userRepo,
		cacheRepo:      cacheRepo,
		permissionSvc:  permissionSvc,
		settingService: settingService,
		jwtService:     jwtService,
		validator:      validator,
		logger:         logger,
	}
}

func loginAttemptsKey(email string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(email))
}

// Login: после max_login_attempts неудач подряд вход блокируется на lockout_duration минут.
func (s *AuthService) Login(ctx context.Context, payload dto.LoginDTO) (*dto.AuthResponseDTO, error) {
	if err := s.validator.Validate(&payload); err != nil {
		return nil, err
	}
	logger := s.logger.With(zap.String("email", payload.Email))

	maxAttempts := s.settingService.GetInt(ctx, "max_login_attempts", defaultMaxLoginAttempts)
	lockout := time.Duration(s.settingService.GetInt(ctx, "lockout_duration", defaultLockoutMinutes)) * time.Minute
	key := loginAttemptsKey(payload.Email)

	if raw, err := s.cacheRepo.Get(ctx, key); err == nil {
		if attempts := CastValue(raw, entities.SettingTypeInteger).(int64); maxAttempts > 0 && attempts >= maxAttempts {
			logger.Warn("Слишком много попыток входа")
			return nil, apperrors.NewHttpError(
				http.StatusTooManyRequests,
				fmt.Sprintf("Too many login attempts. Please try again in %d minutes.", int(lockout.Minutes())),
				nil,
				nil,
			)
		}
	}

	user, err := s.userRepo.FindByEmail(ctx, strings.TrimSpace(payload.Email))
	if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	if user == nil || utils.ComparePasswords(user.Password, payload.Password) != nil {
		s.registerFailure(ctx, key, lockout)
		logger.Info("Неверные учётные данные")
		return nil, apperrors.ErrInvalidCredentials
	}
	_ = s.cacheRepo.Del(ctx, key)

	token, err := s.jwtService.GenerateAccessToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("выпуск токена: %w", err)
	}
	profile, err := s.profile(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("Пользователь вошёл", zap.Uint64("userID", user.ID))
	return &dto.AuthResponseDTO{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.GetAccessTokenTTL().Seconds()),
		User:        *profile,
	}, nil
}

func (s *AuthService) registerFailure(ctx context.Context, key string, lockout time.Duration) {
	attempts, err := s.cacheRepo.Incr(ctx, key)
	if err != nil {
		s.logger.Warn("Не удалось учесть неудачную попытку входа", zap.Error(err))
		return
	}
	if attempts == 1 {
		_, _ = s.cacheRepo.Expire(ctx, key, lockout)
	}
}

func (s *AuthService) Me(ctx context.Context) (*dto.UserProfileDTO, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil, apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	return s.profile(ctx, user)
}

func (s *AuthService) profile(ctx context.Context, user *entities.User) (*dto.UserProfileDTO, error) {
	actor, err := s.permissionSvc.GetActor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	permissions := make([]string, 0, len(actor.Permissions))
	for p := range actor.Permissions {
		permissions = append(permissions, p)
	}
	sort.Strings(permissions)
	roles := actor.Roles
	if roles == nil {
		roles = []string{}
	}
	return &dto.UserProfileDTO{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Roles:       roles,
		Permissions: permissions,
	}, nil
}
