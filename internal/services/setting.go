package services

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
)

const (
	settingCachePrefix = "setting."
	defaultGroup       = "general"
)

var leadingInteger = regexp.MustCompile(`^[+-]?\d+`)

type SettingServiceInterface interface {
	// Get возвращает приведённое значение или def, если ключа нет.
	Get(ctx context.Context, key string, def interface{}) interface{}
	GetBool(ctx context.Context, key string, def bool) bool
	GetInt(ctx context.Context, key string, def int64) int64
	Show(ctx context.Context, key string) (*dto.SettingDTO, error)
	Set(ctx context.Context, key string, payload dto.UpdateSettingDTO) (*dto.SettingDTO, error)
	GetByGroup(ctx context.Context, group string) ([]dto.SettingDTO, error)
	GetPublic(ctx context.Context) (map[string]interface{}, error)
	ClearCache(ctx context.Context) error
}

type SettingService struct {
	settingRepo repositories.SettingRepositoryInterface
	cacheRepo   repositories.CacheRepositoryInterface
	validator   Validator
	cacheTTL    time.Duration
	logger      *zap.Logger
}

func NewSettingService(
	settingRepo repositories.SettingRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	validator Validator,
	cacheTTL time.Duration,
	logger *zap.Logger,
) SettingServiceInterface {
	return &SettingService{
		settingRepo: settingRepo,
		cacheRepo:   cacheRepo,
		validator:   validator,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// cachedSetting - в кеше лежит сырое значение и тип, приведение делается на каждом чтении.
type cachedSetting struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// CastValue приводит строковое значение к типу настройки.
func CastValue(value, typ string) interface{} {
	switch typ {
	case entities.SettingTypeBoolean:
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	case entities.SettingTypeInteger:
		digits := leadingInteger.FindString(strings.TrimSpace(value))
		if digits == "" {
			return int64(0)
		}
		// при переполнении ParseInt возвращает границу диапазона
		n, _ := strconv.ParseInt(digits, 10, 64)
		return n
	case entities.SettingTypeJSON:
		var decoded interface{}
		if err := json.Unmarshal([]byte(value), &decoded); err != nil {
			return nil
		}
		return decoded
	default:
		return value
	}
}

func (s *SettingService) lookup(ctx context.Context, key string) (*cachedSetting, error) {
	cacheKey := settingCachePrefix + key

	raw, err := s.cacheRepo.Get(ctx, cacheKey)
	if err == nil {
		var cached cachedSetting
		if err := json.Unmarshal([]byte(raw), &cached); err == nil {
			return &cached, nil
		}
		s.logger.Warn("Повреждённая запись настройки в кеше", zap.String("key", cacheKey))
	} else if !errors.Is(err, repositories.ErrCacheMiss) {
		s.logger.Warn("Кеш настроек недоступен, читаем из БД", zap.String("key", key), zap.Error(err))
	}

	setting, err := s.settingRepo.FindByKey(ctx, key)
	if err != nil {
		// отсутствие ключа не кешируется
		return nil, err
	}

	cached := cachedSetting{Value: setting.Value, Type: setting.Type}
	if data, err := json.Marshal(cached); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, string(data), s.cacheTTL); err != nil {
			s.logger.Warn("Не удалось сохранить настройку в кеш", zap.String("key", key), zap.Error(err))
		}
	}
	return &cached, nil
}

func (s *SettingService) Get(ctx context.Context, key string, def interface{}) interface{} {
	cached, err := s.lookup(ctx, key)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("Не удалось прочитать настройку", zap.String("key", key), zap.Error(err))
		}
		return def
	}
	return CastValue(cached.Value, cached.Type)
}

func (s *SettingService) GetBool(ctx context.Context, key string, def bool) bool {
	switch v := s.Get(ctx, key, def).(type) {
	case bool:
		return v
	case string:
		return CastValue(v, entities.SettingTypeBoolean).(bool)
	default:
		return def
	}
}

func (s *SettingService) GetInt(ctx context.Context, key string, def int64) int64 {
	switch v := s.Get(ctx, key, def).(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		return CastValue(v, entities.SettingTypeInteger).(int64)
	default:
		return def
	}
}

func toSettingDTO(setting *entities.Setting) dto.SettingDTO {
	return dto.SettingDTO{
		Key:         setting.Key,
		Value:       CastValue(setting.Value, setting.Type),
		Type:        setting.Type,
		Description: setting.Description,
		Group:       setting.Group,
		IsPublic:    setting.IsPublic,
	}
}

func (s *SettingService) Show(ctx context.Context, key string) (*dto.SettingDTO, error) {
	setting, err := s.settingRepo.FindByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	result := toSettingDTO(setting)
	return &result, nil
}

// Set создаёт или обновляет настройку и сбрасывает её кеш.
// Не переданные type, description, group и is_public берутся из существующей записи.
func (s *SettingService) Set(ctx context.Context, key string, payload dto.UpdateSettingDTO) (*dto.SettingDTO, error) {
	key = strings.TrimSpace(key)
	verr, err := startValidation(s.validator, &payload)
	if err != nil {
		return nil, err
	}
	if key == "" {
		verr.Add("key", "The key field is required.")
	}

	setting, err := s.settingRepo.FindByKey(ctx, key)
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		setting = &entities.Setting{Key: key, Type: entities.SettingTypeString, Group: defaultGroup}
	case err != nil:
		return nil, err
	}

	setting.Value = payload.Value
	if payload.Type.Valid && payload.Type.String != "" {
		setting.Type = payload.Type.String
	}
	if payload.Description.Valid {
		setting.Description = payload.Description.String
	}
	if payload.Group.Valid && strings.TrimSpace(payload.Group.String) != "" {
		setting.Group = strings.TrimSpace(payload.Group.String)
	}
	if payload.IsPublic != nil {
		setting.IsPublic = *payload.IsPublic
	}

	if setting.Type == entities.SettingTypeJSON && !json.Valid([]byte(setting.Value)) && !fieldFailed(verr, "value") {
		verr.Add("value", "The value must be a valid JSON string.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if err := s.settingRepo.Upsert(ctx, setting); err != nil {
		return nil, err
	}
	if err := s.cacheRepo.Del(ctx, settingCachePrefix+key); err != nil {
		s.logger.Error("Не удалось сбросить кеш настройки", zap.String("key", key), zap.Error(err))
	}

	s.logger.Info("Настройка сохранена", zap.String("key", key), zap.String("type", setting.Type))
	result := toSettingDTO(setting)
	return &result, nil
}

func (s *SettingService) GetByGroup(ctx context.Context, group string) ([]dto.SettingDTO, error) {
	if strings.TrimSpace(group) == "" {
		group = defaultGroup
	}
	settings, err := s.settingRepo.ListByGroup(ctx, group)
	if err != nil {
		return nil, err
	}
	result := make([]dto.SettingDTO, 0, len(settings))
	for i := range settings {
		result = append(result, toSettingDTO(&settings[i]))
	}
	return result, nil
}

// GetPublic - ключ -> приведённое значение, без кеша.
func (s *SettingService) GetPublic(ctx context.Context) (map[string]interface{}, error) {
	settings, err := s.settingRepo.ListPublic(ctx)
	if err != nil {
		return nil, err
	}
	result := make(map[string]interface{}, len(settings))
	for _, setting := range settings {
		result[setting.Key] = CastValue(setting.Value, setting.Type)
	}
	return result, nil
}

func (s *SettingService) ClearCache(ctx context.Context) error {
	keys, err := s.settingRepo.ListKeys(ctx)
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	cacheKeys := make([]string, 0, len(keys))
	for _, k := range keys {
		cacheKeys = append(cacheKeys, settingCachePrefix+k)
	}
	if err := s.cacheRepo.Del(ctx, cacheKeys...); err != nil {
		return err
	}
	s.logger.Info("Кеш настроек очищен", zap.Int("keys", len(cacheKeys)))
	return nil
}
