package repositories

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"school-system/internal/entities"
	apperrors "school-system/pkg/errors"
)

var settingColumns = []string{"id", "key", "value", "type", "description", `"group"`, "is_public", "created_at", "updated_at"}

type SettingRepositoryInterface interface {
	FindByKey(ctx context.Context, key string) (*entities.Setting, error)
	// Upsert вставляет или обновляет строку по ключу
	Upsert(ctx context.Context, s *entities.Setting) error
	ListByGroup(ctx context.Context, group string) ([]entities.Setting, error)
	ListPublic(ctx context.Context) ([]entities.Setting, error)
	ListKeys(ctx context.Context) ([]string, error)
}

type SettingRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewSettingRepository(storage *pgxpool.Pool, logger *zap.Logger) SettingRepositoryInterface {
	return &SettingRepository{storage: storage, logger: logger}
}

func scanSetting(row pgx.Row) (entities.Setting, error) {
	var s entities.Setting
	err := row.Scan(&s.ID, &s.Key, &s.Value, &s.Type, &s.Description, &s.Group, &s.IsPublic, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

func (r *SettingRepository) FindByKey(ctx context.Context, key string) (*entities.Setting, error) {
	query, args, err := psql.Select(settingColumns...).From("settings").Where(sq.Eq{"key": key}).ToSql()
	if err != nil {
		return nil, err
	}
	s, err := scanSetting(r.storage.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("настройка %s: %w", key, err)
	}
	return &s, nil
}

func (r *SettingRepository) Upsert(ctx context.Context, s *entities.Setting) error {
	query := `
		INSERT INTO settings (key, value, type, description, "group", is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, type = EXCLUDED.type, description = EXCLUDED.description,
		    "group" = EXCLUDED."group", is_public = EXCLUDED.is_public, updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	return r.storage.QueryRow(ctx, query, s.Key, s.Value, s.Type, s.Description, s.Group, s.IsPublic).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *SettingRepository) list(ctx context.Context, where sq.Sqlizer) ([]entities.Setting, error) {
	query, args, err := psql.Select(settingColumns...).From("settings").Where(where).OrderBy("key").ToSql()
	if err != nil {
		return nil, err
	}
	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("список настроек: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Setting, error) {
		return scanSetting(row)
	})
}

func (r *SettingRepository) ListByGroup(ctx context.Context, group string) ([]entities.Setting, error) {
	return r.list(ctx, sq.Eq{`"group"`: group})
}

func (r *SettingRepository) ListPublic(ctx context.Context) ([]entities.Setting, error) {
	return r.list(ctx, sq.Eq{"is_public": true})
}

func (r *SettingRepository) ListKeys(ctx context.Context) ([]string, error) {
	rows, err := r.storage.Query(ctx, `SELECT key FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
