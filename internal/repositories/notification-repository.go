package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"school-system/internal/entities"
	apperrors "school-system/pkg/errors"
)

type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *entities.Notification) error
	ListForUser(ctx context.Context, userID uint64, limit uint64) ([]entities.Notification, error)
	CountUnread(ctx context.Context, userID uint64) (uint64, error)
	// MarkRead идемпотентен: уже прочитанное остаётся прочитанным с прежним read_at.
	MarkRead(ctx context.Context, userID, id uint64) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type NotificationRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewNotificationRepository(storage *pgxpool.Pool, logger *zap.Logger) NotificationRepositoryInterface {
	return &NotificationRepository{storage: storage, logger: logger}
}

const notificationFields = "id, user_id, type, title, message, icon, action_url, read, read_at, data, created_at, updated_at"

func (r *NotificationRepository) Create(ctx context.Context, n *entities.Notification) error {
	query := `
		INSERT INTO notifications (user_id, type, title, message, icon, action_url, read, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`
	data := n.Data
	if len(data) == 0 {
		data = []byte("{}")
	}
	err := r.storage.QueryRow(ctx, query,
		n.UserID, n.Type, n.Title, n.Message, n.Icon, n.ActionURL, string(data),
	).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return fmt.Errorf("создание уведомления для пользователя %d: %w", n.UserID, err)
	}
	return nil
}

func (r *NotificationRepository) ListForUser(ctx context.Context, userID uint64, limit uint64) ([]entities.Notification, error) {
	query := `SELECT ` + notificationFields + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`
	rows, err := r.storage.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("уведомления пользователя %d: %w", userID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (entities.Notification, error) {
		var n entities.Notification
		var data []byte
		err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Icon, &n.ActionURL,
			&n.Read, &n.ReadAt, &data, &n.CreatedAt, &n.UpdatedAt)
		n.Data = data
		return n, err
	})
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uint64) (uint64, error) {
	var count uint64
	err := r.storage.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read = FALSE`, userID).Scan(&count)
	return count, err
}

// MarkRead меняет строку только при первом прочтении; повторный вызов ничего не трогает.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id uint64) error {
	result, err := r.storage.Exec(ctx, `
		UPDATE notifications
		SET read = TRUE, read_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND read = FALSE
	`, id, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.storage.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM notifications WHERE id = $1 AND user_id = $2)`, id, userID).Scan(&exists)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	result, err := r.storage.Exec(ctx,
		`UPDATE notifications SET read = TRUE, read_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
