package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/repositories"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/utils"
)

const notificationListLimit = 50

type NotificationServiceInterface interface {
	List(ctx context.Context) (*dto.NotificationListDTO, error)
	MarkRead(ctx context.Context, id uint64) error
	MarkAllRead(ctx context.Context) (int64, error)
}

type NotificationService struct {
	notificationRepo repositories.NotificationRepositoryInterface
	logger           *zap.Logger
	now              func() time.Time
}

func NewNotificationService(notificationRepo repositories.NotificationRepositoryInterface, logger *zap.Logger) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, logger: logger, now: time.Now}
}

func currentUserID(ctx context.Context) (uint64, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return 0, apperrors.ErrUnauthorized
	}
	return userID, nil
}

func (s *NotificationService) toDTO(n entities.Notification, now time.Time) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Time:      utils.TimeAgo(n.CreatedAt, now),
		Read:      n.Read,
		Icon:      n.Icon,
		ActionURL: n.ActionURL,
		CreatedAt: n.CreatedAt,
	}
}

// List - последние 50 уведомлений текущего пользователя и число непрочитанных.
func (s *NotificationService) List(ctx context.Context) (*dto.NotificationListDTO, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return nil, err
	}
	items, err := s.notificationRepo.ListForUser(ctx, userID, notificationListLimit)
	if err != nil {
		return nil, err
	}
	unread, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	result := &dto.NotificationListDTO{
		Notifications: make([]dto.NotificationDTO, 0, len(items)),
		UnreadCount:   unread,
	}
	for _, n := range items {
		result.Notifications = append(result.Notifications, s.toDTO(n, now))
	}
	return result, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uint64) error {
	userID, err := currentUserID(ctx)
	if err != nil {
		return err
	}
	return s.notificationRepo.MarkRead(ctx, userID, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context) (int64, error) {
	userID, err := currentUserID(ctx)
	if err != nil {
		return 0, err
	}
	updated, err := s.notificationRepo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("Уведомления отмечены прочитанными", zap.Uint64("userID", userID), zap.Int64("count", updated))
	return updated, nil
}
