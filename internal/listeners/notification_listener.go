package listeners

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"school-system/internal/entities"
	"school-system/internal/events"
	"school-system/internal/repositories"
	"school-system/internal/services"
	"school-system/pkg/eventbus"
	"school-system/pkg/mailer"
)

const notificationsEnabledKey = "notifications_enabled"

// NotificationListener рассылает уведомление об изменении всем пользователям системы.
type NotificationListener struct {
	userRepo              repositories.UserRepositoryInterface
	notificationRepo      repositories.NotificationRepositoryInterface
	settingService        services.SettingServiceInterface
	wsNotificationService services.WebSocketNotificationServiceInterface
	mailer                mailer.MailerInterface
	logger                *zap.Logger
}

func NewNotificationListener(
	userRepo repositories.UserRepositoryInterface,
	notificationRepo repositories.NotificationRepositoryInterface,
	settingService services.SettingServiceInterface,
	wsNotificationService services.WebSocketNotificationServiceInterface,
	mailer mailer.MailerInterface,
	logger *zap.Logger,
) *NotificationListener {
	return &NotificationListener{
		userRepo:              userRepo,
		notificationRepo:      notificationRepo,
		settingService:        settingService,
		wsNotificationService: wsNotificationService,
		mailer:                mailer,
		logger:                logger,
	}
}

func (l *NotificationListener) Register(bus *eventbus.Bus) {
	for _, name := range events.AllNames() {
		bus.Subscribe(name, l.Handle)
	}
	l.logger.Info("NotificationListener подписан на события школ, филиалов и отделов")
}

type notificationData struct {
	CreatedBy uint64 `json:"created_by"`
	Timestamp string `json:"timestamp"`
	EventID   string `json:"event_id"`
}

// Handle: ошибка по одному получателю логируется, рассылка продолжается.
func (l *NotificationListener) Handle(ctx context.Context, event eventbus.Event) error {
	e, ok := event.(events.EntityEvent)
	if !ok {
		return nil
	}
	msg, ok := BuildMessage(e)
	if !ok {
		return nil
	}
	if !l.settingService.GetBool(ctx, notificationsEnabledKey, true) {
		l.logger.Debug("Уведомления отключены настройкой", zap.String("event", e.Name()))
		return nil
	}

	users, err := l.userRepo.ListRecipients(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(notificationData{
		CreatedBy: e.ActorID,
		Timestamp: e.OccurredAt.Format(time.RFC3339),
		EventID:   e.EventID.String(),
	})
	if err != nil {
		return err
	}

	logger := l.logger.With(zap.String("event", e.Name()), zap.String("eventID", e.EventID.String()))
	recipients := make([]mailer.Recipient, 0, len(users))
	for _, user := range users {
		n := &entities.Notification{
			UserID:    user.ID,
			Type:      msg.Type,
			Title:     msg.Title,
			Message:   msg.Text,
			Icon:      msg.Icon,
			ActionURL: msg.ActionURL,
			Data:      data,
		}
		if err := l.notificationRepo.Create(ctx, n); err != nil {
			logger.Error("Не удалось сохранить уведомление", zap.Uint64("userID", user.ID), zap.Error(err))
			continue
		}
		if user.Email != "" {
			recipients = append(recipients, mailer.Recipient{Name: user.Name, Email: user.Email})
		}
		l.push(e.Name(), n, logger)
	}

	if l.mailer != nil && len(recipients) > 0 {
		if err := l.mailer.Send(ctx, mailer.Message{To: recipients, Subject: msg.Title, Text: msg.Text}); err != nil {
			logger.Error("Не удалось отправить письмо-уведомление", zap.Error(err))
		}
	}

	logger.Info("Уведомление разослано", zap.Int("recipients", len(users)))
	return nil
}

func (l *NotificationListener) push(event string, n *entities.Notification, logger *zap.Logger) {
	if l.wsNotificationService == nil {
		return
	}
	if err := l.wsNotificationService.PushNotification(event, n); err != nil {
		logger.Error("Не удалось отправить WebSocket-уведомление", zap.Uint64("userID", n.UserID), zap.Error(err))
	}
}
