package services

import (
	"time"

	"go.uber.org/zap"

	"school-system/internal/entities"
	"school-system/pkg/utils"
	"school-system/pkg/websocket"
)

// WebSocketNotificationServiceInterface доставляет сохранённое уведомление в открытые вкладки пользователя.
type WebSocketNotificationServiceInterface interface {
	PushNotification(event string, n *entities.Notification) error
}

type WebSocketNotificationService struct {
	hub    *websocket.Hub
	logger *zap.Logger
	now    func() time.Time
}

func NewWebSocketNotificationService(hub *websocket.Hub, logger *zap.Logger) WebSocketNotificationServiceInterface {
	return &WebSocketNotificationService{hub: hub, logger: logger, now: time.Now}
}

// PushNotification отдаёт то же представление, что и список уведомлений, плюс имя события,
// по которому фронтенд обновляет таблицу школ, филиалов или отделов.
func (s *WebSocketNotificationService) PushNotification(event string, n *entities.Notification) error {
	payload := websocket.NotificationPayload{
		ID:        n.ID,
		Event:     event,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Icon:      n.Icon,
		ActionURL: n.ActionURL,
		Read:      n.Read,
		Time:      utils.TimeAgo(n.CreatedAt, s.now()),
		CreatedAt: n.CreatedAt,
	}
	s.logger.Debug("Push уведомления",
		zap.Uint64("notificationID", n.ID),
		zap.Uint64("userID", n.UserID),
		zap.String("event", event),
	)
	return s.hub.SendMessageToUser(n.UserID, payload, websocket.MessageNotification)
}
