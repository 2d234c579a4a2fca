package websocket

import "time"

// Типы сообщений
const (
	MessageNotification = "notification"
)

// Envelope - конверт сообщения: тип подсказывает фронтенду, что делать с payload.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationPayload - уведомление для "колокольчика".
type NotificationPayload struct {
	ID        uint64    `json:"id"`
	Event     string    `json:"event"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Icon      string    `json:"icon"`
	ActionURL *string   `json:"action_url"`
	Read      bool      `json:"read"`
	Time      string    `json:"time"`
	CreatedAt time.Time `json:"created_at"`
}
