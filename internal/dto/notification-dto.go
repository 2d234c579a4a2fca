package dto

import "time"

type NotificationDTO struct {
	ID        uint64    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Time      string    `json:"time"`
	Read      bool      `json:"read"`
	Icon      string    `json:"icon"`
	ActionURL *string   `json:"action_url"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationListDTO struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   uint64            `json:"unread_count"`
}
