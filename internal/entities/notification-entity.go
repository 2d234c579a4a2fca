package entities

import (
	"encoding/json"
	"time"

	"school-system/pkg/types"
)

// Категории уведомлений
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

type Notification struct {
	ID        uint64          `json:"id"`
	UserID    uint64          `json:"user_id"`
	Type      string          `json:"type"`
	Title     string          `json:"title"`
	Message   string          `json:"message"`
	Icon      string          `json:"icon"`
	ActionURL *string         `json:"action_url"`
	Read      bool            `json:"read"`
	ReadAt    *time.Time      `json:"read_at"`
	Data      json.RawMessage `json:"data"`

	types.BaseEntity
}
