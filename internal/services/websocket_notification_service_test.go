package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"school-system/internal/entities"
	"school-system/pkg/websocket"
)

func TestWebSocketNotificationService_PushesListView(t *testing.T) {
	hub := websocket.NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	client := websocket.NewClient(hub, nil, 7)
	hub.Register(client)

	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	url := "/schools/3"
	svc := NewWebSocketNotificationService(hub, zap.NewNop()).(*WebSocketNotificationService)
	svc.now = func() time.Time { return created.Add(3 * time.Minute) }

	n := &entities.Notification{ID: 11, UserID: 7, Type: entities.NotificationSuccess, Title: "New School Registered", Icon: "school", ActionURL: &url}
	n.CreatedAt = created
	require.NoError(t, svc.PushNotification("school.created", n))

	select {
	case raw := <-client.Send:
		var env struct {
			Type    string                        `json:"type"`
			Payload websocket.NotificationPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, websocket.MessageNotification, env.Type)
		assert.Equal(t, uint64(11), env.Payload.ID)
		assert.Equal(t, "school.created", env.Payload.Event)
		assert.Equal(t, "3 minutes ago", env.Payload.Time)
		require.NotNil(t, env.Payload.ActionURL)
		assert.Equal(t, url, *env.Payload.ActionURL)
	case <-time.After(time.Second):
		t.Fatal("уведомление не доставлено")
	}
}
