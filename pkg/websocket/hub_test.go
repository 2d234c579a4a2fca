package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHub_SendMessageToUser(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	mine := NewClient(hub, nil, 7)
	other := NewClient(hub, nil, 8)
	hub.Register(mine)
	hub.Register(other)

	require.NoError(t, hub.SendMessageToUser(7, NotificationPayload{ID: 1, Title: "School Deleted"}, MessageNotification))

	select {
	case raw := <-mine.Send:
		var env struct {
			Type    string              `json:"type"`
			Payload NotificationPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		assert.Equal(t, MessageNotification, env.Type)
		assert.Equal(t, "School Deleted", env.Payload.Title)
	case <-time.After(time.Second):
		t.Fatal("сообщение не доставлено")
	}

	select {
	case <-other.Send:
		t.Fatal("сообщение ушло чужому пользователю")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	c := NewClient(hub, nil, 1)
	hub.Register(c)
	cancel()
	<-done

	_, ok := <-c.Send
	assert.False(t, ok)
}
