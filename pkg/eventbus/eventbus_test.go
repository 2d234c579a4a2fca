package eventbus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type pingEvent struct{}

func (pingEvent) Name() string { return "ping" }

func TestBus_PublishRunsListenersInOrder(t *testing.T) {
	bus := New(zap.NewNop())
	var calls []string

	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		calls = append(calls, "first")
		return errors.New("boom")
	})
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		calls = append(calls, "second")
		panic("listener panic")
	})
	bus.Subscribe("ping", func(ctx context.Context, e Event) error {
		calls = append(calls, "third")
		return nil
	})
	bus.Subscribe("other", func(ctx context.Context, e Event) error {
		calls = append(calls, "other")
		return nil
	})

	assert.NotPanics(t, func() { bus.Publish(context.Background(), pingEvent{}) })
	assert.Equal(t, []string{"first", "second", "third"}, calls)
}
