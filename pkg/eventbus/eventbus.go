package eventbus

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Event - любое событие в системе.
type Event interface {
	Name() string
}

// Listener - обработчик события.
type Listener func(ctx context.Context, event Event) error

// Bus - синхронная шина событий.
type Bus struct {
	listeners map[string][]Listener
	mu        sync.RWMutex
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Bus {
	return &Bus{
		listeners: make(map[string][]Listener),
		logger:    logger,
	}
}

// Subscribe подписывает слушателя на событие.
func (b *Bus) Subscribe(eventName string, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners[eventName] = append(b.listeners[eventName], listener)
}

// Publish вызывает подписчиков по очереди в текущей горутине.
// Ошибки и паники слушателей логируются и не доходят до вызывающего.
func (b *Bus) Publish(ctx context.Context, event Event) {
	eventName := event.Name()

	b.mu.RLock()
	listeners := append([]Listener(nil), b.listeners[eventName]...)
	b.mu.RUnlock()

	for _, l := range listeners {
		if err := b.call(ctx, l, event); err != nil {
			b.logger.Error("Ошибка в обработчике события",
				zap.String("event", eventName),
				zap.Error(err),
			)
		}
	}
}

func (b *Bus) call(ctx context.Context, l Listener, event Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("паника в обработчике: %v", p)
		}
	}()
	return l(ctx, event)
}
