package testutil

import (
	"context"
	"sync"

	"school-system/internal/events"
	"school-system/pkg/contextkeys"
	"school-system/pkg/eventbus"
)

// ActorContext кладёт в контекст то же, что AuthMiddleware после проверки токена.
func ActorContext(userID uint64, roles []string, permissions ...string) context.Context {
	perms := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		perms[p] = true
	}
	ctx := context.WithValue(context.Background(), contextkeys.UserIDKey, userID)
	ctx = context.WithValue(ctx, contextkeys.UserRolesKey, roles)
	return context.WithValue(ctx, contextkeys.UserPermissionsMapKey, perms)
}

// Recorder собирает все опубликованные события сущностей.
type Recorder struct {
	mu     sync.Mutex
	events []events.EntityEvent
}

func NewRecorder(bus *eventbus.Bus) *Recorder {
	r := &Recorder{}
	for _, name := range events.AllNames() {
		bus.Subscribe(name, func(_ context.Context, e eventbus.Event) error {
			if ev, ok := e.(events.EntityEvent); ok {
				r.mu.Lock()
				r.events = append(r.events, ev)
				r.mu.Unlock()
			}
			return nil
		})
	}
	return r
}

func (r *Recorder) Events() []events.EntityEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.EntityEvent(nil), r.events...)
}

// Names - имена событий в порядке публикации.
func (r *Recorder) Names() []string {
	var names []string
	for _, e := range r.Events() {
		names = append(names, e.Name())
	}
	return names
}
