package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"school-system/internal/authz"
)

// Kind - что произошло с сущностью.
type Kind string

const (
	Created      Kind = "created"
	Updated      Kind = "updated"
	Deleted      Kind = "deleted"
	Restored     Kind = "restored"
	ForceDeleted Kind = "force-deleted"
)

var AllKinds = []Kind{Created, Updated, Deleted, Restored, ForceDeleted}

// Subject - снимок сущности, достаточный для текста уведомления.
// Parent - название школы для филиала или филиала для отдела.
type Subject struct {
	ID     uint64
	Name   string
	Code   string
	Parent string
}

// EntityEvent публикуется после фиксации изменения в БД.
// Before заполняется только для Updated.
type EntityEvent struct {
	Kind       Kind
	Entity     authz.Entity
	ActorID    uint64
	EventID    uuid.UUID
	OccurredAt time.Time
	Before     *Subject
	After      Subject
}

func NewEntityEvent(kind Kind, entity authz.Entity, actorID uint64, subject Subject) EntityEvent {
	return EntityEvent{
		Kind:       kind,
		Entity:     entity,
		ActorID:    actorID,
		EventID:    uuid.New(),
		OccurredAt: time.Now().UTC(),
		After:      subject,
	}
}

// NewUpdatedEvent хранит состояние до и после правки.
func NewUpdatedEvent(entity authz.Entity, actorID uint64, before, after Subject) EntityEvent {
	e := NewEntityEvent(Updated, entity, actorID, after)
	e.Before = &before
	return e
}

func EventName(entity authz.Entity, kind Kind) string {
	return fmt.Sprintf("%s.%s", entity, kind)
}

func (e EntityEvent) Name() string {
	return EventName(e.Entity, e.Kind)
}

// NameOrCodeChanged - для Updated без Before считается, что изменилось.
func (e EntityEvent) NameOrCodeChanged() bool {
	if e.Before == nil {
		return true
	}
	return e.Before.Name != e.After.Name || e.Before.Code != e.After.Code
}

var entities = []authz.Entity{authz.EntitySchool, authz.EntityBranch, authz.EntityDepartment}

// AllNames - имена всех событий школ, филиалов и отделов.
func AllNames() []string {
	names := make([]string, 0, len(entities)*len(AllKinds))
	for _, entity := range entities {
		for _, kind := range AllKinds {
			names = append(names, EventName(entity, kind))
		}
	}
	return names
}
