package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/events"
	"school-system/pkg/eventbus"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/utils"
)

// Validator - то, что нужно сервисам от pkg/validation.
type Validator interface {
	Validate(i interface{}) error
}

// BaseService - общие для CRUD-сервисов авторизация и публикация событий.
type BaseService struct {
	policy *authz.Policy
	bus    *eventbus.Bus
	logger *zap.Logger
}

func NewBaseService(policy *authz.Policy, bus *eventbus.Bus, logger *zap.Logger) BaseService {
	return BaseService{policy: policy, bus: bus, logger: logger}
}

// ActorFromCtx собирает Actor из значений, положенных AuthMiddleware.
func ActorFromCtx(ctx context.Context) (*authz.Actor, error) {
	userID, err := utils.GetUserIDFromCtx(ctx)
	if err != nil {
		return nil, apperrors.ErrUnauthorized
	}
	permissions, _ := utils.GetPermissionsMapFromCtx(ctx)
	return &authz.Actor{
		ID:          userID,
		Roles:       utils.GetRolesFromCtx(ctx),
		Permissions: permissions,
	}, nil
}

// authorize проверяет действие до любой мутации.
func (s *BaseService) authorize(ctx context.Context, entity authz.Entity, action authz.Action, target interface{}) (*authz.Actor, error) {
	actor, err := ActorFromCtx(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Authorize(actor, entity, action, target); err != nil {
		s.logger.Warn("Отказано в доступе",
			zap.Uint64("userID", actor.ID),
			zap.String("entity", string(entity)),
			zap.String("action", string(action)),
		)
		return nil, err
	}
	return actor, nil
}

// publish вызывается только после коммита.
func (s *BaseService) publish(ctx context.Context, event events.EntityEvent) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, event)
}

// optionalString: null и пустая строка после trim -> nil.
func optionalString(valid bool, value string) *string {
	if !valid {
		return nil
	}
	return utils.TrimmedOrNil(value)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// normalizer реализуют DTO, которым нужна очистка ввода до проверки тегов.
type normalizer interface {
	Normalize()
}

// startValidation проверяет теги DTO. Проверки по БД дописывают ошибки в тот же набор.
func startValidation(v Validator, payload interface{}) (*apperrors.ValidationError, error) {
	if n, ok := payload.(normalizer); ok {
		n.Normalize()
	}
	if err := v.Validate(payload); err != nil {
		var tagErr *apperrors.ValidationError
		if !errors.As(err, &tagErr) {
			return nil, err
		}
		return tagErr, nil
	}
	return &apperrors.ValidationError{}, nil
}

func fieldFailed(verr *apperrors.ValidationError, field string) bool {
	_, failed := verr.Fields[field]
	return failed
}

func takenMessage(field string) string {
	return fmt.Sprintf("The %s has already been taken.", field)
}

func invalidSelectionMessage(field string) string {
	return fmt.Sprintf("The selected %s is invalid.", strings.ReplaceAll(field, "_", " "))
}

// conflictAsValidation: уникальный индекс сработал после предварительной проверки.
func conflictAsValidation(err error, fieldByConstraint map[string]string) error {
	var conflict *apperrors.ConflictError
	if !errors.As(err, &conflict) {
		return err
	}
	field, ok := fieldByConstraint[conflict.Constraint]
	if !ok {
		field = "code"
	}
	return apperrors.NewValidationError(field, takenMessage(field))
}
