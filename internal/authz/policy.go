package authz

import (
	"fmt"

	"school-system/internal/entities"
	apperrors "school-system/pkg/errors"
)

// Rule решает, может ли actor выполнить действие над target. target может быть nil (view-any, create).
type Rule func(actor *Actor, target interface{}) bool

// RuleSet - правила одной сущности по действиям.
type RuleSet map[Action]Rule

type Policy struct {
	rules map[Entity]RuleSet
}

func NewPolicy() *Policy {
	return &Policy{rules: make(map[Entity]RuleSet)}
}

// Register задаёт набор правил сущности целиком, старый набор заменяется.
func (p *Policy) Register(entity Entity, rules RuleSet) *Policy {
	p.rules[entity] = rules
	return p
}

// Can - незарегистрированная пара (сущность, действие) запрещена.
func (p *Policy) Can(actor *Actor, entity Entity, action Action, target interface{}) bool {
	if actor == nil {
		return false
	}
	rule, ok := p.rules[entity][action]
	if !ok {
		return false
	}
	return rule(actor, target)
}

// Authorize возвращает ErrForbidden без указания недостающего права.
func (p *Policy) Authorize(actor *Actor, entity Entity, action Action, target interface{}) error {
	if p.Can(actor, entity, action, target) {
		return nil
	}
	return fmt.Errorf("%s %s: %w", action, entity, apperrors.ErrForbidden)
}

func requirePermission(permission string) Rule {
	return func(actor *Actor, _ interface{}) bool { return actor.HasPermission(permission) }
}

// CapabilityRules: view-any/view -> view-X, create -> create-X, update -> edit-X, delete/restore/force-delete -> delete-X.
func CapabilityRules(entity Entity) RuleSet {
	name := string(entity)
	view := requirePermission("view-" + name)
	del := requirePermission("delete-" + name)
	return RuleSet{
		ViewAny:     view,
		View:        view,
		Create:      requirePermission("create-" + name),
		Update:      requirePermission("edit-" + name),
		Delete:      del,
		Restore:     del,
		ForceDelete: del,
	}
}

// DepartmentOwnershipRules: просмотр и создание всем, правка руководителю отдела или админу, удаление только админу.
func DepartmentOwnershipRules() RuleSet {
	anyone := func(*Actor, interface{}) bool { return true }
	adminOnly := func(actor *Actor, _ interface{}) bool { return actor.IsAdmin() }
	return RuleSet{
		ViewAny: anyone,
		View:    anyone,
		Create:  anyone,
		Update: func(actor *Actor, target interface{}) bool {
			if actor.IsAdmin() {
				return true
			}
			dept, ok := target.(*entities.Department)
			return ok && dept != nil && dept.HeadUserID != nil && *dept.HeadUserID == actor.ID
		},
		Delete:      adminOnly,
		Restore:     adminOnly,
		ForceDelete: adminOnly,
	}
}

// DefaultPolicy собирает политику для школ, филиалов и отделов.
// departmentModel: "ownership" включает правила по руководителю, иначе права-строки.
func DefaultPolicy(departmentModel string) *Policy {
	p := NewPolicy().
		Register(EntitySchool, CapabilityRules(EntitySchool)).
		Register(EntityBranch, CapabilityRules(EntityBranch))
	if departmentModel == "ownership" {
		return p.Register(EntityDepartment, DepartmentOwnershipRules())
	}
	return p.Register(EntityDepartment, CapabilityRules(EntityDepartment))
}
