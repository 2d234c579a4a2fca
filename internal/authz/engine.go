package authz

import "slices"

// Action - действие над сущностью.
type Action string

const (
	ViewAny     Action = "view-any"
	View        Action = "view"
	Create      Action = "create"
	Update      Action = "update"
	Delete      Action = "delete"
	Restore     Action = "restore"
	ForceDelete Action = "force-delete"
)

var AllActions = []Action{ViewAny, View, Create, Update, Delete, Restore, ForceDelete}

// Entity - тип сущности, на которую навешана политика.
type Entity string

const (
	EntitySchool     Entity = "school"
	EntityBranch     Entity = "branch"
	EntityDepartment Entity = "department"
)

// Actor - аутентифицированный пользователь и его права.
type Actor struct {
	ID          uint64
	Roles       []string
	Permissions map[string]bool
}

func (a *Actor) HasPermission(permission string) bool {
	if a == nil || a.Permissions == nil {
		return false
	}
	return a.Permissions[permission]
}

func (a *Actor) IsAdmin() bool {
	if a == nil {
		return false
	}
	return slices.Contains(a.Roles, RoleAdmin) || slices.Contains(a.Roles, RoleSuperAdmin)
}
