package authz

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"school-system/internal/entities"
	apperrors "school-system/pkg/errors"
)

func actorWith(roles []string, perms ...string) *Actor {
	m := make(map[string]bool, len(perms))
	for _, p := range perms {
		m[p] = true
	}
	return &Actor{ID: 10, Roles: roles, Permissions: m}
}

func TestCapabilityRules_MapActionsToPermissions(t *testing.T) {
	p := DefaultPolicy("capability")

	cases := []struct {
		perm   string
		entity Entity
		allow  []Action
	}{
		{SchoolsView, EntitySchool, []Action{ViewAny, View}},
		{BranchesCreate, EntityBranch, []Action{Create}},
		{BranchesEdit, EntityBranch, []Action{Update}},
		{DepartmentsDelete, EntityDepartment, []Action{Delete, Restore, ForceDelete}},
	}

	for _, tc := range cases {
		actor := actorWith(nil, tc.perm)
		for _, action := range AllActions {
			want := false
			for _, a := range tc.allow {
				if a == action {
					want = true
				}
			}
			assert.Equal(t, want, p.Can(actor, tc.entity, action, nil), "%s / %s / %s", tc.perm, tc.entity, action)
		}
	}
}

func TestPolicy_PermissionIsEntitySpecific(t *testing.T) {
	p := DefaultPolicy("capability")
	actor := actorWith(nil, BranchesEdit)

	assert.True(t, p.Can(actor, EntityBranch, Update, &entities.Branch{ID: 1}))
	assert.False(t, p.Can(actor, EntitySchool, Update, &entities.School{ID: 1}))
}

func TestPolicy_AuthorizeReturnsForbidden(t *testing.T) {
	p := DefaultPolicy("capability")

	err := p.Authorize(actorWith(nil), EntitySchool, Create, nil)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	assert.NotContains(t, err.Error(), "create-school", "ошибка не должна раскрывать имя права")

	assert.NoError(t, p.Authorize(actorWith(nil, SchoolsCreate), EntitySchool, Create, nil))
}

func TestPolicy_NilActorAndUnknownEntityDenied(t *testing.T) {
	p := DefaultPolicy("capability")
	assert.False(t, p.Can(nil, EntitySchool, View, nil))
	assert.False(t, p.Can(actorWith([]string{RoleAdmin}, AllPermissions...), Entity("course"), View, nil))
}

func TestDepartmentOwnershipRules(t *testing.T) {
	p := DefaultPolicy("ownership")
	head := uint64(10)
	dept := &entities.Department{ID: 3, HeadUserID: &head}
	other := &entities.Department{ID: 4}

	plain := actorWith(nil)
	admin := actorWith([]string{RoleAdmin})

	assert.True(t, p.Can(plain, EntityDepartment, ViewAny, nil))
	assert.True(t, p.Can(plain, EntityDepartment, Create, nil))
	assert.True(t, p.Can(plain, EntityDepartment, Update, dept), "руководитель может править свой отдел")
	assert.False(t, p.Can(plain, EntityDepartment, Update, other))
	assert.False(t, p.Can(plain, EntityDepartment, Delete, dept))

	assert.True(t, p.Can(admin, EntityDepartment, Update, other))
	assert.True(t, p.Can(admin, EntityDepartment, ForceDelete, other))

	// школы и филиалы остаются на правах-строках
	assert.False(t, p.Can(admin, EntitySchool, View, nil))
}
