// internal/authz/permissions.go
package authz

// --- СПИСОК ВСЕХ ПЕРМИШЕНОВ В СИСТЕМЕ ---

const (
	// Школы
	SchoolsView   = "view-school"
	SchoolsCreate = "create-school"
	SchoolsEdit   = "edit-school"
	SchoolsDelete = "delete-school"

	// Филиалы
	BranchesView   = "view-branch"
	BranchesCreate = "create-branch"
	BranchesEdit   = "edit-branch"
	BranchesDelete = "delete-branch"

	// Отделы
	DepartmentsView   = "view-department"
	DepartmentsCreate = "create-department"
	DepartmentsEdit   = "edit-department"
	DepartmentsDelete = "delete-department"

	// Настройки и переводы
	SettingsView     = "view-settings"
	SettingsEdit     = "edit-settings"
	TranslationsEdit = "edit-translations"
)

// Роли, которые считаются администраторскими.
const (
	RoleSuperAdmin = "super-admin"
	RoleAdmin      = "admin"
	RoleManager    = "manager"
	RoleViewer     = "viewer"
)

// AllPermissions - для сидера и роли admin.
var AllPermissions = []string{
	SchoolsView, SchoolsCreate, SchoolsEdit, SchoolsDelete,
	BranchesView, BranchesCreate, BranchesEdit, BranchesDelete,
	DepartmentsView, DepartmentsCreate, DepartmentsEdit, DepartmentsDelete,
	SettingsView, SettingsEdit, TranslationsEdit,
}

// RolePermissions - набор прав для ролей по умолчанию.
var RolePermissions = map[string][]string{
	RoleAdmin: AllPermissions,
	RoleManager: {
		SchoolsView, SchoolsCreate, SchoolsEdit,
		BranchesView, BranchesCreate, BranchesEdit,
		DepartmentsView, DepartmentsCreate, DepartmentsEdit,
	},
	RoleViewer: {SchoolsView, BranchesView, DepartmentsView},
}
