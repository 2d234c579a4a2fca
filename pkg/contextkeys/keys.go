package contextkeys

type contextKey string

const (
	UserIDKey             contextKey = "UserID"
	UserRolesKey          contextKey = "UserRoles"
	UserPermissionsMapKey contextKey = "userPermissionsMap"
)
