package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"school-system/internal/authz"
)

func seedRoles(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'roles'...")

	query := `INSERT INTO roles (name, description) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)
	for _, r := range rolesData {
		if _, err := tx.Exec(ctx, query, r.Name, r.Description); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// seedRolePermissions только добавляет недостающие связи, ручные правки в БД сохраняются.
func seedRolePermissions(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'role_permissions'...")

	grants := make(map[string][]string, len(authz.RolePermissions)+1)
	for role, perms := range authz.RolePermissions {
		grants[role] = perms
	}
	grants[authz.RoleSuperAdmin] = authz.AllPermissions

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO role_permissions (role_id, permission_id)
			  SELECT r.id, p.id FROM roles r, permissions p WHERE r.name = $1 AND p.name = $2
			  ON CONFLICT DO NOTHING`
	for role, perms := range grants {
		for _, perm := range perms {
			if _, err := tx.Exec(ctx, query, role, perm); err != nil {
				return fmt.Errorf("связь %s -> %s: %w", role, perm, err)
			}
		}
	}
	return tx.Commit(ctx)
}
