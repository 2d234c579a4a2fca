package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"school-system/internal/authz"
)

// true - обновлять описание уже существующих прав.
const updatePermissionDescriptions = false

func seedPermissions(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'permissions'...")

	query := `INSERT INTO permissions (name, description) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if updatePermissionDescriptions {
		query = `INSERT INTO permissions (name, description) VALUES ($1, $2)
				 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description, updated_at = NOW()`
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range authz.AllPermissions {
		if _, err := tx.Exec(ctx, query, name, permissionDescriptions[name]); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
