package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"school-system/internal/authz"
	"school-system/pkg/utils"
)

const (
	adminEmail    = "admin@school.local"
	adminPassword = "Password123!"
)

func seedAdminUser(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание пользователя 'Super Admin'...")

	var exists bool
	if err := db.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))", adminEmail).Scan(&exists); err != nil {
		return err
	}
	if exists {
		log.Println("    - Пользователь уже существует. Пропускаем.")
		return nil
	}

	hashedPassword, err := utils.HashPassword(adminPassword)
	if err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var userID uint64
	if err := tx.QueryRow(ctx,
		"INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING id",
		"Super Admin", adminEmail, hashedPassword,
	).Scan(&userID); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		"INSERT INTO user_roles (user_id, role_id) SELECT $1, id FROM roles WHERE name = $2 ON CONFLICT DO NOTHING",
		userID, authz.RoleSuperAdmin,
	); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
