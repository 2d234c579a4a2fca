package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

func seedSettings(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение таблицы 'settings'...")

	query := `INSERT INTO settings (key, value, type, description, "group", is_public)
			  VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (key) DO NOTHING`
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, s := range settingsData {
		if _, err := tx.Exec(ctx, query, s.Key, s.Value, s.Type, s.Description, s.Group, s.IsPublic); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
