package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedAccess наполняет права, роли, их связи и создаёт суперадминистратора.
func SeedAccess(ctx context.Context, db *pgxpool.Pool) {
	log.Println("▶️  Запуск настройки прав и ролей...")

	if err := seedPermissions(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Прав (Permissions): %v", err)
	}
	if err := seedRoles(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Ролей (Roles): %v", err)
	}
	if err := seedRolePermissions(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Связей Ролей и Прав: %v", err)
	}
	if err := seedAdminUser(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка создания администратора: %v", err)
	}

	log.Println("✅ Права и роли готовы!")
}

// SeedSettings добавляет недостающие настройки по умолчанию.
func SeedSettings(ctx context.Context, db *pgxpool.Pool) {
	log.Println("▶️  Запуск наполнения настроек...")
	if err := seedSettings(ctx, db); err != nil {
		log.Fatalf("❌ Ошибка наполнения Настроек (Settings): %v", err)
	}
	log.Println("✅ Настройки готовы!")
}
