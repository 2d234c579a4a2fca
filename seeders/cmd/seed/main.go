package main

import (
	"context"
	"flag"
	"log"

	"school-system/pkg/config"
	"school-system/pkg/database/postgresql"
	"school-system/seeders"
)

func main() {
	log.Println("======================================================")
	log.Println("       🌱 СИСТЕМА СИДЕРОВ (Наполнение БД)           ")
	log.Println("======================================================")

	runMigrate := flag.Bool("migrate", false, "Применить миграции перед наполнением")
	runAccess := flag.Bool("access", false, "Права, роли и суперадминистратор")
	runSettings := flag.Bool("settings", false, "Настройки по умолчанию")
	runAll := flag.Bool("all", false, "Запустить все сидеры (эквивалентно -access -settings)")

	flag.Parse()

	if !*runMigrate && !*runAccess && !*runSettings && !*runAll {
		log.Println("❌ Не выбран ни один сидер для запуска.")
		log.Println("")
		log.Println("Доступные флаги:")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Примеры использования:")
		log.Println("  go run ./seeders/cmd/seed -migrate -all")
		log.Println("  go run ./seeders/cmd/seed -settings")
		log.Println("======================================================")
		return
	}

	cfg := config.New()
	ctx := context.Background()

	if *runMigrate {
		if err := postgresql.Migrate(cfg.Postgres.DSN); err != nil {
			log.Fatalf("❌ Ошибка миграций: %v", err)
		}
		log.Println("✅ Миграции применены")
	}

	dbPool, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer dbPool.Close()

	log.Println("======================================================")

	if *runAll || *runAccess {
		seeders.SeedAccess(ctx, dbPool)
		log.Println("======================================================")
	}
	if *runAll || *runSettings {
		seeders.SeedSettings(ctx, dbPool)
		log.Println("======================================================")
	}

	log.Println("✅ Все указанные операции сидирования успешно завершены.")
	log.Println("======================================================")
}
