// Файл: main.go

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"school-system/internal/repositories"
	"school-system/internal/routes"
	"school-system/pkg/config"
	"school-system/pkg/database/postgresql"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/eventbus"
	"school-system/pkg/filestorage"
	applogger "school-system/pkg/logger"
	"school-system/pkg/mailer"
	"school-system/pkg/middleware"
	"school-system/pkg/service"
	"school-system/pkg/utils"
	"school-system/pkg/validation"
	"school-system/pkg/websocket"
)

func main() {
	// 1. Конфиг и логгер
	cfg := config.New()
	logger := applogger.NewLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Echo и middleware
	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()

	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableStackAll: true,
		StackSize:       1 << 10,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("ПАНИКА при обработке запроса",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Error(err),
				zap.String("stack", string(stack)),
			)
			if !c.Response().Committed {
				httpErr := apperrors.NewHttpError(http.StatusInternalServerError, "Internal server error", err, nil)
				_ = utils.ErrorResponse(c, httpErr, logger)
			}
			return err
		},
	}))
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, middleware.RequestIDHeader},
		AllowCredentials: true,
		ExposeHeaders:    []string{echo.HeaderContentDisposition, middleware.RequestIDHeader},
	}))

	// 3. База данных
	dbConn, err := postgresql.ConnectDB(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("не удалось подключиться к БД", zap.Error(err))
	}
	defer dbConn.Close()

	if cfg.Postgres.AutoMigrate {
		if err := postgresql.Migrate(cfg.Postgres.DSN); err != nil {
			logger.Fatal("ошибка миграций", zap.Error(err))
		}
		logger.Info("Миграции применены")
	}

	// 4. Кэш: Redis, если включён, иначе память процесса
	var cacheRepo repositories.CacheRepositoryInterface
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if _, err := redisClient.Ping(ctx).Result(); err != nil {
			logger.Fatal("не удалось подключиться к Redis", zap.Error(err), zap.String("address", cfg.Redis.Address))
		}
		cacheRepo = repositories.NewRedisCacheRepository(redisClient)
	} else {
		logger.Warn("Redis выключен, используется кэш в памяти")
		cacheRepo = repositories.NewMemoryCacheRepository()
	}

	// 5. WebSocket-хаб
	hub := websocket.NewHub(logger.Named("ws"))
	go hub.Run(ctx)

	// 6. Роуты
	routes.InitRouter(e, routes.Dependencies{
		Config: cfg,
		Repos: routes.Repositories{
			School:       repositories.NewSchoolRepository(dbConn, logger),
			Branch:       repositories.NewBranchRepository(dbConn, logger),
			Department:   repositories.NewDepartmentRepository(dbConn, logger),
			User:         repositories.NewUserRepository(dbConn, logger),
			Permission:   repositories.NewPermissionRepository(dbConn, logger),
			Notification: repositories.NewNotificationRepository(dbConn, logger),
			Setting:      repositories.NewSettingRepository(dbConn, logger),
			Translation:  repositories.NewTranslationRepository(filestorage.NewLocalFileStorage(cfg.Translations.Dir), logger),
			Cache:        cacheRepo,
			Tx:           repositories.NewTxManager(dbConn),
		},
		Bus:     eventbus.New(logger.Named("events")),
		Hub:     hub,
		Mailer:  mailer.New(cfg.Mail, logger.Named("mail")),
		JWT:     service.NewJWTService(cfg.JWT.SecretKey, cfg.JWT.AccessTokenTTL),
		Loggers: routes.NewLoggers(logger),
	})

	// 7. Запуск и корректная остановка
	go func() {
		logger.Info("Сервер запущен", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Остановка сервера...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ошибка остановки сервера", zap.Error(err))
	}
}
