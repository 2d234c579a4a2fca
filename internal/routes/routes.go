package routes

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-system/internal/authz"
	"school-system/internal/controllers"
	"school-system/internal/listeners"
	"school-system/internal/repositories"
	"school-system/internal/services"
	"school-system/pkg/config"
	"school-system/pkg/eventbus"
	"school-system/pkg/mailer"
	"school-system/pkg/middleware"
	"school-system/pkg/service"
	"school-system/pkg/websocket"
)

type Loggers struct {
	Main         *zap.Logger
	Auth         *zap.Logger
	School       *zap.Logger
	Notification *zap.Logger
}

// NewLoggers - именованные логгеры по областям от одного корневого.
func NewLoggers(root *zap.Logger) *Loggers {
	return &Loggers{
		Main:         root.Named("main"),
		Auth:         root.Named("auth"),
		School:       root.Named("school"),
		Notification: root.Named("notification"),
	}
}

// Repositories - всё хранилище приложения. В тестах подменяется фейками.
type Repositories struct {
	School       repositories.SchoolRepositoryInterface
	Branch       repositories.BranchRepositoryInterface
	Department   repositories.DepartmentRepositoryInterface
	User         repositories.UserRepositoryInterface
	Permission   repositories.PermissionRepositoryInterface
	Notification repositories.NotificationRepositoryInterface
	Setting      repositories.SettingRepositoryInterface
	Translation  repositories.TranslationRepositoryInterface
	Cache        repositories.CacheRepositoryInterface
	Tx           repositories.TxManagerInterface
}

type Dependencies struct {
	Config  *config.Config
	Repos   Repositories
	Bus     *eventbus.Bus
	Hub     *websocket.Hub
	Mailer  mailer.MailerInterface
	JWT     service.JWTService
	Loggers *Loggers
}

func InitRouter(e *echo.Echo, deps Dependencies) {
	cfg, repos, loggers := deps.Config, deps.Repos, deps.Loggers
	loggers.Main.Info("InitRouter: Начало создания маршрутов")

	// --- 1. СЕРВИСЫ ---
	v := e.Validator
	base := services.NewBaseService(authz.DefaultPolicy(cfg.Authz.DepartmentPolicy), deps.Bus, loggers.School)

	settingService := services.NewSettingService(repos.Setting, repos.Cache, v, cfg.Settings.CacheTTL, loggers.Main)
	translationService := services.NewTranslationService(repos.Translation, cfg.Translations.DefaultLanguage, loggers.Main)
	permissionService := services.NewAuthPermissionService(repos.Permission, repos.Cache, loggers.Auth, cfg.Authz.PermissionCacheTTL)
	authService := services.NewAuthService(repos.User, repos.Cache, permissionService, settingService, deps.JWT, v, loggers.Auth)
	schoolService := services.NewSchoolService(base, repos.School, repos.Branch, repos.Tx, v)
	branchService := services.NewBranchService(base, repos.Branch, repos.School, repos.Department, repos.Tx, v)
	departmentService := services.NewDepartmentService(base, repos.Department, repos.Branch, repos.User, repos.Tx, v)
	notificationService := services.NewNotificationService(repos.Notification, loggers.Notification)

	var wsService services.WebSocketNotificationServiceInterface
	if deps.Hub != nil {
		wsService = services.NewWebSocketNotificationService(deps.Hub, loggers.Notification)
	}
	listeners.NewNotificationListener(repos.User, repos.Notification, settingService, wsService, deps.Mailer, loggers.Notification).
		Register(deps.Bus)

	// --- 2. КОНТРОЛЛЕРЫ ---
	authMW := middleware.NewAuthMiddleware(deps.JWT, permissionService, loggers.Auth)
	api := e.Group("/api")
	secureGroup := api.Group("", authMW.Auth)

	// --- 3. РОУТЕРЫ ---
	runAuthRouter(api, controllers.NewAuthController(authService, loggers.Auth), authMW)
	runSchoolRouter(secureGroup, controllers.NewSchoolController(schoolService, branchService, loggers.School))
	runBranchRouter(secureGroup, controllers.NewBranchController(branchService, departmentService, loggers.School))
	runDepartmentRouter(secureGroup, controllers.NewDepartmentController(departmentService, loggers.School))
	runSettingRouter(api, secureGroup, controllers.NewSettingController(settingService, loggers.Main))
	runLanguageRouter(api, secureGroup, controllers.NewLanguageController(translationService, loggers.Main))
	runNotificationRouter(secureGroup, controllers.NewNotificationController(notificationService, loggers.Notification))
	if deps.Hub != nil {
		wsController := controllers.NewWebSocketController(deps.Hub, cfg.Server.AllowedOrigins, loggers.Notification)
		e.GET("/ws", wsController.ServeWs, authMW.Auth)
	}

	loggers.Main.Info("InitRouter: Создание маршрутов завершено")
}
