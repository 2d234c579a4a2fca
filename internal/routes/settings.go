package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/authz"
	"school-system/internal/controllers"
	"school-system/pkg/middleware"
)

func runSettingRouter(api, secureGroup *echo.Group, ctrl *controllers.SettingController) {
	api.GET("/settings/public", ctrl.GetPublic)

	view := middleware.RequirePermission(authz.SettingsView)
	edit := middleware.RequirePermission(authz.SettingsEdit)
	settings := secureGroup.Group("/settings")
	{
		settings.GET("", ctrl.GetByGroup, view)
		settings.DELETE("/cache", ctrl.ClearCache, edit)
		settings.GET("/:key", ctrl.Show, view)
		settings.PUT("/:key", ctrl.Update, edit)
	}
}
