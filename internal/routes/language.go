package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/authz"
	"school-system/internal/controllers"
	"school-system/pkg/middleware"
)

func runLanguageRouter(api, secureGroup *echo.Group, ctrl *controllers.LanguageController) {
	public := api.Group("/languages")
	{
		public.GET("", ctrl.GetLanguages)
		public.GET("/translations", ctrl.GetTranslations)
		public.GET("/all-translations", ctrl.GetAllTranslations)
	}

	edit := secureGroup.Group("/languages/translations", middleware.RequirePermission(authz.TranslationsEdit))
	{
		edit.POST("", ctrl.SaveTranslations)
		edit.POST("/add", ctrl.AddTranslation)
		edit.DELETE("", ctrl.DeleteTranslation)
	}
}
