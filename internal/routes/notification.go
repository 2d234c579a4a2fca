package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/controllers"
)

func runNotificationRouter(secureGroup *echo.Group, ctrl *controllers.NotificationController) {
	notifications := secureGroup.Group("/notifications")
	{
		notifications.GET("", ctrl.GetNotifications)
		notifications.POST("/read-all", ctrl.MarkAllAsRead)
		notifications.POST("/:id/read", ctrl.MarkAsRead)
	}
}
