package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/controllers"
)

func runDepartmentRouter(secureGroup *echo.Group, ctrl *controllers.DepartmentController) {
	departments := secureGroup.Group("/departments")
	{
		departments.GET("", ctrl.GetDepartments)
		departments.POST("", ctrl.CreateDepartment)
		departments.GET("/:id", ctrl.FindDepartment)
		departments.PUT("/:id", ctrl.UpdateDepartment)
		departments.DELETE("/:id", ctrl.DeleteDepartment)
		departments.POST("/:id/restore", ctrl.RestoreDepartment)
		departments.DELETE("/:id/force", ctrl.ForceDeleteDepartment)
	}
}
