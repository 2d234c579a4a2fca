package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/controllers"
)

func runSchoolRouter(secureGroup *echo.Group, ctrl *controllers.SchoolController) {
	schools := secureGroup.Group("/schools")
	{
		schools.GET("", ctrl.GetSchools)
		schools.POST("", ctrl.CreateSchool)
		schools.GET("/:id", ctrl.FindSchool)
		schools.PUT("/:id", ctrl.UpdateSchool)
		schools.DELETE("/:id", ctrl.DeleteSchool)
		schools.POST("/:id/restore", ctrl.RestoreSchool)
		schools.DELETE("/:id/force", ctrl.ForceDeleteSchool)
		schools.GET("/:id/branches", ctrl.GetSchoolBranches)
		schools.POST("/:id/branches", ctrl.CreateSchoolBranch)
	}
}
