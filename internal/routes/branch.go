package routes

import (
	"github.com/labstack/echo/v4"

	"school-system/internal/controllers"
)

func runBranchRouter(secureGroup *echo.Group, ctrl *controllers.BranchController) {
	branches := secureGroup.Group("/branches")
	{
		branches.GET("", ctrl.GetBranches)
		branches.POST("", ctrl.CreateBranch)
		branches.GET("/:id", ctrl.FindBranch)
		branches.PUT("/:id", ctrl.UpdateBranch)
		branches.DELETE("/:id", ctrl.DeleteBranch)
		branches.POST("/:id/restore", ctrl.RestoreBranch)
		branches.DELETE("/:id/force", ctrl.ForceDeleteBranch)
		branches.GET("/:id/departments", ctrl.GetBranchDepartments)
		branches.POST("/:id/departments", ctrl.CreateBranchDepartment)
	}
}
