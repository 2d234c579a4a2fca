package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/entities"
	"school-system/internal/services"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/utils"
)

type BranchController struct {
	branchService     services.BranchServiceInterface
	departmentService services.DepartmentServiceInterface
	logger            *zap.Logger
}

func NewBranchController(
	branchService services.BranchServiceInterface,
	departmentService services.DepartmentServiceInterface,
	logger *zap.Logger,
) *BranchController {
	return &BranchController{
		branchService:     branchService,
		departmentService: departmentService,
		logger:            logger,
	}
}

var branchHeaders = []interface{}{"ID", "School ID", "Name", "Code", "Address", "Phone", "Created", "Deleted"}

func branchRows(list []entities.Branch) [][]interface{} {
	rows := make([][]interface{}, 0, len(list))
	for _, b := range list {
		rows = append(rows, []interface{}{
			b.ID, b.SchoolID, b.Name, orEmpty(b.Code), b.Address, b.PhoneNumber,
			b.CreatedAt.Format(dateTimeLayout), formatTime(b.DeletedAt),
		})
	}
	return rows
}

func (c *BranchController) GetBranches(ctx echo.Context) error {
	res, err := c.branchService.List(ctx.Request().Context(), ctx.QueryParams())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if wantsXLSX(ctx) {
		return respondWithXLSX(ctx, "branches", branchHeaders, branchRows(res.List))
	}
	return utils.SuccessResponse(ctx, res, "Branches retrieved successfully", http.StatusOK)
}

func (c *BranchController) FindBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.branchService.Find(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branch retrieved successfully", http.StatusOK)
}

func (c *BranchController) CreateBranch(ctx echo.Context) error {
	var payload dto.CreateBranchDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	res, err := c.branchService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branch created successfully", http.StatusCreated)
}

func (c *BranchController) UpdateBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateBranchDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	res, err := c.branchService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branch updated successfully", http.StatusOK)
}

func (c *BranchController) DeleteBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.branchService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Branch deleted successfully", http.StatusOK)
}

func (c *BranchController) RestoreBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.branchService.Restore(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branch restored successfully", http.StatusOK)
}

func (c *BranchController) ForceDeleteBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.branchService.ForceDelete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Branch permanently deleted", http.StatusOK)
}

func (c *BranchController) GetBranchDepartments(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.departmentService.ListByBranch(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Departments retrieved successfully", http.StatusOK)
}

// CreateBranchDepartment: branch_id берётся из пути.
func (c *BranchController) CreateBranchDepartment(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateDepartmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	payload.BranchID = id
	res, err := c.departmentService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Department created successfully", http.StatusCreated)
}
