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

type SchoolController struct {
	schoolService services.SchoolServiceInterface
	branchService services.BranchServiceInterface
	logger        *zap.Logger
}

func NewSchoolController(
	schoolService services.SchoolServiceInterface,
	branchService services.BranchServiceInterface,
	logger *zap.Logger,
) *SchoolController {
	return &SchoolController{
		schoolService: schoolService,
		branchService: branchService,
		logger:        logger,
	}
}

var schoolHeaders = []interface{}{"ID", "Name", "Code", "Address", "Email", "Phone", "Created", "Deleted"}

func schoolRows(list []entities.School) [][]interface{} {
	rows := make([][]interface{}, 0, len(list))
	for _, s := range list {
		rows = append(rows, []interface{}{
			s.ID, s.Name, orEmpty(s.Code), s.Address, s.Email, s.PhoneNumber,
			s.CreatedAt.Format(dateTimeLayout), formatTime(s.DeletedAt),
		})
	}
	return rows
}

func (c *SchoolController) GetSchools(ctx echo.Context) error {
	res, err := c.schoolService.List(ctx.Request().Context(), ctx.QueryParams())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if wantsXLSX(ctx) {
		return respondWithXLSX(ctx, "schools", schoolHeaders, schoolRows(res.List))
	}
	return utils.SuccessResponse(ctx, res, "Schools retrieved successfully", http.StatusOK)
}

func (c *SchoolController) FindSchool(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.schoolService.Find(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "School retrieved successfully", http.StatusOK)
}

func (c *SchoolController) CreateSchool(ctx echo.Context) error {
	var payload dto.CreateSchoolDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	res, err := c.schoolService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "School created successfully", http.StatusCreated)
}

func (c *SchoolController) UpdateSchool(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.UpdateSchoolDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	res, err := c.schoolService.Update(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "School updated successfully", http.StatusOK)
}

func (c *SchoolController) DeleteSchool(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.schoolService.Delete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "School deleted successfully", http.StatusOK)
}

func (c *SchoolController) RestoreSchool(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.schoolService.Restore(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "School restored successfully", http.StatusOK)
}

func (c *SchoolController) ForceDeleteSchool(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.schoolService.ForceDelete(ctx.Request().Context(), id); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "School permanently deleted", http.StatusOK)
}

// GetSchoolBranches - филиалы одной школы без пагинации.
func (c *SchoolController) GetSchoolBranches(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	res, err := c.branchService.ListBySchool(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branches retrieved successfully", http.StatusOK)
}

// CreateSchoolBranch: school_id берётся из пути, значение из тела игнорируется.
func (c *SchoolController) CreateSchoolBranch(ctx echo.Context) error {
	id, err := utils.ParseIDParam(ctx, "id")
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	var payload dto.CreateBranchDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	payload.SchoolID = id
	res, err := c.branchService.Create(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Branch created successfully", http.StatusCreated)
}
