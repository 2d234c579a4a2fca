package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"school-system/internal/dto"
	"school-system/internal/services"
	apperrors "school-system/pkg/errors"
	"school-system/pkg/utils"
)

type SettingController struct {
	settingService services.SettingServiceInterface
	logger         *zap.Logger
}

func NewSettingController(settingService services.SettingServiceInterface, logger *zap.Logger) *SettingController {
	return &SettingController{settingService: settingService, logger: logger}
}

func (c *SettingController) GetPublic(ctx echo.Context) error {
	res, err := c.settingService.GetPublic(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Public settings retrieved successfully", http.StatusOK)
}

func (c *SettingController) GetByGroup(ctx echo.Context) error {
	res, err := c.settingService.GetByGroup(ctx.Request().Context(), ctx.QueryParam("group"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Settings retrieved successfully", http.StatusOK)
}

func (c *SettingController) Show(ctx echo.Context) error {
	res, err := c.settingService.Show(ctx.Request().Context(), ctx.Param("key"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Setting retrieved successfully", http.StatusOK)
}

func (c *SettingController) Update(ctx echo.Context) error {
	var payload dto.UpdateSettingDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, apperrors.ErrBadRequest, c.logger)
	}
	res, err := c.settingService.Set(ctx.Request().Context(), ctx.Param("key"), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Setting updated successfully", http.StatusOK)
}

func (c *SettingController) ClearCache(ctx echo.Context) error {
	if err := c.settingService.ClearCache(ctx.Request().Context()); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Settings cache cleared", http.StatusOK)
}
