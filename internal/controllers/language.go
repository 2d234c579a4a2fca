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

type LanguageController struct {
	translationService services.TranslationServiceInterface
	logger             *zap.Logger
}

func NewLanguageController(translationService services.TranslationServiceInterface, logger *zap.Logger) *LanguageController {
	return &LanguageController{
		translationService: translationService,
		logger:             logger,
	}
}

// bindLanguagePayload: неподдерживаемый язык отклоняется до проверки остальных полей.
func bindLanguagePayload(ctx echo.Context, payload interface{}, lang func() string) error {
	if err := ctx.Bind(payload); err != nil {
		return apperrors.ErrBadRequest
	}
	if l := lang(); l != "" && !services.IsSupportedLanguage(l) {
		return services.ErrInvalidLanguage
	}
	return ctx.Validate(payload)
}

func (c *LanguageController) GetLanguages(ctx echo.Context) error {
	return utils.SuccessResponse(ctx, c.translationService.Languages(), "Languages retrieved successfully", http.StatusOK)
}

func (c *LanguageController) GetTranslations(ctx echo.Context) error {
	res, err := c.translationService.Get(ctx.QueryParam("language"))
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "Translations retrieved successfully", http.StatusOK)
}

func (c *LanguageController) GetAllTranslations(ctx echo.Context) error {
	res, err := c.translationService.All()
	if err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, res, "All translations retrieved successfully", http.StatusOK)
}

func (c *LanguageController) SaveTranslations(ctx echo.Context) error {
	var req dto.SaveTranslationsDTO
	if err := bindLanguagePayload(ctx, &req, func() string { return req.Language }); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.translationService.Set(req.Language, req.Translations); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Translations saved successfully", http.StatusOK)
}

func (c *LanguageController) AddTranslation(ctx echo.Context) error {
	var req dto.AddTranslationDTO
	if err := bindLanguagePayload(ctx, &req, func() string { return req.Language }); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.translationService.AddKey(req.Language, req.Key, req.Value); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Translation key added successfully", http.StatusOK)
}

func (c *LanguageController) DeleteTranslation(ctx echo.Context) error {
	var req dto.DeleteTranslationDTO
	if err := bindLanguagePayload(ctx, &req, func() string { return req.Language }); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	if err := c.translationService.DeleteKey(req.Language, req.Key); err != nil {
		return utils.ErrorResponse(ctx, err, c.logger)
	}
	return utils.SuccessResponse(ctx, nil, "Translation key deleted successfully", http.StatusOK)
}
