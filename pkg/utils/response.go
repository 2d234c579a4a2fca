package utils

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	apperrors "school-system/pkg/errors"
)

type HttpResponse struct {
	Status  bool        `json:"status"`
	Body    interface{} `json:"body,omitempty"`
	Message string      `json:"message"`
}

type ValidationBody struct {
	Errors map[string]string `json:"errors"`
}

func SuccessResponse(ctx echo.Context, body interface{}, message string, code int) error {
	return ctx.JSON(code, &HttpResponse{
		Status:  true,
		Body:    body,
		Message: message,
	})
}

// ErrorResponse переводит ошибку слоя сервисов в HTTP-ответ. Внутренние детали только в логе.
func ErrorResponse(ctx echo.Context, err error, logger *zap.Logger) error {
	code, message, body := classify(err)

	if logger != nil {
		fields := []zap.Field{
			zap.Error(err),
			zap.Int("status", code),
			zap.String("method", ctx.Request().Method),
			zap.String("path", ctx.Request().URL.Path),
		}
		var httpErr *apperrors.HttpError
		if errors.As(err, &httpErr) && httpErr.Context != nil {
			fields = append(fields, zap.Any("context", httpErr.Context))
		}
		if code >= http.StatusInternalServerError {
			logger.Error("Ошибка обработки запроса", fields...)
		} else {
			logger.Debug("Запрос отклонён", fields...)
		}
	}

	return ctx.JSON(code, &HttpResponse{
		Status:  false,
		Body:    body,
		Message: message,
	})
}

func classify(err error) (int, string, interface{}) {
	var (
		verr      *apperrors.ValidationError
		fieldErrs validator.ValidationErrors
		conflict  *apperrors.ConflictError
		httpErr   *apperrors.HttpError
		echoErr   *echo.HTTPError
	)

	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity, apperrors.ErrValidation.Error(), ValidationBody{Errors: verr.Fields}
	case errors.As(err, &fieldErrs):
		fields := make(map[string]string, len(fieldErrs))
		for _, fe := range fieldErrs {
			fields[fe.Field()] = fe.Tag()
		}
		return http.StatusUnprocessableEntity, apperrors.ErrValidation.Error(), ValidationBody{Errors: fields}
	case errors.As(err, &conflict):
		return http.StatusUnprocessableEntity, apperrors.ErrValidation.Error(), ValidationBody{Errors: map[string]string{"code": "The code has already been taken."}}
	case errors.As(err, &httpErr):
		return httpErr.Code, httpErr.Message, httpErr.Details
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, apperrors.ErrNotFound.Error(), nil
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, apperrors.ErrForbidden.Error(), nil
	case errors.Is(err, apperrors.ErrUnauthorized),
		errors.Is(err, apperrors.ErrUserIDNotFoundInContext),
		errors.Is(err, apperrors.ErrEmptyAuthHeader),
		errors.Is(err, apperrors.ErrInvalidAuthHeader),
		errors.Is(err, apperrors.ErrInvalidToken),
		errors.Is(err, apperrors.ErrTokenExpired),
		errors.Is(err, apperrors.ErrInvalidSigningMethod),
		errors.Is(err, apperrors.ErrInvalidCredentials):
		return http.StatusUnauthorized, err.Error(), nil
	case errors.Is(err, apperrors.ErrBadRequest):
		return http.StatusBadRequest, err.Error(), nil
	case errors.As(err, &echoErr):
		if echoErr.Code < http.StatusInternalServerError {
			return echoErr.Code, http.StatusText(echoErr.Code), nil
		}
	}
	return http.StatusInternalServerError, apperrors.ErrInternalServer.Error(), nil
}
