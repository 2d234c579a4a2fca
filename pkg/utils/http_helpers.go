package utils

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"

	apperrors "school-system/pkg/errors"
)

// ParseIDParam читает положительный числовой параметр пути.
func ParseIDParam(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: некорректный параметр %s", apperrors.ErrBadRequest, name)
	}
	return id, nil
}
