package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// GetLimit reads the "limit" query parameter, falling back to def when it is
// missing or invalid and capping it at max.
func GetLimit(c echo.Context, def, max int) int {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}
