package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/logger"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

var errUnauthorized = errors.New("unauthorized")

// getUserID extracts the authenticated user id stored by JWTAuth.
func getUserID(c echo.Context) (uint64, error) {
	switch v := c.Get("user_id").(type) {
	case uint64:
		if v > 0 {
			return v, nil
		}
	case int64:
		if v > 0 {
			return uint64(v), nil
		}
	case float64:
		if v > 0 {
			return uint64(v), nil
		}
	case string:
		if id, err := strconv.ParseUint(v, 10, 64); err == nil && id > 0 {
			return id, nil
		}
	}
	return 0, errUnauthorized
}

// parseShowID reads the positive :id path parameter.
func parseShowID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id > 0
}

// writeError maps domain errors to HTTP responses.  Anything unexpected is
// logged and reported as a 500 without internal detail.
func writeError(c echo.Context, err error) error {
	if conflict, ok := model.AsSeatConflict(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "seats already booked",
			"unavailable": model.SeatKeys(conflict.Seats),
		})
	}
	switch {
	case errors.Is(err, model.ErrCapacityExceeded):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "a booking can hold at most 6 seats"})
	case errors.Is(err, model.ErrSeatUnavailable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat unavailable"})
	case errors.Is(err, model.ErrInvalidSeat), errors.Is(err, model.ErrNoSeats), errors.Is(err, service.ErrInvalidIdentity):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, model.ErrStorageFailure):
		logger.WithContext(c.Request().Context()).Error("storage failure", "error", err)
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "storage unavailable, retry later"})
	}
	logger.WithContext(c.Request().Context()).Error("unhandled error", "error", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// trimAll trims every string and drops empty ones.
func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
