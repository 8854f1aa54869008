package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// SessionHandler exposes selection sessions: the seats a user is looking
// at before confirming.
type SessionHandler struct {
	svc *service.BookingService
}

func NewSessionHandler(svc *service.BookingService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

// sessionResponse adds the remaining capacity to a selection.
type sessionResponse struct {
	*model.Selection
	Remaining int `json:"remaining"`
}

func newSessionResponse(s *model.Selection) sessionResponse {
	return sessionResponse{Selection: s, Remaining: model.MaxSeatsPerBooking - len(s.Seats)}
}

// Open handles POST /v1/shows/:id/sessions.
func (h *SessionHandler) Open(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := parseShowID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	sel, err := h.svc.OpenSession(c.Request().Context(), userID, showID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sel))
}

// Get handles GET /v1/sessions/:id.
func (h *SessionHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sel, err := h.svc.GetSession(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sel))
}

// SelectSeat handles PUT /v1/sessions/:id/seats/:seat.
func (h *SessionHandler) SelectSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sel, err := h.svc.SelectSeat(c.Request().Context(), c.Param("id"), userID, c.Param("seat"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sel))
}

// DeselectSeat handles DELETE /v1/sessions/:id/seats/:seat.
func (h *SessionHandler) DeselectSeat(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sel, err := h.svc.DeselectSeat(c.Request().Context(), c.Param("id"), userID, c.Param("seat"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, newSessionResponse(sel))
}

// Confirm handles POST /v1/sessions/:id/confirm.  On a conflict the lost
// seats have already been dropped from the session; the 409 lists them.
func (h *SessionHandler) Confirm(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	b, err := h.svc.ConfirmBooking(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newBookingResponse(b))
}

// Discard handles DELETE /v1/sessions/:id.
func (h *SessionHandler) Discard(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if err := h.svc.DiscardSession(c.Request().Context(), c.Param("id"), userID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
