package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
)

// BookingHandler serves show occupancy, direct reservations and booking
// history.  Authenticated endpoints rely on JWTAuth having stored user_id.
type BookingHandler struct {
	svc *service.BookingService
	now func() time.Time
}

func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{svc: svc, now: time.Now}
}

// bookingResponse is the success body of reserve and confirm.
type bookingResponse struct {
	BookingID        string         `json:"booking_id"`
	ShowID           uint64         `json:"show_id"`
	Seats            []model.SeatID `json:"seats"`
	TotalAmountCents uint64         `json:"total_amount_cents"`
	ConfirmedAt      time.Time      `json:"confirmed_at"`
}

func newBookingResponse(b *model.Booking) bookingResponse {
	return bookingResponse{
		BookingID:        b.ID,
		ShowID:           b.ShowID,
		Seats:            b.Seats,
		TotalAmountCents: b.TotalAmountCents,
		ConfirmedAt:      b.ConfirmedAt,
	}
}

// GetShow handles GET /v1/shows/:id.
func (h *BookingHandler) GetShow(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, err := h.svc.Show(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, show)
}

// OccupiedSeats handles GET /v1/shows/:id/occupied.
func (h *BookingHandler) OccupiedSeats(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, occupied, err := h.svc.OccupiedSeats(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":     show.ID,
		"price_cents": show.PriceCents,
		"occupied":    occupied,
	})
}

// SeatLayout handles GET /v1/shows/:id/seats.
func (h *BookingHandler) SeatLayout(c echo.Context) error {
	showID, ok := parseShowID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, layout, err := h.svc.SeatLayout(c.Request().Context(), showID)
	if err != nil {
		return writeError(c, err)
	}
	grid := show.Grid()
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":     show.ID,
		"rows":        grid.Rows,
		"cols":        grid.Cols,
		"price_cents": show.PriceCents,
		"seats":       layout,
	})
}

type reserveRequest struct {
	Seats []string `json:"seats"`
}

// Reserve handles POST /v1/shows/:id/reserve.  A lost race answers 409
// with the seats that were taken in "unavailable".
func (h *BookingHandler) Reserve(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := parseShowID(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var req reserveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	b, err := h.svc.Reserve(c.Request().Context(), showID, trimAll(req.Seats), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, newBookingResponse(b))
}

// MyBookings handles GET /v1/my-bookings, newest first.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entries, err := h.svc.BookingHistory(c.Request().Context(), userID, h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": entries})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	entry, err := h.svc.GetBooking(c.Request().Context(), c.Param("id"), userID, h.now())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, entry)
}
