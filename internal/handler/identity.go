package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/service"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// IdentityHandler issues access tokens.  There are no passwords: a user is
// identified by email and created on first use.
type IdentityHandler struct {
	svc          *service.BookingService
	jwtSecret    string
	accessTTLMin int
}

func NewIdentityHandler(svc *service.BookingService, jwtSecret string, accessTTLMin int) *IdentityHandler {
	return &IdentityHandler{svc: svc, jwtSecret: jwtSecret, accessTTLMin: accessTTLMin}
}

type identifyRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type identifyResponse struct {
	User   *model.User       `json:"user"`
	Access utils.AccessToken `json:"access"`
}

// Identify handles POST /v1/users.
func (h *IdentityHandler) Identify(c echo.Context) error {
	var req identifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	u, err := h.svc.Identify(c.Request().Context(), req.Email, req.Name)
	if err != nil {
		return writeError(c, err)
	}
	tok, err := utils.NewAccessToken(h.jwtSecret, u.ID, utils.RoleCustomer, h.accessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue token"})
	}
	return c.JSON(http.StatusOK, identifyResponse{User: u, Access: tok})
}
