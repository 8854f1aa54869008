package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-booking/internal/utils"
)

const testSecret = "test-secret"

func protected(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.GET("/me", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get("user_id"), "role": c.Get("role")})
	}, JWTAuth(testSecret), RequireRole(utils.RoleCustomer))
	return e
}

func call(e *echo.Echo, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestJWTAuthAcceptsIssuedToken(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 42, utils.RoleCustomer, 5)
	require.NoError(t, err)

	rec := call(protected(t), "Bearer "+tok.Token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"user_id":42,"role":"CUSTOMER"}`, rec.Body.String())
}

func TestJWTAuthRejects(t *testing.T) {
	e := protected(t)

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42", "role": utils.RoleCustomer, "exp": time.Now().Add(-time.Minute).Unix(),
	})
	expiredStr, err := expired.SignedString([]byte(testSecret))
	require.NoError(t, err)

	noExp := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "42", "role": utils.RoleCustomer})
	noExpStr, err := noExp.SignedString([]byte(testSecret))
	require.NoError(t, err)

	wrongKey, err := utils.NewAccessToken("other-secret", 42, utils.RoleCustomer, 5)
	require.NoError(t, err)

	badSub := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "abc", "role": utils.RoleCustomer, "exp": time.Now().Add(time.Minute).Unix(),
	})
	badSubStr, err := badSub.SignedString([]byte(testSecret))
	require.NoError(t, err)

	cases := []struct {
		name string
		auth string
		want string
	}{
		{"missing", "", `{"error":"missing bearer token"}`},
		{"wrong scheme", "Basic Zm9vOmJhcg==", `{"error":"missing bearer token"}`},
		{"garbage", "Bearer not-a-jwt", `{"error":"invalid token"}`},
		{"expired", "Bearer " + expiredStr, `{"error":"invalid token"}`},
		{"no expiry", "Bearer " + noExpStr, `{"error":"invalid token"}`},
		{"wrong key", "Bearer " + wrongKey.Token, `{"error":"invalid token"}`},
		{"non numeric subject", "Bearer " + badSubStr, `{"error":"invalid claims"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := call(e, tc.auth)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.JSONEq(t, tc.want, rec.Body.String())
		})
	}
}

func TestRequireRoleForbidsOtherRoles(t *testing.T) {
	tok, err := utils.NewAccessToken(testSecret, 7, "OWNER", 5)
	require.NoError(t, err)

	rec := call(protected(t), "Bearer "+tok.Token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"forbidden"}`, rec.Body.String())
}
