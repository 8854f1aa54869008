package utils // package utils provides token helpers shared by handlers and middleware

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleCustomer is the only role issued by the identify endpoint.
const RoleCustomer = "CUSTOMER"

// AccessToken is a signed JWT together with its expiry.
type AccessToken struct {
	Token string    `json:"token"`
	Exp   time.Time `json:"expires_at"`
}

// NewAccessToken builds and signs an HS256 JWT for a user.  The subject
// carries the user id as a decimal string, as RFC 7519 requires.
func NewAccessToken(secret string, userID uint64, role string, ttlMin int) (AccessToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": role,
		"exp":  exp.Unix(),
		"iat":  now.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}
