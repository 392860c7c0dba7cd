package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// Role markers carried in token claims.
const (
	RoleAdmin  = "admin"
	RoleDriver = "driver"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongRole    = errors.New("token role mismatch")
)

// TokenManager issues and validates the signed tokens for the admin and
// driver surfaces. PM portal tokens are opaque capability strings and never
// pass through here.
type TokenManager struct {
	secret    []byte
	adminTTL  time.Duration
	driverTTL time.Duration
}

func NewTokenManager(secret string, adminTTL, driverTTL time.Duration) *TokenManager {
	if adminTTL <= 0 {
		adminTTL = 24 * time.Hour
	}
	if driverTTL <= 0 {
		driverTTL = 12 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), adminTTL: adminTTL, driverTTL: driverTTL}
}

// Claims describes the JWT payload for both admin and driver tokens.
type Claims struct {
	Role     string `json:"role"`
	DriverID string `json:"driverId,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// MintAdminToken signs a token carrying the admin role claim.
func (tm *TokenManager) MintAdminToken() (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.adminTTL)
	claims := &Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   RoleAdmin,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return tm.sign(claims, expiresAt)
}

// MintDriverToken signs a session token embedding the driver's id and email.
func (tm *TokenManager) MintDriverToken(driverID, email string) (string, time.Time, error) {
	expiresAt := time.Now().Add(tm.driverTTL)
	claims := &Claims{
		Role:     RoleDriver,
		DriverID: driverID,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   driverID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return tm.sign(claims, expiresAt)
}

func (tm *TokenManager) sign(claims *Claims, expiresAt time.Time) (string, time.Time, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseToken validates signature and expiry and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseTokenWithRole validates the token and requires the given role claim.
func (tm *TokenManager) ParseTokenWithRole(tokenStr, role string) (*Claims, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Role != role {
		return nil, ErrWrongRole
	}
	return claims, nil
}
