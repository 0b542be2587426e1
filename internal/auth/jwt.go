package auth

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ViewerClaims represents the claims in a viewer token.
type ViewerClaims struct {
	ViewerID string `json:"viewer_id"`
	Name     string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// viewerTokenTTL is how long an issued viewer token stays valid.
const viewerTokenTTL = 24 * time.Hour

// ErrInvalidToken is returned for tokens that fail validation.
var ErrInvalidToken = errors.New("invalid viewer token")

func secret() []byte {
	if s := os.Getenv("JWT_SECRET"); s != "" {
		return []byte(s)
	}
	return []byte("dev-secret") // Development fallback only
}

// GenerateViewerToken generates a JWT token for a viewer session.
func GenerateViewerToken(viewerID, name string) (string, error) {
	claims := &ViewerClaims{
		ViewerID: viewerID,
		Name:     name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(viewerTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// ValidateToken validates a viewer token and returns its claims.
func ValidateToken(tokenString string) (*ViewerClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ViewerClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*ViewerClaims)
	if !ok || !token.Valid || claims.ViewerID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
