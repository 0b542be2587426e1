package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestViewerTokenRoundTrip(t *testing.T) {
	token, err := GenerateViewerToken("viewer-1", "Ada")
	if err != nil {
		t.Fatalf("GenerateViewerToken() error = %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.ViewerID != "viewer-1" {
		t.Errorf("ViewerID = %s, want viewer-1", claims.ViewerID)
	}
	if claims.Name != "Ada" {
		t.Errorf("Name = %s, want Ada", claims.Name)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	for _, token := range []string{"", "not.a.token", "aaaa.bbbb.cccc"} {
		if _, err := ValidateToken(token); err == nil {
			t.Errorf("ValidateToken(%q) expected error", token)
		}
	}
}

func TestValidateToken_Expired(t *testing.T) {
	claims := &ViewerClaims{
		ViewerID: "viewer-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected error for expired token")
	}
}

func TestValidateToken_MissingViewerID(t *testing.T) {
	claims := &ViewerClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret())
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := ValidateToken(token); err == nil {
		t.Error("Expected error for token without viewer_id")
	}
}
