package auth

import (
	"strings"
	"testing"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("unit-test-secret")

	token, expiresIn, err := svc.GenerateAccessToken(&TokenClaims{
		UserID: "c0ffee00-0000-4000-8000-000000000001",
		Email:  "learner@example.com",
	})
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	if expiresIn != 15*60 {
		t.Errorf("expiresIn = %d, want 900", expiresIn)
	}

	claims, err := svc.ValidateAccessToken(token)
	if err != nil {
		t.Fatalf("ValidateAccessToken: %v", err)
	}
	if claims.UserID != "c0ffee00-0000-4000-8000-000000000001" {
		t.Errorf("UserID = %q", claims.UserID)
	}
	if claims.Email != "learner@example.com" {
		t.Errorf("Email = %q", claims.Email)
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	svc := NewJWTService("secret-a")
	other := NewJWTService("secret-b")

	token, _, err := svc.GenerateAccessToken(&TokenClaims{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.ValidateAccessToken(token); err == nil {
		t.Error("token signed with another secret validated")
	}
}

func TestRefreshTokenRejectedAsAccess(t *testing.T) {
	svc := NewJWTService("unit-test-secret")

	refresh, _, err := svc.GenerateRefreshToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateAccessToken(refresh); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	svc := NewJWTService("unit-test-secret")

	refresh, _, err := svc.GenerateRefreshToken("u1")
	if err != nil {
		t.Fatal(err)
	}
	userID, err := svc.ValidateRefreshToken(refresh)
	if err != nil {
		t.Fatalf("ValidateRefreshToken: %v", err)
	}
	if userID != "u1" {
		t.Errorf("userID = %q, want u1", userID)
	}

	// An access token is not a refresh token.
	access, _, err := svc.GenerateAccessToken(&TokenClaims{UserID: "u1"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ValidateRefreshToken(access); err == nil {
		t.Error("access token accepted as refresh token")
	}
}

func TestGarbageToken(t *testing.T) {
	svc := NewJWTService("unit-test-secret")
	for _, token := range []string{"", "not.a.jwt", strings.Repeat("x", 64)} {
		if _, err := svc.ValidateAccessToken(token); err == nil {
			t.Errorf("garbage token %q validated", token)
		}
	}
}
