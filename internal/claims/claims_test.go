package claims

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestParseVerified(t *testing.T) {
	now := time.Now()
	token := signToken(t, jwt.MapClaims{
		"jti":     "jti-1",
		"sub":     "subject-1",
		"user_id": "user-1",
		"roles":   []interface{}{"MANAGER"},
		"iat":     now.Unix(),
		"exp":     now.Add(time.Hour).Unix(),
	})

	parsed, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.TokenJTI != "jti-1" {
		t.Fatalf("jti = %q", parsed.TokenJTI)
	}
	if parsed.UserID != "user-1" {
		t.Fatalf("user_id = %q", parsed.UserID)
	}
	if len(parsed.Roles) != 1 || parsed.Roles[0] != "MANAGER" {
		t.Fatalf("roles = %v", parsed.Roles)
	}
	if parsed.ExpiresAt.Unix() != now.Add(time.Hour).Unix() {
		t.Fatalf("exp = %v", parsed.ExpiresAt)
	}
}

func TestParseRejectsBadSignature(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"jti": "jti-1"})
	if _, err := Parse(token, "other-secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRequiresJTI(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "subject-1"})
	if _, err := Parse(token, testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseUnverifiedWithoutSecret(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"jti": "jti-2", "sub": "subject-2"})
	parsed, err := Parse(token, "")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.TokenJTI != "jti-2" {
		t.Fatalf("jti = %q", parsed.TokenJTI)
	}
	if parsed.UserID != "subject-2" {
		t.Fatalf("user_id should fall back to sub, got %q", parsed.UserID)
	}
	if parsed.ExpiresAt.Before(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("missing exp should default to 24h, got %v", parsed.ExpiresAt)
	}
}

func TestParseRealmAccessRoles(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"jti": "jti-3",
		"realm_access": map[string]interface{}{
			"roles": []interface{}{"EMPLOYEE", "MANAGER"},
		},
	})
	parsed, err := Parse(token, testSecret)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(parsed.Roles) != 2 {
		t.Fatalf("roles = %v", parsed.Roles)
	}
}

func TestParseGarbage(t *testing.T) {
	if _, err := Parse("not-a-token", testSecret); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, err := Parse("not-a-token", ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
