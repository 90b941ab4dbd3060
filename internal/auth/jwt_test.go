package auth

import (
	"strings"
	"testing"
	"time"
)

const testSecret = "test-secret-key-with-enough-length"

func newTestTokenService(t *testing.T) *TokenService {
	t.Helper()
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	return tokens
}

func TestNewTokenServiceRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenService("short"); err == nil {
		t.Error("NewTokenService() accepted a short secret, want error")
	}
}

func TestGenerateAndValidate(t *testing.T) {
	tokens := newTestTokenService(t)

	signed, err := tokens.Generate("player-123", AudiencePlayer, PlayerTokenTTL)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if strings.Count(signed, ".") != 2 {
		t.Errorf("Generate() output is not a three-part JWT: %q", signed)
	}

	subject, err := tokens.Validate(signed, AudiencePlayer)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if subject != "player-123" {
		t.Errorf("Validate() subject = %q, want %q", subject, "player-123")
	}
}

func TestValidateRejectsWrongAudience(t *testing.T) {
	tokens := newTestTokenService(t)

	playerToken, err := tokens.Generate("player-123", AudiencePlayer, PlayerTokenTTL)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	// A player token must never pass as a staff token.
	if _, err := tokens.Validate(playerToken, AudienceStaff); err == nil {
		t.Error("Validate() accepted a player token on the staff audience")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	tokens := newTestTokenService(t)

	signed, err := tokens.Generate("player-123", AudiencePlayer, -time.Minute)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := tokens.Validate(signed, AudiencePlayer); err == nil {
		t.Error("Validate() accepted an expired token")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	tokens := newTestTokenService(t)
	other, err := NewTokenService("another-secret-key-with-enough-length")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}

	signed, err := tokens.Generate("player-123", AudiencePlayer, PlayerTokenTTL)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if _, err := other.Validate(signed, AudiencePlayer); err == nil {
		t.Error("Validate() accepted a token signed with a different secret")
	}
}

func TestValidateRejectsGarbage(t *testing.T) {
	tokens := newTestTokenService(t)

	for _, tokenStr := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := tokens.Validate(tokenStr, AudiencePlayer); err == nil {
			t.Errorf("Validate(%q) accepted a malformed token", tokenStr)
		}
	}
}
