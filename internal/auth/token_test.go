package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewTokenServiceRequiresSecret(t *testing.T) {
	if _, err := NewTokenService(""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("err = %v, want ErrMissingSecret", err)
	}
}

func TestTokenValidUntilExpiry(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokenService(t, clock)
	ttl := 30 * time.Minute

	token, expiresAt, err := tokens.Issue(testUsername, ttl)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if want := clock.Now().Add(ttl); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}

	for _, offset := range []time.Duration{0, time.Second, 15 * time.Minute, ttl - time.Second} {
		at := newFakeClock()
		at.Advance(offset)
		tokens.now = at.Now

		subject, err := tokens.Verify(token)
		if err != nil {
			t.Fatalf("Verify() at +%v error = %v", offset, err)
		}
		if subject != testUsername {
			t.Errorf("subject at +%v = %q, want %q", offset, subject, testUsername)
		}
	}

	for _, offset := range []time.Duration{ttl, ttl + time.Second, 24 * time.Hour} {
		at := newFakeClock()
		at.Advance(offset)
		tokens.now = at.Now

		if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify() at +%v err = %v, want ErrInvalidToken", offset, err)
		}
	}
}

func TestTokenIssuedMidSecondLastsFullTTL(t *testing.T) {
	issuedAt := time.Date(2026, 3, 14, 9, 0, 0, 700*int(time.Millisecond), time.UTC)
	tokens, err := NewTokenService(testSecret)
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	tokens.now = func() time.Time { return issuedAt }
	ttl := 30 * time.Minute

	token, expiresAt, err := tokens.Issue(testUsername, ttl)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if want := time.Date(2026, 3, 14, 9, 30, 1, 0, time.UTC); !expiresAt.Equal(want) {
		t.Errorf("expiresAt = %v, want %v", expiresAt, want)
	}

	tokens.now = func() time.Time { return issuedAt.Add(ttl - 500*time.Millisecond) }
	if _, err := tokens.Verify(token); err != nil {
		t.Fatalf("Verify() just before ttl error = %v", err)
	}

	tokens.now = func() time.Time { return expiresAt }
	if _, err := tokens.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Verify() at expiresAt err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsDifferentSecret(t *testing.T) {
	clock := newFakeClock()
	issuer := newTestTokenService(t, clock)

	other, err := NewTokenService("another-secret")
	if err != nil {
		t.Fatalf("NewTokenService() error = %v", err)
	}
	other.now = clock.Now

	token, _, err := issuer.Issue(testUsername, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsTamperedPayload(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokenService(t, clock)

	token, _, err := tokens.Issue(testUsername, time.Hour)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("token has %d parts", len(parts))
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	forged := strings.Replace(string(payload), `"sub":"admin"`, `"sub":"mallory"`, 1)
	if forged == string(payload) {
		t.Fatalf("payload did not contain subject: %s", payload)
	}
	parts[1] = base64.RawURLEncoding.EncodeToString([]byte(forged))

	if _, err := tokens.Verify(strings.Join(parts, ".")); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenRejectsMalformedInput(t *testing.T) {
	tokens := newTestTokenService(t, newFakeClock())

	for _, raw := range []string{"", "garbage", "a.b.c", "a.b"} {
		if _, err := tokens.Verify(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q) err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestTokenRejectsUnexpectedClaims(t *testing.T) {
	clock := newFakeClock()
	tokens := newTestTokenService(t, clock)
	exp := jwt.NewNumericDate(clock.Now().Add(time.Hour))

	tests := []struct {
		name   string
		method jwt.SigningMethod
		claims jwt.RegisteredClaims
	}{
		{name: "missing subject", method: jwt.SigningMethodHS256, claims: jwt.RegisteredClaims{ExpiresAt: exp}},
		{name: "missing expiry", method: jwt.SigningMethodHS256, claims: jwt.RegisteredClaims{Subject: testUsername}},
		{name: "other algorithm", method: jwt.SigningMethodHS512, claims: jwt.RegisteredClaims{Subject: testUsername, ExpiresAt: exp}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signed, err := jwt.NewWithClaims(tt.method, tt.claims).SignedString([]byte(testSecret))
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := tokens.Verify(signed); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestIssueValidatesInput(t *testing.T) {
	tokens := newTestTokenService(t, newFakeClock())

	if _, _, err := tokens.Issue("", time.Hour); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, _, err := tokens.Issue(testUsername, 0); err == nil {
		t.Error("expected error for zero ttl")
	}
}
