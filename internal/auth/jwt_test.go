package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-unit-tests"

func newTestManager() *JWTManager {
	return NewJWTManager(testSecret, 15*time.Minute, 365*24*time.Hour)
}

func TestGeneratePairAndVerify(t *testing.T) {
	m := newTestManager()

	pair, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	access, err := m.VerifyToken(pair.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("VerifyToken(access): %v", err)
	}
	if access.UserID != "42" || access.Username != "alice" {
		t.Errorf("access claims = %q/%q, want 42/alice", access.UserID, access.Username)
	}

	refresh, err := m.VerifyToken(pair.RefreshToken, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("VerifyToken(refresh): %v", err)
	}
	if refresh.Type != TokenTypeRefresh {
		t.Errorf("refresh type = %q", refresh.Type)
	}
}

func TestGeneratePairDistinctPerIssuance(t *testing.T) {
	m := newTestManager()

	// Both pairs are minted within the same second; the jti claim must
	// still make every token unique.
	a, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	b, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	if a.RefreshToken == b.RefreshToken {
		t.Error("two refresh issuances produced the same token")
	}
	if a.AccessToken == b.AccessToken {
		t.Error("two access issuances produced the same token")
	}

	claims, err := m.VerifyToken(a.RefreshToken, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if claims.ID == "" {
		t.Error("refresh token missing jti claim")
	}
}

func TestVerifyTokenTypeConfusion(t *testing.T) {
	m := newTestManager()
	pair, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	tests := []struct {
		name  string
		token string
		want  string
	}{
		{name: "refresh presented as access", token: pair.RefreshToken, want: TokenTypeAccess},
		{name: "access presented as refresh", token: pair.AccessToken, want: TokenTypeRefresh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.VerifyToken(tt.token, tt.want); !errors.Is(err, ErrWrongTokenType) {
				t.Errorf("err = %v, want ErrWrongTokenType", err)
			}
		})
	}
}

func TestVerifyTokenMissingType(t *testing.T) {
	m := newTestManager()

	// Token with a valid signature but no "type" claim at all.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId":   "42",
		"username": "alice",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifyToken(signed, TokenTypeAccess); !errors.Is(err, ErrWrongTokenType) {
		t.Errorf("err = %v, want ErrWrongTokenType", err)
	}
}

func TestVerifyTokenExpired(t *testing.T) {
	m := NewJWTManager(testSecret, -time.Minute, -time.Minute)
	pair, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	if _, err := m.VerifyToken(pair.AccessToken, TokenTypeAccess); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyTokenAlgNone(t *testing.T) {
	m := newTestManager()

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId":   "42",
		"username": "alice",
		"type":     TokenTypeAccess,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifyToken(signed, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenAlgorithmSubstitution(t *testing.T) {
	m := newTestManager()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa key: %v", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"userId":   "42",
		"username": "alice",
		"type":     TokenTypeAccess,
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := m.VerifyToken(signed, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenTampered(t *testing.T) {
	m := newTestManager()
	pair, err := m.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}

	tampered := pair.AccessToken + "x"
	if _, err := m.VerifyToken(tampered, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}

	otherKey := NewJWTManager("a-completely-different-secret", 15*time.Minute, time.Hour)
	foreign, err := otherKey.GeneratePair("42", "alice")
	if err != nil {
		t.Fatalf("GeneratePair: %v", err)
	}
	if _, err := m.VerifyToken(foreign.AccessToken, TokenTypeAccess); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
