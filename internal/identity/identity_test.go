package identity

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

func signedToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return raw
}

func TestResolve(t *testing.T) {
	ctx := ContextWithClaims(context.Background(), Claims{"sub": "alice"})

	owner, err := Resolve(ctx)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if owner != "USER#alice" {
		t.Errorf("owner = %q, want USER#alice", owner)
	}
}

func TestResolveRejectsMissingClaims(t *testing.T) {
	tests := map[string]context.Context{
		"no claims":      context.Background(),
		"missing sub":    ContextWithClaims(context.Background(), Claims{"iss": "x"}),
		"empty sub":      ContextWithClaims(context.Background(), Claims{"sub": ""}),
		"non-string sub": ContextWithClaims(context.Background(), Claims{"sub": 42}),
	}
	for name, ctx := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Resolve(ctx); !cerr.IsCode(err, cerr.Unauthenticated) {
				t.Errorf("expected Unauthenticated, got %v", err)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	v := NewVerifier("secret", "")
	raw := signedToken(t, "secret", jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	claims, err := v.Verify(raw)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims["sub"] != "alice" {
		t.Errorf("sub = %v, want alice", claims["sub"])
	}
}

func TestVerifyRejectsBadTokens(t *testing.T) {
	v := NewVerifier("secret", "issuer")

	tests := map[string]string{
		"garbage": "not-a-token",
		"wrong secret": signedToken(t, "other-secret", jwt.MapClaims{
			"sub": "alice", "iss": "issuer", "exp": time.Now().Add(time.Hour).Unix(),
		}),
		"expired": signedToken(t, "secret", jwt.MapClaims{
			"sub": "alice", "iss": "issuer", "exp": time.Now().Add(-time.Hour).Unix(),
		}),
		"wrong issuer": signedToken(t, "secret", jwt.MapClaims{
			"sub": "alice", "iss": "someone-else", "exp": time.Now().Add(time.Hour).Unix(),
		}),
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := v.Verify(raw); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

func TestVerifyRejectsUnexpectedAlgorithm(t *testing.T) {
	v := NewVerifier("secret", "")
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}

	if _, err := v.Verify(raw); err == nil {
		t.Error("expected HS512 token to be rejected")
	}
}
