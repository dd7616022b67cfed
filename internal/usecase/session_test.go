package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

const sessionTestSecret = "session-test-secret"

func signSessionToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(sessionTestSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestSessionContextUpdateFromToken(t *testing.T) {
	ctx := NewSessionContext(sessionTestSecret, nil)

	token := signSessionToken(t, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ana@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"rol": "contador",
		},
	})

	session, err := ctx.UpdateFromToken(token)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if session.UserID != "user-1" || session.Email != "ana@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.Role != domain.RoleContador {
		t.Fatalf("metadata role not applied: %q", session.Role)
	}

	current, ok := ctx.Current()
	if !ok || current.UserID != "user-1" {
		t.Fatalf("current session missing after update")
	}
}

func TestSessionContextDefaultsRole(t *testing.T) {
	ctx := NewSessionContext(sessionTestSecret, nil)

	token := signSessionToken(t, jwt.MapClaims{
		"sub": "user-2",
		"exp": time.Now().Add(time.Hour).Unix(),
		"user_metadata": map[string]any{
			"rol": "superusuario",
		},
	})

	session, err := ctx.UpdateFromToken(token)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if session.Role != domain.DefaultRole {
		t.Fatalf("unknown role not defaulted: %q", session.Role)
	}
}

func TestSessionContextRejectsBadSignature(t *testing.T) {
	ctx := NewSessionContext(sessionTestSecret, nil)

	good := signSessionToken(t, jwt.MapClaims{
		"sub": "user-3",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	if _, err := ctx.UpdateFromToken(good); err != nil {
		t.Fatalf("update: %v", err)
	}

	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "intruder",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	forgedToken, err := forged.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign forged token: %v", err)
	}

	if _, err := ctx.UpdateFromToken(forgedToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}

	// A failed update never evicts the existing session.
	current, ok := ctx.Current()
	if !ok || current.UserID != "user-3" {
		t.Fatalf("valid session lost after rejected token")
	}
}

func TestSessionContextExpiredSessionAbsent(t *testing.T) {
	ctx := NewSessionContext(sessionTestSecret, nil)

	token := signSessionToken(t, jwt.MapClaims{
		"sub": "user-4",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	session, err := ctx.UpdateFromToken(token)
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	// Simulate the clock passing the expiry.
	ctx.mu.Lock()
	expired := session
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	ctx.current = &expired
	ctx.mu.Unlock()

	if _, ok := ctx.Current(); ok {
		t.Fatal("expired session reported as current")
	}
}

func TestSessionContextWatchReceivesLatestState(t *testing.T) {
	ctx := NewSessionContext(sessionTestSecret, nil)
	watch := ctx.Watch()

	first := signSessionToken(t, jwt.MapClaims{
		"sub": "user-5",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	second := signSessionToken(t, jwt.MapClaims{
		"sub": "user-6",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	if _, err := ctx.UpdateFromToken(first); err != nil {
		t.Fatalf("first update: %v", err)
	}
	if _, err := ctx.UpdateFromToken(second); err != nil {
		t.Fatalf("second update: %v", err)
	}

	// The slow watcher missed user-5 but must see the latest state.
	session := <-watch
	if session.UserID != "user-6" {
		t.Fatalf("watcher got stale session %q", session.UserID)
	}

	ctx.Clear()
	session = <-watch
	if session.UserID != "" {
		t.Fatalf("expected zero session after clear, got %q", session.UserID)
	}

	if _, ok := ctx.Current(); ok {
		t.Fatal("session still current after clear")
	}
}
