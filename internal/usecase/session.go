package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/feder102/handball-agrupacion-api/internal/core/domain"
)

// ErrInvalidToken reports a platform access token that failed verification.
var ErrInvalidToken = errors.New("invalid access token")

// Session is the authenticated state derived from a platform access token.
type Session struct {
	UserID    string
	Email     string
	Role      domain.Role
	ExpiresAt time.Time
}

// SessionContext holds the process-wide authenticated session. One instance
// is shared by everything that needs to know who is signed in; consumers
// subscribe to auth-state changes instead of re-parsing tokens themselves.
type SessionContext struct {
	secret []byte
	logger *zap.Logger

	mu       sync.RWMutex
	current  *Session
	watchers []chan Session
}

// NewSessionContext builds the shared session holder. The secret verifies
// platform-issued HS256 tokens.
func NewSessionContext(jwtSecret string, log *zap.Logger) *SessionContext {
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionContext{
		secret: []byte(jwtSecret),
		logger: log,
	}
}

// UpdateFromToken verifies the access token, replaces the current session and
// notifies watchers. The previous session survives a failed update.
func (c *SessionContext) UpdateFromToken(token string) (Session, error) {
	session, err := c.parse(token)
	if err != nil {
		return Session{}, err
	}

	c.mu.Lock()
	c.current = &session
	watchers := append([]chan Session(nil), c.watchers...)
	c.mu.Unlock()

	c.notify(watchers, session)

	c.logger.Debug("session updated",
		zap.String("user_id", session.UserID),
		zap.String("role", string(session.Role)),
	)

	return session, nil
}

// Clear drops the current session and notifies watchers with a zero session.
func (c *SessionContext) Clear() {
	c.mu.Lock()
	c.current = nil
	watchers := append([]chan Session(nil), c.watchers...)
	c.mu.Unlock()

	c.notify(watchers, Session{})
}

// Current returns the active session, if any. Expired sessions are treated
// as absent.
func (c *SessionContext) Current() (Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.current == nil {
		return Session{}, false
	}
	if !c.current.ExpiresAt.IsZero() && time.Now().After(c.current.ExpiresAt) {
		return Session{}, false
	}
	return *c.current, true
}

// Watch registers for auth-state changes. Each update delivers the latest
// session; a zero session means signed out. Slow watchers only ever miss
// intermediate states, never the latest one.
func (c *SessionContext) Watch() <-chan Session {
	ch := make(chan Session, 1)
	c.mu.Lock()
	c.watchers = append(c.watchers, ch)
	c.mu.Unlock()
	return ch
}

func (c *SessionContext) notify(watchers []chan Session, session Session) {
	for _, ch := range watchers {
		// Replace a stale pending value so the channel always holds the
		// most recent state.
		select {
		case ch <- session:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- session:
			default:
			}
		}
	}
}

func (c *SessionContext) parse(token string) (Session, error) {
	if len(c.secret) == 0 {
		return Session{}, fmt.Errorf("%w: no verification secret configured", ErrInvalidToken)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Session{}, fmt.Errorf("%w: unexpected claims shape", ErrInvalidToken)
	}

	session := Session{Role: domain.DefaultRole}

	if sub, err := claims.GetSubject(); err == nil {
		session.UserID = sub
	}
	if session.UserID == "" {
		return Session{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	if email, ok := claims["email"].(string); ok {
		session.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		session.ExpiresAt = exp.Time
	}

	if meta, ok := claims["user_metadata"].(map[string]any); ok {
		if raw, ok := meta["rol"].(string); ok {
			if role := domain.Role(raw); role.Valid() {
				session.Role = role
			}
		}
	}

	return session, nil
}
