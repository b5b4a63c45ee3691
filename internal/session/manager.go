package session

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/config"
)

type ctxKey struct{}

// Manager binds browser sessions to values in a Store.
type Manager struct {
	store      Store
	cookieName string
	secure     bool
	logger     *zap.Logger
}

// NewManager creates a Manager. The cookie carries no expiry, so the
// browser drops it when the browsing session ends.
func NewManager(store Store, cookieName string, secure bool, logger *zap.Logger) *Manager {
	if cookieName == "" {
		cookieName = "pk_session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{store: store, cookieName: cookieName, secure: secure, logger: logger.Named("session")}
}

// Middleware attaches a Session to every request, issuing a new session
// cookie when the request carries none. Requests on an existing session
// reset its idle clock.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(m.cookieName); err == nil {
			if _, perr := uuid.Parse(c.Value); perr == nil {
				id = c.Value
			}
		}
		if id != "" {
			if err := m.store.Touch(r.Context(), id); err != nil {
				m.logger.Warn("touching session failed", zap.Error(err))
			}
		} else {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		sess := &Session{ID: id, store: m.store}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), sess)))
	})
}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the request's session, or nil outside Middleware.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(ctxKey{}).(*Session)
	return sess
}

// RunJanitor purges values idle for longer than ttl every interval until
// ctx is done.
func (m *Manager) RunJanitor(ctx context.Context, ttl, interval time.Duration) {
	if ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := m.store.Purge(ctx, time.Now().Add(-ttl))
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					m.logger.Warn("purging idle sessions failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				m.logger.Debug("purged idle session values", zap.Int64("count", n))
			}
		}
	}
}

// Session is one browser session's view of the Store.
type Session struct {
	ID    string
	store Store
}

// NewSession binds id to store directly, for callers outside HTTP.
func NewSession(id string, store Store) *Session {
	return &Session{ID: id, store: store}
}

func (s *Session) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, s.ID, key)
}

func (s *Session) Set(ctx context.Context, key, value string) error {
	return s.store.Set(ctx, s.ID, key, value)
}

// Token returns the stored access token, or ErrNotFound.
func (s *Session) Token(ctx context.Context) (string, error) {
	tok, err := s.Get(ctx, config.TokenKey)
	if err != nil {
		return "", err
	}
	if tok == "" {
		return "", ErrNotFound
	}
	return tok, nil
}

// SetToken overwrites the stored access token.
func (s *Session) SetToken(ctx context.Context, token string) error {
	return s.Set(ctx, config.TokenKey, token)
}

// HasToken reports whether a token is stored. Storage errors read as false.
func (s *Session) HasToken(ctx context.Context) bool {
	_, err := s.Token(ctx)
	return err == nil
}

// Clear removes every value in the session.
func (s *Session) Clear(ctx context.Context) error {
	return s.store.Delete(ctx, s.ID)
}
