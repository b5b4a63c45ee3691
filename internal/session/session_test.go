package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/ziadkadry99/pkweb/internal/db"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	sealed, err := NewSealedStore(NewMemoryStore(), "test secret")
	require.NoError(t, err)

	stores := map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": NewSQLStore(database),
		"sealed": sealed,
	}
	if pg := postgresStore(t); pg != nil {
		stores["postgres"] = pg
	}
	return stores
}

// postgresStore connects to PKWEB_TEST_POSTGRES_DSN with an emptied
// table, or returns nil when the variable is unset.
func postgresStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("PKWEB_TEST_POSTGRES_DSN")
	if dsn == "" {
		return nil
	}
	ctx := context.Background()
	pg, err := NewPostgresStore(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	_, err = pg.Pool.Exec(ctx, `TRUNCATE pk_session_values`)
	require.NoError(t, err)
	return pg
}

func TestStoreGetSetDelete(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "s1", "token")
			assert.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, store.Set(ctx, "s1", "token", "first"))
			require.NoError(t, store.Set(ctx, "s1", "token", "second"))
			require.NoError(t, store.Set(ctx, "s2", "token", "other"))

			got, err := store.Get(ctx, "s1", "token")
			require.NoError(t, err)
			assert.Equal(t, "second", got)

			require.NoError(t, store.Delete(ctx, "s1"))
			_, err = store.Get(ctx, "s1", "token")
			assert.ErrorIs(t, err, ErrNotFound)

			got, err = store.Get(ctx, "s2", "token")
			require.NoError(t, err)
			assert.Equal(t, "other", got)
		})
	}
}

func TestStorePurge(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Set(ctx, "old", "token", "x"))

			n, err := store.Purge(ctx, time.Now().Add(-time.Hour))
			require.NoError(t, err)
			assert.Zero(t, n)

			n, err = store.Purge(ctx, time.Now().Add(2*time.Second))
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			_, err = store.Get(ctx, "old", "token")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStoreTouchKeepsActiveSession(t *testing.T) {
	ctx := context.Background()
	stores := testStores(t)
	for _, store := range stores {
		require.NoError(t, store.Set(ctx, "active", "token", "abc123"))
		require.NoError(t, store.Set(ctx, "idle", "token", "old"))
	}

	// SQLite keeps whole seconds.
	time.Sleep(2100 * time.Millisecond)

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Touch(ctx, "active"))
			require.NoError(t, store.Touch(ctx, "unknown"))

			n, err := store.Purge(ctx, time.Now().Add(-500*time.Millisecond))
			require.NoError(t, err)
			assert.Equal(t, int64(1), n)

			got, err := store.Get(ctx, "active", "token")
			require.NoError(t, err)
			assert.Equal(t, "abc123", got)

			_, err = store.Get(ctx, "idle", "token")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestPostgresStore(t *testing.T) {
	pg := postgresStore(t)
	if pg == nil {
		t.Skip("PKWEB_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	_, err := pg.Get(ctx, "missing", "token")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, pg.Set(ctx, "s", "token", "a"))
	require.NoError(t, pg.Set(ctx, "s", "token", "b"))
	var rows int
	require.NoError(t, pg.Pool.QueryRow(ctx,
		`SELECT count(*) FROM pk_session_values WHERE session_id = 's'`).Scan(&rows))
	assert.Equal(t, 1, rows, "set must upsert")

	got, err := pg.Get(ctx, "s", "token")
	require.NoError(t, err)
	assert.Equal(t, "b", got)
}

func TestSealedStoreEncryptsAtRest(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	sealed, err := NewSealedStore(inner, "secret one")
	require.NoError(t, err)

	require.NoError(t, sealed.Set(ctx, "s", "token", "abc123"))

	raw, err := inner.Get(ctx, "s", "token")
	require.NoError(t, err)
	assert.NotContains(t, raw, "abc123")

	other, err := NewSealedStore(inner, "secret two")
	require.NoError(t, err)
	_, err = other.Get(ctx, "s", "token")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = NewSealedStore(inner, "")
	assert.Error(t, err)
}

func TestManagerIssuesSessionCookie(t *testing.T) {
	m := NewManager(NewMemoryStore(), "pk_session", false, zap.NewNop())

	var seen *Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, seen)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, "pk_session", c.Name)
	assert.Equal(t, seen.ID, c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Expires.IsZero(), "session cookie must not persist")
	assert.Zero(t, c.MaxAge)
}

func TestManagerReusesExistingSession(t *testing.T) {
	m := NewManager(NewMemoryStore(), "pk_session", false, zap.NewNop())
	id := uuid.NewString()

	var seen *Session
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pk_session", Value: id})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.NotNil(t, seen)
	assert.Equal(t, id, seen.ID)
	assert.Empty(t, rec.Result().Cookies())

	// Non-uuid cookie values are replaced.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "pk_session", Value: "forged"})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "forged", seen.ID)
	assert.Len(t, rec.Result().Cookies(), 1)
}

func TestManagerTouchesActiveSession(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	m := NewManager(store, "pk_session", false, zap.NewNop())
	id := uuid.NewString()
	require.NoError(t, NewSession(id, store).SetToken(ctx, "abc123"))

	time.Sleep(10 * time.Millisecond)
	cutoff := time.Now()

	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/system/abcde", nil)
	req.AddCookie(&http.Cookie{Name: "pk_session", Value: id})
	h.ServeHTTP(httptest.NewRecorder(), req)

	n, err := store.Purge(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, NewSession(id, store).HasToken(ctx))
}

func TestSessionToken(t *testing.T) {
	ctx := context.Background()
	sess := NewSession("s", NewMemoryStore())

	_, err := sess.Token(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.False(t, sess.HasToken(ctx))

	require.NoError(t, sess.SetToken(ctx, "abc123"))
	tok, err := sess.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc123", tok)

	stored, err := sess.Get(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "abc123", stored)

	require.NoError(t, sess.Clear(ctx))
	assert.False(t, sess.HasToken(ctx))
}

func TestProtected(t *testing.T) {
	patterns := []string{"/me", "/me/**"}
	tests := []struct {
		path string
		want bool
	}{
		{"/me", true},
		{"/me/members", true},
		{"/me/a/b", true},
		{"/", false},
		{"/system/abcde", false},
		{"/meh", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Protected(tt.path, patterns))
		})
	}
}

func TestRequireToken(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, "pk_session", false, zap.NewNop())
	h := m.Middleware(RequireToken([]string{"/me"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	id := uuid.NewString()
	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: "pk_session", Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do("/me")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	assert.Equal(t, http.StatusOK, do("/system/abc").Code)

	require.NoError(t, store.Set(context.Background(), id, "token", "tok"))
	assert.Equal(t, http.StatusOK, do("/me").Code)
}

func TestRunJanitorStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), "s", "token", "x"))
	m := NewManager(store, "", false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunJanitor(ctx, time.Nanosecond, 5*time.Millisecond)
		close(done)
	}()

	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), "s", "token")
		return err == ErrNotFound
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
}
