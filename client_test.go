package authclient_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	authclient "github.com/goliatone/go-auth-client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(payload))
}

func newManager(t *testing.T, srv *httptest.Server, opts ...authclient.Option) *authclient.Manager {
	t.Helper()
	return authclient.New(authclient.Options{BaseURL: srv.URL}, opts...)
}

func TestStartWithNoSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{"message": "no session"})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	state := manager.Start(context.Background())
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
	assert.Nil(t, state.User)
}

func TestStartWithLiveSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/verify", r.URL.Path)
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": "1", "email": "user@test.com"},
		})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	state := manager.Start(context.Background())
	assert.Equal(t, authclient.StatusAuthenticated, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "user@test.com", state.User.Email)
}

func TestStartRunsOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	manager.Start(context.Background())
	manager.Start(context.Background())
	manager.Start(context.Background())

	assert.Equal(t, int32(1), calls.Load())
}

func TestStartPrunesExpiredCredential(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSON(t, w, http.StatusOK, map[string]any{})
	}))
	defer srv.Close()

	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	expired := signedToken(t, jwt.MapClaims{"sub": "1", "exp": now.Add(-time.Hour).Unix()})

	creds := authclient.NewMemoryCredentialStore()
	require.NoError(t, creds.Set(expired))

	var events []authclient.ActivityEvent
	manager := newManager(t, srv,
		authclient.WithCredentialStore(creds),
		authclient.WithClock(func() time.Time { return now }),
		authclient.WithActivitySink(authclient.ActivitySinkFunc(func(ctx context.Context, e authclient.ActivityEvent) error {
			events = append(events, e)
			return nil
		})),
	)

	state := manager.Start(context.Background())

	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
	assert.Equal(t, int32(0), calls.Load(), "expired credential should not hit the network")

	stored, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "", stored)

	require.Len(t, events, 1)
	assert.Equal(t, authclient.ActivityEventCredentialPruned, events[0].EventType)
}

func TestLoginHappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user@test.com", body["email"])

		writeJSON(t, w, http.StatusOK, map[string]any{
			"data": map[string]any{
				"user":  map[string]any{"id": "1", "email": "user@test.com"},
				"token": "tok-abc",
			},
		})
	}))
	defer srv.Close()

	creds := authclient.NewMemoryCredentialStore()
	manager := newManager(t, srv, authclient.WithCredentialStore(creds))

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "user@test.com", state.User.Email)
	assert.Equal(t, "tok-abc", state.Credential)

	stored, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", stored)
}

func TestLoginValidatesBeforeNetwork(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email: "user@test.com",
	})

	require.Error(t, err)
	assert.True(t, authclient.IsValidationError(err))
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, authclient.StatusUnknown, state.Status, "failed validation must not settle the store")
}

func TestLoginRejectedByServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{
			"message": "Invalid email or password",
		})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "wrong",
	})

	require.Error(t, err)
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
	assert.Equal(t, "Invalid email or password", authclient.ErrorMessage(err, "fallback"))
}

func TestLoginServerErrorObjectMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]any{
			"error": map[string]any{"message": "Account locked"},
		})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	_, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.Error(t, err)
	assert.Equal(t, "Account locked", authclient.ErrorMessage(err, "fallback"))
}

func TestLoginNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>login page</html>"))
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.ErrorIs(t, err, authclient.ErrUnexpectedResponse)
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
}

func TestLoginCookieOnlyBackend(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s-1", Path: "/"})
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "s-1" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": "1", "email": "user@test.com"},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "user@test.com", state.User.Email)
}

func TestLoginAcceptedButNoSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		// 2xx but no user, no token, no cookie
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.ErrorIs(t, err, authclient.ErrSessionNotEstablished)
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
}

func TestLoginServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	manager := newManager(t, srv)

	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})

	require.Error(t, err)
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
}

func TestLogoutClearsLocallyDespiteNetworkFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user":  map[string]any{"id": "1", "email": "user@test.com"},
			"token": "tok-abc",
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	creds := authclient.NewMemoryCredentialStore()
	manager := newManager(t, srv, authclient.WithCredentialStore(creds))

	_, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})
	require.NoError(t, err)

	state := manager.Logout(context.Background())

	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
	assert.Nil(t, state.User)

	stored, err := creds.Get()
	require.NoError(t, err)
	assert.Equal(t, "", stored)
}

func TestVerifyNonJSONIsNotAuthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>proxy error page</html>"))
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	_, err := manager.Verify(context.Background())
	assert.True(t, authclient.IsNotAuthenticatedError(err))

	state := manager.Start(context.Background())
	assert.Equal(t, authclient.StatusUnauthenticated, state.Status)
}

func TestVerifySendsBearerCredential(t *testing.T) {
	var gotAuth string
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotAuth = r.Header.Get("Authorization")
		mu.Unlock()
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": "1", "email": "user@test.com"},
		})
	}))
	defer srv.Close()

	creds := authclient.NewMemoryCredentialStore()
	require.NoError(t, creds.Set("tok-abc"))

	manager := newManager(t, srv,
		authclient.WithCredentialStore(creds),
		authclient.WithoutCredentialExpiryCheck(),
	)

	_, err := manager.Verify(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Bearer tok-abc", gotAuth)
}

func TestRefreshDiscardsStaleResponse(t *testing.T) {
	received := make(chan struct{})
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(received)
		<-release
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
	}))
	defer srv.Close()

	manager := newManager(t, srv)

	done := make(chan authclient.SessionState, 1)
	go func() {
		done <- manager.Refresh(context.Background())
	}()

	<-received

	// a login commits while the verification is still in flight
	committed := manager.Store().Set(authclient.SessionState{
		Status: authclient.StatusAuthenticated,
		User:   &authclient.User{ID: "1", Email: "user@test.com"},
	})
	require.Equal(t, authclient.StatusAuthenticated, committed.Status)

	close(release)
	result := <-done

	// the stale 401 must not overwrite the newer session
	assert.Equal(t, authclient.StatusAuthenticated, result.Status)
	assert.Equal(t, authclient.StatusAuthenticated, manager.Store().Current().Status)
}

func TestLoginConfirmsCookieWithFreshVerification(t *testing.T) {
	var verifies atomic.Int32
	received := make(chan struct{})
	release := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		// the first verification is issued before login and hangs until
		// after login has established the cookie session
		if verifies.Add(1) == 1 {
			close(received)
			<-release
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
			return
		}
		cookie, err := r.Cookie("session")
		if err != nil || cookie.Value != "s-1" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": "1", "email": "user@test.com"},
		})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "s-1", Path: "/"})
		writeJSON(t, w, http.StatusOK, map[string]any{"ok": true})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	manager := newManager(t, srv)

	done := make(chan authclient.SessionState, 1)
	go func() {
		done <- manager.Refresh(context.Background())
	}()
	<-received

	// the cookie-only fallback must not adopt the pre-login verification
	// still in flight; its 401 predates the cookie
	state, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})
	require.NoError(t, err)
	assert.Equal(t, authclient.StatusAuthenticated, state.Status)
	require.NotNil(t, state.User)
	assert.Equal(t, "user@test.com", state.User.Email)

	close(release)
	<-done

	// the superseded 401 is discarded, not committed
	assert.Equal(t, authclient.StatusAuthenticated, manager.Store().Current().Status)
	assert.GreaterOrEqual(t, verifies.Load(), int32(2), "login must issue its own verification")
}

func TestActivityEventsAcrossLifecycle(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]any{})
	})
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]any{
			"user": map[string]any{"id": "1", "email": "user@test.com"},
		})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var mu sync.Mutex
	var events []authclient.ActivityEvent
	manager := newManager(t, srv, authclient.WithActivitySink(
		authclient.ActivitySinkFunc(func(ctx context.Context, e authclient.ActivityEvent) error {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, e)
			return nil
		}),
	))

	manager.Start(context.Background())
	_, err := manager.Login(context.Background(), authclient.LoginRequest{
		Email:    "user@test.com",
		Password: "secret",
	})
	require.NoError(t, err)
	manager.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 3)
	assert.Equal(t, authclient.ActivityEventSessionRejected, events[0].EventType)
	assert.Equal(t, authclient.ActivityEventLoginSuccess, events[1].EventType)
	assert.Equal(t, "1", events[1].UserID)
	assert.Equal(t, authclient.ActivityEventLogout, events[2].EventType)
	assert.Equal(t, "1", events[2].UserID)

	for _, event := range events {
		assert.NotEmpty(t, event.ID)
		assert.False(t, event.OccurredAt.IsZero())
	}
}
