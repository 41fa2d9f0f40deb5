package memberauth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"

	ma "github.com/panyam/memberauth"
)

func newTestBinder() *ma.WebSessionBinder {
	return (&ma.WebSessionBinder{
		Session:      scs.New(),
		JWTSecretKey: "test-secret-key-123456",
	}).EnsureDefaults()
}

// runInSession runs fn inside the scs LoadAndSave middleware and returns
// the response, so session operations see a loaded session context.
func runInSession(t *testing.T, binder *ma.WebSessionBinder, cookies []*http.Cookie, fn http.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	binder.Session.LoadAndSave(fn).ServeHTTP(rr, req)
	return rr
}

func TestWebSessionBinderIssueAndRevoke(t *testing.T) {
	binder := newTestBinder()

	// Log in and capture the session cookie.
	rr := runInSession(t, binder, nil, func(w http.ResponseWriter, r *http.Request) {
		if err := binder.IssueSession(r.Context(), "alice", false); err != nil {
			t.Fatalf("IssueSession failed: %v", err)
		}
		if got := binder.LoggedInUsername(r.Context()); got != "alice" {
			t.Errorf("Expected alice in session, got %q", got)
		}
		if binder.AuthToken(r.Context()) == "" {
			t.Error("Session should carry an auth token")
		}
	})
	cookies := rr.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("Login should set a session cookie")
	}

	// The session survives into a second request.
	runInSession(t, binder, cookies, func(w http.ResponseWriter, r *http.Request) {
		if got := binder.LoggedInUsername(r.Context()); got != "alice" {
			t.Errorf("Session should persist across requests, got %q", got)
		}
		if err := binder.RevokeSession(r.Context()); err != nil {
			t.Fatalf("RevokeSession failed: %v", err)
		}
		if got := binder.LoggedInUsername(r.Context()); got != "" {
			t.Errorf("Revoked session should carry no username, got %q", got)
		}
	})
}

func TestWebSessionBinderVerifyToken(t *testing.T) {
	binder := newTestBinder()

	var token string
	runInSession(t, binder, nil, func(w http.ResponseWriter, r *http.Request) {
		if err := binder.IssueSession(r.Context(), "alice", false); err != nil {
			t.Fatalf("IssueSession failed: %v", err)
		}
		token = binder.AuthToken(r.Context())
	})
	if token == "" {
		t.Fatal("Expected a minted auth token")
	}

	username, _, err := binder.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken failed: %v", err)
	}
	if username != "alice" {
		t.Errorf("Expected alice, got %q", username)
	}

	if _, _, err := binder.VerifyToken("not-a-jwt"); err == nil {
		t.Error("Garbage tokens should fail verification")
	}

	other := (&ma.WebSessionBinder{
		Session:      scs.New(),
		JWTSecretKey: "a-different-secret-key",
	}).EnsureDefaults()
	if _, _, err := other.VerifyToken(token); err == nil {
		t.Error("Tokens signed with another key should fail verification")
	}
}

func TestMiddlewareBearerToken(t *testing.T) {
	binder := newTestBinder()

	var token string
	runInSession(t, binder, nil, func(w http.ResponseWriter, r *http.Request) {
		binder.IssueSession(r.Context(), "alice", false)
		token = binder.AuthToken(r.Context())
	})

	mw := &ma.Middleware{VerifyToken: binder.VerifyToken}
	var seenUsername string
	handler := mw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenUsername = mw.GetLoggedInUsername(r)
	}))

	t.Run("valid bearer token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d", rr.Code)
		}
		if seenUsername != "alice" {
			t.Errorf("Expected alice, got %q", seenUsername)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
	})

	t.Run("login redirect when configured", func(t *testing.T) {
		redirMw := &ma.Middleware{
			VerifyToken: binder.VerifyToken,
			GetRedirURL: func(r *http.Request) string { return "/login" },
		}
		protected := redirMw.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		req := httptest.NewRequest(http.MethodGet, "/protected/page", nil)
		rr := httptest.NewRecorder()
		protected.ServeHTTP(rr, req)
		if rr.Code != http.StatusFound {
			t.Fatalf("Expected redirect, got %d", rr.Code)
		}
		loc := rr.Header().Get("Location")
		if loc != "/login?callbackURL=%2Fprotected%2Fpage" {
			t.Errorf("Unexpected redirect target %q", loc)
		}
	})

	t.Run("extract user never rejects", func(t *testing.T) {
		var got string
		extract := mw.ExtractUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = mw.GetLoggedInUsername(r)
		}))
		req := httptest.NewRequest(http.MethodGet, "/page", nil)
		rr := httptest.NewRecorder()
		extract.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
		if got != "" {
			t.Errorf("Anonymous request should yield empty username, got %q", got)
		}
	})
}
