package memberauth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

type userParamNameKey string

// Middleware extracts the authenticated username from a request, checking
// the server-side session first and falling back to a JWT carried in the
// auth header or cookie.
type Middleware struct {
	AuthTokenHeaderName string
	AuthTokenCookieName string
	UserParamName       string
	CallbackURLParam    string
	SessionGetter       func(r *http.Request, param string) any
	GetRedirURL         func(r *http.Request) string
	VerifyToken         func(tokenString string) (username string, token any, err error)
}

// EnsureReasonableDefaults fills in default config values.
func (a *Middleware) EnsureReasonableDefaults() {
	if a.UserParamName == "" {
		a.UserParamName = "loggedInUsername"
	}
	if a.CallbackURLParam == "" {
		a.CallbackURLParam = "callbackURL"
	}
	if a.AuthTokenHeaderName == "" {
		a.AuthTokenHeaderName = "Authorization"
	}
}

// GetLoggedInUsername returns the username for the current request, or ""
// when the request carries no valid authentication.
func (a *Middleware) GetLoggedInUsername(r *http.Request) string {
	if v := r.Context().Value(userParamNameKey(a.UserParamName)); v != nil {
		if username := v.(string); username != "" {
			return username
		}
	}

	if a.SessionGetter != nil {
		if v := a.SessionGetter(r, a.UserParamName); v != nil && v != "" {
			return v.(string)
		}
	}

	if a.VerifyToken == nil {
		slog.Warn("no auth token verifier configured")
		return ""
	}

	authTokens := r.Header.Values(a.AuthTokenHeaderName)
	for i, t := range authTokens {
		authTokens[i] = strings.TrimPrefix(t, "Bearer ")
	}
	for _, cookie := range r.CookiesNamed(a.AuthTokenCookieName) {
		if len(cookie.Value) > 0 {
			authTokens = append(authTokens, cookie.Value)
		}
	}

	for _, authToken := range authTokens {
		username, _, err := a.VerifyToken(authToken)
		if err == nil && username != "" {
			return username
		} else if err != nil {
			slog.Warn("error verifying token", "error", err)
		}
	}
	return ""
}

// ExtractUser loads the logged-in username (if any) into the request
// context for downstream handlers. It performs no redirects; use
// RequireUser to enforce a login.
func (a *Middleware) ExtractUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			username := a.GetLoggedInUsername(r)
			next.ServeHTTP(w, a.setLoggedInUsername(username, r))
		},
	)
}

// RequireUser behaves like ExtractUser but rejects unauthenticated
// requests, redirecting to the configured login URL when one is set and
// returning 401 otherwise.
func (a *Middleware) RequireUser(next http.Handler) http.Handler {
	a.EnsureReasonableDefaults()
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			username := a.GetLoggedInUsername(r)
			if username == "" {
				redirUrl := ""
				if a.GetRedirURL != nil {
					redirUrl = a.GetRedirURL(r)
				}
				if redirUrl != "" {
					originalUrl := r.URL.Path
					encodedUrl := strings.Replace(url.QueryEscape(originalUrl), "+", "%20", -1)
					fullRedirUrl := fmt.Sprintf("%s?%s=%s", redirUrl, a.CallbackURLParam, encodedUrl)
					http.Redirect(w, r, fullRedirUrl, http.StatusFound)
				} else {
					http.Error(w, "Login Required", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, a.setLoggedInUsername(username, r))
		},
	)
}

// Set the logged in username into the request's context, making it
// available to all handlers downstream.
func (a *Middleware) setLoggedInUsername(username string, r *http.Request) *http.Request {
	ctx := context.WithValue(r.Context(), userParamNameKey(a.UserParamName), username)
	return r.WithContext(ctx)
}
