package oauth2

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const stateCookieName = "oauthstate"

// Redirector returns a handler that starts the handshake: it sets a
// random state cookie and redirects the browser to the provider's
// consent page.
func Redirector(config *oauth2.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := generateStateToken(w)
		url := config.AuthCodeURL(state)
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

func generateStateToken(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)
	expiration := time.Now().Add(10 * time.Minute)
	cookie := http.Cookie{
		Name:     stateCookieName,
		Value:    state,
		Expires:  expiration,
		HttpOnly: true,
		Path:     "/",
	}
	http.SetCookie(w, &cookie)
	return state
}

// validateState compares the state param in the callback against the
// cookie set when the handshake started.
func validateState(r *http.Request) error {
	cookie, err := r.Cookie(stateCookieName)
	if err != nil {
		return fmt.Errorf("missing oauth state cookie: %w", err)
	}
	if r.FormValue("state") != cookie.Value {
		return fmt.Errorf("oauth state mismatch")
	}
	return nil
}

// fetchJSON GETs url with the given bearer token and decodes the JSON
// response into a generic map.
func fetchJSON(client *http.Client, url, accessToken string) (map[string]any, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching user info: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("user info request failed (%d): %s", resp.StatusCode, body)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding user info: %w", err)
	}
	return out, nil
}

func failHandshake(w http.ResponseWriter, r *http.Request, failureUrl string, err error) {
	slog.Error("oauth handshake failed", "error", err, "path", r.URL.Path)
	http.Redirect(w, r, failureUrl, http.StatusTemporaryRedirect)
}
