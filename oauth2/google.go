package oauth2

import (
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const defaultGoogleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// GoogleClient drives the Google OAuth2 handshake.
type GoogleClient struct {
	*BaseClient

	// UserInfoURL can be overridden in tests.
	UserInfoURL string
}

func NewGoogleClient(clientId, clientSecret, callbackUrl string, handleIdentity HandleIdentityFunc) *GoogleClient {
	base := newBaseClient("google", clientId, clientSecret, callbackUrl, handleIdentity)
	base.oauthConfig.Scopes = []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}
	base.oauthConfig.Endpoint = google.Endpoint
	out := &GoogleClient{BaseClient: base, UserInfoURL: defaultGoogleUserInfoURL}
	base.mux.HandleFunc("/callback/", out.handleCallback)
	return out
}

func (g *GoogleClient) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := validateState(r); err != nil {
		failHandshake(w, r, g.AuthFailureUrl, err)
		return
	}
	token, err := g.oauthConfig.Exchange(g.ExchangeContext(), r.FormValue("code"))
	if err != nil {
		failHandshake(w, r, g.AuthFailureUrl, fmt.Errorf("code exchange failed: %w", err))
		return
	}
	userInfo, err := g.fetchUserInfo(token)
	if err != nil {
		failHandshake(w, r, g.AuthFailureUrl, err)
		return
	}
	providerUserID, ok := userInfo["id"].(string)
	if !ok || providerUserID == "" {
		failHandshake(w, r, g.AuthFailureUrl, fmt.Errorf("google user info missing id"))
		return
	}
	g.HandleIdentity(g.ProviderName, providerUserID, token, userInfo, w, r)
}

func (g *GoogleClient) fetchUserInfo(token *oauth2.Token) (map[string]any, error) {
	return fetchJSON(g.getHTTPClient(), g.UserInfoURL, token.AccessToken)
}
