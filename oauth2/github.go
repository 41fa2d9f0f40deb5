package oauth2

import (
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2/github"
)

const defaultGithubUserInfoURL = "https://api.github.com/user"

// GithubClient drives the GitHub OAuth2 handshake.
type GithubClient struct {
	*BaseClient

	// UserInfoURL can be overridden in tests.
	UserInfoURL string
}

func NewGithubClient(clientId, clientSecret, callbackUrl string, handleIdentity HandleIdentityFunc) *GithubClient {
	base := newBaseClient("github", clientId, clientSecret, callbackUrl, handleIdentity)
	base.oauthConfig.Scopes = []string{"read:user", "user:email"}
	base.oauthConfig.Endpoint = github.Endpoint
	out := &GithubClient{BaseClient: base, UserInfoURL: defaultGithubUserInfoURL}
	base.mux.HandleFunc("/callback/", out.handleCallback)
	return out
}

func (g *GithubClient) handleCallback(w http.ResponseWriter, r *http.Request) {
	if err := validateState(r); err != nil {
		failHandshake(w, r, g.AuthFailureUrl, err)
		return
	}
	token, err := g.oauthConfig.Exchange(g.ExchangeContext(), r.FormValue("code"))
	if err != nil {
		failHandshake(w, r, g.AuthFailureUrl, fmt.Errorf("code exchange failed: %w", err))
		return
	}
	userInfo, err := fetchJSON(g.getHTTPClient(), g.UserInfoURL, token.AccessToken)
	if err != nil {
		failHandshake(w, r, g.AuthFailureUrl, err)
		return
	}
	providerUserID := githubUserID(userInfo)
	if providerUserID == "" {
		failHandshake(w, r, g.AuthFailureUrl, fmt.Errorf("github user info missing id"))
		return
	}
	g.HandleIdentity(g.ProviderName, providerUserID, token, userInfo, w, r)
}

// githubUserID extracts the numeric account id. GitHub returns it as a
// JSON number.
func githubUserID(userInfo map[string]any) string {
	switch v := userInfo["id"].(type) {
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case string:
		return v
	default:
		return ""
	}
}
