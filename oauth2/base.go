// Package oauth2 implements the provider handshake side of memberauth:
// redirecting to external OAuth providers, verifying callbacks and handing
// the verified (provider, provider user id) identity back to the
// application. It is the web implementation of the OAuthExchange
// collaborator the credential core consumes.
package oauth2

import (
	"context"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"

	ma "github.com/panyam/memberauth"
)

// HandleIdentityFunc is called after a successful callback verification
// with the provider name, the provider's user id for the subject, the
// exchanged token and the raw user info payload. Typical implementations
// link the identity via OAuthManager.CreateOAuthAccount and issue a
// session.
type HandleIdentityFunc func(provider string, providerUserID string, token *oauth2.Token, userInfo map[string]any, w http.ResponseWriter, r *http.Request)

// BaseClient carries the pieces shared by all provider clients.
type BaseClient struct {
	ProviderName string
	ClientId     string
	ClientSecret string
	CallbackURL  string

	// HandleIdentity receives the verified identity.
	HandleIdentity HandleIdentityFunc

	// AuthFailureUrl is where failed handshakes redirect. Defaults to
	// "/auth/<provider>/fail/".
	AuthFailureUrl string

	// HTTPClient is used for user info fetches. Defaults to
	// http.DefaultClient; tests can inject one.
	HTTPClient *http.Client

	oauthConfig oauth2.Config
	mux         *http.ServeMux
}

func newBaseClient(provider, clientId, clientSecret, callbackUrl string, handleIdentity HandleIdentityFunc) *BaseClient {
	envPrefix := "OAUTH2_" + strings.ToUpper(provider)
	if clientId == "" {
		clientId = strings.TrimSpace(os.Getenv(envPrefix + "_CLIENT_ID"))
	}
	if clientSecret == "" {
		clientSecret = strings.TrimSpace(os.Getenv(envPrefix + "_CLIENT_SECRET"))
	}
	if callbackUrl == "" {
		callbackUrl = strings.TrimSpace(os.Getenv(envPrefix + "_CALLBACK_URL"))
	}
	out := &BaseClient{
		ProviderName:   provider,
		ClientId:       clientId,
		ClientSecret:   clientSecret,
		CallbackURL:    callbackUrl,
		HandleIdentity: handleIdentity,
		AuthFailureUrl: "/auth/" + provider + "/fail/",
		mux:            http.NewServeMux(),
		oauthConfig: oauth2.Config{
			ClientID:     clientId,
			ClientSecret: clientSecret,
			RedirectURL:  callbackUrl,
		},
	}
	out.mux.HandleFunc("/", Redirector(&out.oauthConfig))
	return out
}

// Config exposes the underlying oauth2 config, e.g. for registering the
// client in a ProviderRegistry.
func (b *BaseClient) Config() *oauth2.Config {
	return &b.oauthConfig
}

// ClientData packages this client for a memberauth.ProviderRegistry.
func (b *BaseClient) ClientData(displayName string) ma.ClientData {
	return ma.ClientData{
		Name:        b.ProviderName,
		DisplayName: displayName,
		Client:      &b.oauthConfig,
	}
}

// ServeHTTP serves the redirect and callback endpoints. Mount the client
// under its provider prefix, e.g. /auth/google/.
func (b *BaseClient) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

// ExchangeContext is the context used for the code exchange.
func (b *BaseClient) ExchangeContext() context.Context {
	return context.Background()
}

func (b *BaseClient) getHTTPClient() *http.Client {
	if b.HTTPClient != nil {
		return b.HTTPClient
	}
	return http.DefaultClient
}
