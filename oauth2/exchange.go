package oauth2

import (
	"context"
	"fmt"

	ma "github.com/panyam/memberauth"
)

type handshakeKey struct{}

// HandshakeResult is the verified outcome of a provider callback.
type HandshakeResult struct {
	Provider       string
	ProviderUserID string
}

// WithHandshakeResult stashes a verified handshake on the context.
// HandleIdentity implementations call this before delegating to
// OAuthManager.Login or VerifyAuthentication.
func WithHandshakeResult(ctx context.Context, provider, providerUserID string) context.Context {
	return context.WithValue(ctx, handshakeKey{}, HandshakeResult{
		Provider:       provider,
		ProviderUserID: providerUserID,
	})
}

// HandshakeResultFrom returns the handshake carried by ctx, if any.
func HandshakeResultFrom(ctx context.Context) (HandshakeResult, bool) {
	res, ok := ctx.Value(handshakeKey{}).(HandshakeResult)
	return res, ok
}

// ContextExchange implements memberauth.OAuthExchange over handshake
// results carried in the request context. The HTTP clients in this
// package perform the actual redirect and callback verification; this
// type bridges their output to the credential core.
type ContextExchange struct{}

var _ ma.OAuthExchange = ContextExchange{}

func (ContextExchange) ActiveProvider(ctx context.Context) string {
	res, _ := HandshakeResultFrom(ctx)
	return res.Provider
}

// RequestAuthentication cannot start a browser redirect from a bare
// context. The redirect is served by the provider client itself, so
// callers should send users to the client's mount point instead.
func (ContextExchange) RequestAuthentication(ctx context.Context, client *ma.ClientData) error {
	if client == nil {
		return fmt.Errorf("no oauth client given")
	}
	return fmt.Errorf("provider %q authenticates via its HTTP redirect endpoint", client.Name)
}

func (ContextExchange) VerifyAuthentication(ctx context.Context, client *ma.ClientData) (string, error) {
	res, ok := HandshakeResultFrom(ctx)
	if !ok {
		return "", fmt.Errorf("no verified oauth handshake in context")
	}
	if client != nil && client.Name != "" && res.Provider != client.Name {
		return "", fmt.Errorf("handshake provider %q does not match %q", res.Provider, client.Name)
	}
	return res.ProviderUserID, nil
}
