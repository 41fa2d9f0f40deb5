package memberauth

import (
	"fmt"
	"strings"
)

// ClientData describes one configured OAuth provider: its registered name,
// a display name for UIs, the provider client handle (typically an
// *oauth2.Config, but the registry does not care), and free-form extra
// metadata.
type ClientData struct {
	Name        string
	DisplayName string
	Client      any
	Extra       map[string]any
}

// ProviderRegistry is the process-wide set of configured OAuth providers.
// It is built once at startup and read-only afterwards; there is no
// registration after construction, so concurrent reads need no
// synchronization.
type ProviderRegistry struct {
	clients map[string]*ClientData
	names   []string
}

// NewProviderRegistry builds an immutable registry from the given clients.
// Provider names are matched case-insensitively. A duplicate name keeps the
// last entry.
func NewProviderRegistry(clients ...ClientData) *ProviderRegistry {
	r := &ProviderRegistry{clients: make(map[string]*ClientData, len(clients))}
	for i := range clients {
		c := clients[i]
		key := strings.ToLower(c.Name)
		if _, exists := r.clients[key]; !exists {
			r.names = append(r.names, c.Name)
		}
		r.clients[key] = &c
	}
	return r
}

// Get looks up a provider by name, case-insensitively. An unknown name is
// an error, not an empty result.
func (r *ProviderRegistry) Get(name string) (*ClientData, error) {
	if c, ok := r.clients[strings.ToLower(name)]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrProviderNotFound, name)
}

// Names returns the registered provider names in registration order.
func (r *ProviderRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All returns all registered clients.
func (r *ProviderRegistry) All() []*ClientData {
	out := make([]*ClientData, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.clients[strings.ToLower(name)])
	}
	return out
}
