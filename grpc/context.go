// Package grpc carries the authenticated member identity between HTTP
// front doors and gRPC backends via request metadata. The identity is a
// (username, license) pair, matching the tenant-scoped accounts the
// credential core manages.
package grpc

import (
	"context"

	"google.golang.org/grpc/metadata"
)

// Default metadata keys. Override via Config if your proxy already
// reserves these.
const (
	// DefaultMetadataKeyUsername carries the authenticated username.
	DefaultMetadataKeyUsername = "x-auth-username"

	// DefaultMetadataKeyLicense carries the license (tenant) the
	// username belongs to.
	DefaultMetadataKeyLicense = "x-auth-license"

	// DefaultMetadataKeyImpersonate lets callers act as another member
	// (testing only).
	DefaultMetadataKeyImpersonate = "x-auth-impersonate"
)

// Identity is the authenticated member carried in metadata.
type Identity struct {
	Username string
	License  string
}

// Config holds the metadata key configuration.
type Config struct {
	// MetadataKeyUsername defaults to "x-auth-username".
	MetadataKeyUsername string

	// MetadataKeyLicense defaults to "x-auth-license".
	MetadataKeyLicense string

	// MetadataKeyImpersonate defaults to "x-auth-impersonate". Only
	// consulted when EnableImpersonation is set.
	MetadataKeyImpersonate string

	// EnableImpersonation lets the impersonation header override the
	// username. Keep this off outside development.
	EnableImpersonation bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MetadataKeyUsername:    DefaultMetadataKeyUsername,
		MetadataKeyLicense:     DefaultMetadataKeyLicense,
		MetadataKeyImpersonate: DefaultMetadataKeyImpersonate,
	}
}

// EnsureDefaults fills in default values for any unset fields.
func (c *Config) EnsureDefaults() *Config {
	if c.MetadataKeyUsername == "" {
		c.MetadataKeyUsername = DefaultMetadataKeyUsername
	}
	if c.MetadataKeyLicense == "" {
		c.MetadataKeyLicense = DefaultMetadataKeyLicense
	}
	if c.MetadataKeyImpersonate == "" {
		c.MetadataKeyImpersonate = DefaultMetadataKeyImpersonate
	}
	return c
}

// IdentityFromContext extracts the authenticated member from incoming
// metadata using the default keys. The zero Identity means no member is
// authenticated.
func IdentityFromContext(ctx context.Context) Identity {
	return IdentityFromContextWithConfig(ctx, nil)
}

// IdentityFromContextWithConfig extracts the authenticated member using
// the given config.
func IdentityFromContextWithConfig(ctx context.Context, config *Config) Identity {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()

	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return Identity{}
	}

	out := Identity{
		Username: firstValue(md, config.MetadataKeyUsername),
		License:  firstValue(md, config.MetadataKeyLicense),
	}
	if config.EnableImpersonation {
		if imp := firstValue(md, config.MetadataKeyImpersonate); imp != "" {
			out.Username = imp
		}
	}
	return out
}

func firstValue(md metadata.MD, key string) string {
	if values := md.Get(key); len(values) > 0 {
		return values[0]
	}
	return ""
}

// IdentityToOutgoingContext adds the member identity to outgoing
// metadata using the default keys.
func IdentityToOutgoingContext(ctx context.Context, id Identity) context.Context {
	return IdentityToOutgoingContextWithConfig(ctx, id, nil)
}

// IdentityToOutgoingContextWithConfig adds the member identity using the
// given config's keys.
func IdentityToOutgoingContextWithConfig(ctx context.Context, id Identity, config *Config) context.Context {
	if config == nil {
		config = DefaultConfig()
	}
	config.EnsureDefaults()
	ctx = metadata.AppendToOutgoingContext(ctx, config.MetadataKeyUsername, id.Username)
	if id.License != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, config.MetadataKeyLicense, id.License)
	}
	return ctx
}

// ImpersonateToOutgoingContext adds an impersonation header. Only
// effective when the server enables impersonation.
func ImpersonateToOutgoingContext(ctx context.Context, username string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, DefaultMetadataKeyImpersonate, username)
}

// IsAuthenticated reports whether the context carries an authenticated
// member.
func IsAuthenticated(ctx context.Context) bool {
	return IdentityFromContext(ctx).Username != ""
}
