package grpc_test

import (
	"context"
	"testing"

	"google.golang.org/grpc/metadata"

	magrpc "github.com/panyam/memberauth/grpc"
)

func incomingContext(pairs ...string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs(pairs...))
}

func TestIdentityFromContext(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
		want magrpc.Identity
	}{
		{
			name: "no metadata",
			ctx:  context.Background(),
			want: magrpc.Identity{},
		},
		{
			name: "username only",
			ctx:  incomingContext("x-auth-username", "alice"),
			want: magrpc.Identity{Username: "alice"},
		},
		{
			name: "username and license",
			ctx:  incomingContext("x-auth-username", "alice", "x-auth-license", "tenant1"),
			want: magrpc.Identity{Username: "alice", License: "tenant1"},
		},
		{
			name: "impersonation ignored by default",
			ctx:  incomingContext("x-auth-username", "alice", "x-auth-impersonate", "bob"),
			want: magrpc.Identity{Username: "alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := magrpc.IdentityFromContext(tt.ctx); got != tt.want {
				t.Errorf("IdentityFromContext() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestIdentityWithImpersonation(t *testing.T) {
	config := magrpc.DefaultConfig()
	config.EnableImpersonation = true

	ctx := incomingContext("x-auth-username", "alice", "x-auth-impersonate", "bob")
	got := magrpc.IdentityFromContextWithConfig(ctx, config)
	if got.Username != "bob" {
		t.Errorf("Expected impersonated username bob, got %q", got.Username)
	}
}

func TestCustomMetadataKeys(t *testing.T) {
	config := &magrpc.Config{
		MetadataKeyUsername: "my-user",
		MetadataKeyLicense:  "my-license",
	}

	ctx := incomingContext("my-user", "alice", "my-license", "tenant1")
	got := magrpc.IdentityFromContextWithConfig(ctx, config)
	want := magrpc.Identity{Username: "alice", License: "tenant1"}
	if got != want {
		t.Errorf("IdentityFromContextWithConfig() = %+v, want %+v", got, want)
	}

	// The default keys are ignored under a custom config.
	ctx = incomingContext("x-auth-username", "alice")
	if got := magrpc.IdentityFromContextWithConfig(ctx, config); got.Username != "" {
		t.Errorf("Default key should be ignored, got %+v", got)
	}
}

func TestIdentityToOutgoingContext(t *testing.T) {
	id := magrpc.Identity{Username: "alice", License: "tenant1"}
	ctx := magrpc.IdentityToOutgoingContext(context.Background(), id)

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("Expected outgoing metadata")
	}
	if got := md.Get("x-auth-username"); len(got) != 1 || got[0] != "alice" {
		t.Errorf("Username metadata = %v", got)
	}
	if got := md.Get("x-auth-license"); len(got) != 1 || got[0] != "tenant1" {
		t.Errorf("License metadata = %v", got)
	}
}

func TestIsAuthenticated(t *testing.T) {
	if magrpc.IsAuthenticated(context.Background()) {
		t.Error("Empty context should not be authenticated")
	}
	if !magrpc.IsAuthenticated(incomingContext("x-auth-username", "alice")) {
		t.Error("Context with username should be authenticated")
	}
}
