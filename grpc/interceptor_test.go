package grpc_test

import (
	"context"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	magrpc "github.com/panyam/memberauth/grpc"
)

func callUnary(t *testing.T, interceptor grpc.UnaryServerInterceptor, ctx context.Context, method string) error {
	t.Helper()
	info := &grpc.UnaryServerInfo{FullMethod: method}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return "ok", nil
	}
	_, err := interceptor(ctx, nil, info, handler)
	return err
}

func TestUnaryAuthInterceptor(t *testing.T) {
	authedCtx := incomingContext("x-auth-username", "alice")

	tests := []struct {
		name     string
		config   *magrpc.InterceptorConfig
		ctx      context.Context
		method   string
		wantCode codes.Code
	}{
		{
			name:     "authenticated request passes",
			config:   magrpc.DefaultInterceptorConfig(),
			ctx:      authedCtx,
			method:   "/members.Members/Get",
			wantCode: codes.OK,
		},
		{
			name:     "unauthenticated request rejected",
			config:   magrpc.DefaultInterceptorConfig(),
			ctx:      context.Background(),
			method:   "/members.Members/Get",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "public method bypasses auth",
			config:   magrpc.NewPublicMethodsConfig("/members.Members/Login"),
			ctx:      context.Background(),
			method:   "/members.Members/Login",
			wantCode: codes.OK,
		},
		{
			name:     "non-public method still enforced",
			config:   magrpc.NewPublicMethodsConfig("/members.Members/Login"),
			ctx:      context.Background(),
			method:   "/members.Members/Get",
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "optional auth lets anonymous through",
			config:   magrpc.OptionalAuthConfig(),
			ctx:      context.Background(),
			method:   "/members.Members/Get",
			wantCode: codes.OK,
		},
		{
			name:     "nil config defaults to required auth",
			config:   nil,
			ctx:      context.Background(),
			method:   "/members.Members/Get",
			wantCode: codes.Unauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := callUnary(t, magrpc.UnaryAuthInterceptor(tt.config), tt.ctx, tt.method)
			if got := status.Code(err); got != tt.wantCode {
				t.Errorf("Expected code %v, got %v (err %v)", tt.wantCode, got, err)
			}
		})
	}
}

type fakeServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *fakeServerStream) Context() context.Context { return s.ctx }

func TestStreamAuthInterceptor(t *testing.T) {
	interceptor := magrpc.StreamAuthInterceptor(magrpc.DefaultInterceptorConfig())
	info := &grpc.StreamServerInfo{FullMethod: "/members.Members/Watch"}
	handler := func(srv interface{}, ss grpc.ServerStream) error { return nil }

	t.Run("authenticated", func(t *testing.T) {
		ss := &fakeServerStream{ctx: incomingContext("x-auth-username", "alice")}
		if err := interceptor(nil, ss, info, handler); err != nil {
			t.Errorf("Expected success, got %v", err)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		ss := &fakeServerStream{ctx: context.Background()}
		err := interceptor(nil, ss, info, handler)
		if status.Code(err) != codes.Unauthenticated {
			t.Errorf("Expected Unauthenticated, got %v", err)
		}
	})
}
