package handlers

import (
	"context"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/bookwatch/internal/auth"
)

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (auth.User, error)
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func authenticate(ctx context.Context, a Authenticator, header string) (auth.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return auth.User{}, huma.Error401Unauthorized("missing bearer token")
	}
	u, err := a.CurrentUser(ctx, token)
	if err != nil {
		return auth.User{}, huma.Error401Unauthorized("invalid or expired token")
	}
	return u, nil
}
