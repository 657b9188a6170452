package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/bookwatch/internal/auth"
)

// AuthHandler handles account sign-up, sign-in and sign-out.
type AuthHandler struct {
	provider auth.Provider
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(p auth.Provider) *AuthHandler {
	return &AuthHandler{provider: p}
}

// --- Input/Output types ---

// Credentials is an email and password pair.
type Credentials struct {
	Email    string `json:"email" doc:"Account email address" example:"reader@example.com"`
	Password string `json:"password" doc:"Account password" minLength:"1"`
}

// CredentialsInput is the input for sign-up and sign-in.
type CredentialsInput struct {
	Body Credentials
}

// SessionOutput is the response for sign-up and sign-in.
type SessionOutput struct {
	Body auth.Session
}

// SignOutInput is the input for sign-out.
type SignOutInput struct {
	Authorization string `header:"Authorization" doc:"Bearer token returned by sign-in"`
}

// --- Handlers ---

// SignUp creates an account and returns a bearer token for it.
func (h *AuthHandler) SignUp(
	ctx context.Context,
	input *CredentialsInput,
) (*SessionOutput, error) {
	sess, err := h.provider.SignUp(ctx, input.Body.Email, input.Body.Password)
	switch {
	case err == nil:
		return &SessionOutput{Body: sess}, nil
	case errors.Is(err, auth.ErrEmailTaken):
		return nil, huma.Error409Conflict(err.Error())
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		return nil, huma.Error422UnprocessableEntity(err.Error())
	default:
		return nil, huma.Error500InternalServerError("failed to sign up: " + err.Error())
	}
}

// SignIn returns a bearer token for an existing account.
func (h *AuthHandler) SignIn(
	ctx context.Context,
	input *CredentialsInput,
) (*SessionOutput, error) {
	sess, err := h.provider.SignIn(ctx, input.Body.Email, input.Body.Password)
	switch {
	case err == nil:
		return &SessionOutput{Body: sess}, nil
	case errors.Is(err, auth.ErrInvalidCredentials):
		return nil, huma.Error401Unauthorized(err.Error())
	default:
		return nil, huma.Error500InternalServerError("failed to sign in: " + err.Error())
	}
}

// SignOut revokes the caller's bearer token.
func (h *AuthHandler) SignOut(
	ctx context.Context,
	input *SignOutInput,
) (*struct{}, error) {
	token, ok := bearerToken(input.Authorization)
	if !ok {
		return nil, huma.Error401Unauthorized("missing bearer token")
	}
	if err := h.provider.SignOut(ctx, token); err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return nil, huma.Error401Unauthorized(err.Error())
		}
		return nil, huma.Error500InternalServerError("failed to sign out: " + err.Error())
	}
	return nil, nil
}

// RegisterAuthRoutes registers account endpoints with the Huma API.
func RegisterAuthRoutes(api huma.API, h *AuthHandler) {
	huma.Register(api, huma.Operation{
		OperationID:   "sign-up",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signup",
		Summary:       "Create an account",
		Description:   "Creates an email/password account and signs it in.",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusConflict, http.StatusUnprocessableEntity},
	}, h.SignUp)

	huma.Register(api, huma.Operation{
		OperationID: "sign-in",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/signin",
		Summary:     "Sign in",
		Description: "Exchanges an email and password for a bearer token. Signing in starts the user's watch session.",
		Tags:        []string{"auth"},
		Errors:      []int{http.StatusUnauthorized},
	}, h.SignIn)

	huma.Register(api, huma.Operation{
		OperationID:   "sign-out",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/signout",
		Summary:       "Sign out",
		Description:   "Revokes the bearer token. The watch session stops once the user's last token is revoked.",
		Tags:          []string{"auth"},
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusUnauthorized},
	}, h.SignOut)
}
