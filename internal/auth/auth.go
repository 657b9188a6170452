// Package auth provides user identity for bookwatch: email/password
// accounts, bearer tokens and sign-in state notifications.
package auth

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by providers.
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is an authenticated account.
type User struct {
	UID       string    `json:"uid"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the result of a successful sign-up or sign-in.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// StateChange reports a user becoming signed in or signed out. A user is
// signed in while at least one of their tokens is live.
type StateChange struct {
	User     User
	SignedIn bool
}

// StateFunc receives auth state changes.
type StateFunc func(StateChange)

// Provider is the authentication provider.
type Provider interface {
	// SignUp creates an account and signs it in.
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	// SignOut revokes token.
	SignOut(ctx context.Context, token string) error
	// CurrentUser resolves a bearer token to its user.
	CurrentUser(ctx context.Context, token string) (User, error)
	// OnAuthStateChanged registers fn and returns a function removing it.
	OnAuthStateChanged(fn StateFunc) (unsubscribe func())
}
