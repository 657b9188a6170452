package client

import (
	"context"

	"github.com/donaldgifford/bookwatch/internal/auth"
)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp creates an account. On success the client uses the new token.
func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	var sess auth.Session
	if err := c.post(ctx, "/api/v1/auth/signup", credentials{email, password}, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// SignIn signs in to an existing account. On success the client uses the
// returned token.
func (c *Client) SignIn(ctx context.Context, email, password string) (*auth.Session, error) {
	var sess auth.Session
	if err := c.post(ctx, "/api/v1/auth/signin", credentials{email, password}, &sess); err != nil {
		return nil, err
	}
	c.SetToken(sess.Token)
	return &sess, nil
}

// SignOut revokes the client's token.
func (c *Client) SignOut(ctx context.Context) error {
	if err := c.post(ctx, "/api/v1/auth/signout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}
