package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hakim/asmctl/internal/models"
)

// Credentials is the body of the signup and login calls
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Tenant   string `json:"tenant,omitempty"`
}

// TokenResponse is returned by login
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
}

// Signup registers a new user. Tenant is optional.
func (c *Client) Signup(ctx context.Context, creds Credentials) error {
	return c.doJSON(ctx, call{
		op:     "Signup",
		method: http.MethodPost,
		path:   "/auth/signup",
		body:   creds,
	}, nil)
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out TokenResponse
	err := c.doJSON(ctx, call{
		op:     "Login",
		method: http.MethodPost,
		path:   "/auth/login",
		body:   Credentials{Username: username, Password: password},
	}, &out)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(out.AccessToken)
	if token == "" {
		return "", &Error{Op: "Login", Err: errors.New("response carried no access_token")}
	}
	return token, nil
}

// TokenClaims exchanges the current token for the identity it carries.
func (c *Client) TokenClaims(ctx context.Context) (*models.Claims, error) {
	return item[models.Claims](ctx, c, call{
		op:     "Token validation",
		method: http.MethodGet,
		path:   "/auth/token",
	})
}
