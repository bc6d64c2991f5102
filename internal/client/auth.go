package client

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/session"
	"context"
	"errors"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

type meResponse struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

var _ session.Authenticator = (*Client)(nil)

// SignIn implements session.Authenticator.
func (c *Client) SignIn(ctx context.Context, email, password string) (*session.Identity, error) {
	return c.authenticate(ctx, "/auth/login", email, password)
}

// SignUp implements session.Authenticator.
func (c *Client) SignUp(ctx context.Context, email, password string) (*session.Identity, error) {
	return c.authenticate(ctx, "/auth/register", email, password)
}

// Verify implements session.Authenticator.
func (c *Client) Verify(ctx context.Context, token string) (*session.Identity, error) {
	var me meResponse
	if err := c.do(ctx, http.MethodGet, "/me", nil, token, nil, &me); err != nil {
		return nil, toAuthError(err)
	}
	userID, err := primitive.ObjectIDFromHex(me.UserID)
	if err != nil {
		return nil, &domain.AuthError{Code: domain.AuthOther, Err: err}
	}
	return &session.Identity{UserID: userID, Email: me.Email, Token: token}, nil
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*session.Identity, error) {
	var resp tokenResponse
	if err := c.do(ctx, http.MethodPost, path, nil, "", credentialsRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, toAuthError(err)
	}
	userID, err := primitive.ObjectIDFromHex(resp.User.ID)
	if err != nil || resp.Token == "" {
		return nil, &domain.AuthError{Code: domain.AuthOther, Err: errors.New("malformed token response")}
	}
	return &session.Identity{UserID: userID, Email: resp.User.Email, Token: resp.Token}, nil
}

// toAuthError maps API rejections onto auth codes. Transport failures and
// unknown codes become AuthOther.
func toAuthError(err error) error {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return &domain.AuthError{Code: domain.AuthOther, Err: err}
	}
	switch code := domain.AuthCode(apiErr.Code); code {
	case domain.AuthInvalidCredential, domain.AuthEmailInUse, domain.AuthInvalidEmail, domain.AuthWeakPassword:
		return &domain.AuthError{Code: code, Err: apiErr}
	}
	if apiErr.Status == http.StatusUnauthorized {
		return &domain.AuthError{Code: domain.AuthInvalidCredential, Err: apiErr}
	}
	return &domain.AuthError{Code: domain.AuthOther, Err: apiErr}
}
