package service

import (
	"alcyxob/fitlist/internal/domain"
	"alcyxob/fitlist/internal/repository/memory"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func authCode(t *testing.T, err error) domain.AuthCode {
	t.Helper()
	var authErr *domain.AuthError
	require.True(t, errors.As(err, &authErr), "expected *domain.AuthError, got %v", err)
	return authErr.Code
}

func TestAuthServiceRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)

	token, user, err := svc.Register(ctx, " Ann@Example.com ", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, "ann@example.com", user.Email)
	require.Empty(t, user.PasswordHash)

	claims, err := svc.ParseToken(token)
	require.NoError(t, err)
	require.Equal(t, user.ID.Hex(), claims.UserID)

	token, _, err = svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	me, err := svc.GetUser(ctx, user.ID.Hex())
	require.NoError(t, err)
	require.Equal(t, "ann@example.com", me.Email)
}

func TestAuthServiceRejections(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewUserRepository(), "test-secret", time.Hour)

	_, _, err := svc.Register(ctx, "not-an-email", "secret1")
	require.Equal(t, domain.AuthInvalidEmail, authCode(t, err))

	_, _, err = svc.Register(ctx, "ann@example.com", "12345")
	require.Equal(t, domain.AuthWeakPassword, authCode(t, err))

	_, _, err = svc.Register(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	_, _, err = svc.Register(ctx, "ANN@example.com", "secret2")
	require.Equal(t, domain.AuthEmailInUse, authCode(t, err))
	require.ErrorIs(t, err, ErrUserAlreadyExists)

	_, _, err = svc.Login(ctx, "ann@example.com", "wrong-password")
	require.Equal(t, domain.AuthInvalidCredential, authCode(t, err))
	_, _, err = svc.Login(ctx, "nobody@example.com", "secret1")
	require.Equal(t, domain.AuthInvalidCredential, authCode(t, err))
}

func TestAuthServiceParseTokenRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	issuer := NewAuthService(memory.NewUserRepository(), "one-secret", time.Hour)
	verifier := NewAuthService(memory.NewUserRepository(), "other-secret", time.Hour)

	token, _, err := issuer.Register(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewAuthServicePanicsWithoutSecret(t *testing.T) {
	require.Panics(t, func() { NewAuthService(memory.NewUserRepository(), "", time.Hour) })
}
