package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"premium-homes/internal/database"
	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

func newTestService(t *testing.T) (*Service, database.Store) {
	t.Helper()
	store, err := database.NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return NewService(store, NewTokenManager("test-secret"), nil), store
}

func TestLogin_ProvisionsDefaultAdmin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)

	resp, err := svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, "admin", resp.User.Username)
	require.Equal(t, models.RoleAdmin, resp.User.Role)

	n, err := store.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	// second login does not provision again
	_, err = svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	n, err = store.CountUsers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, _ := newTestService(t)

	_, err := svc.Login(ctx, models.LoginRequest{Username: "admin"})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = svc.Login(ctx, models.LoginRequest{Username: "admin", Password: "wrong"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Equal(t, "Invalid credentials", errs.Message(err))

	_, err = svc.Login(ctx, models.LoginRequest{Username: "ghost", Password: "admin123"})
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestRegister_CreatesAgentAndAccount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc, store := newTestService(t)

	resp, err := svc.Register(ctx, models.RegisterRequest{
		Username: "elira",
		Password: "secret1",
		Name:     "Elira Hoxha",
		Email:    "Elira@Example.com",
		City:     "Tirana",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Agent)
	require.Equal(t, "elira@example.com", resp.Agent.Email)
	require.Equal(t, models.RoleAgent, resp.User.Role)
	require.Equal(t, resp.Agent.ID, resp.User.AgentID)

	agents, err := store.ListAgents(ctx)
	require.NoError(t, err)
	require.Len(t, agents, 1)

	login, err := svc.Login(ctx, models.LoginRequest{Username: "elira", Password: "secret1"})
	require.NoError(t, err)
	require.Equal(t, resp.Agent.ID, login.User.AgentID)

	// registering first still leaves the default admin in place
	_, err = svc.Login(ctx, models.LoginRequest{Username: DefaultAdminUsername, Password: DefaultAdminPassword})
	require.NoError(t, err)

	_, err = svc.Register(ctx, models.RegisterRequest{
		Username: "elira", Password: "x", Name: "Other", Email: "o@example.com",
	})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	_, err = svc.Register(ctx, models.RegisterRequest{Username: "nobody", Password: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	v, err := svc.Verify(resp.Token)
	require.NoError(t, err)
	require.True(t, v.Valid)
	require.Equal(t, resp.User, v.User)

	_, err = svc.Verify("garbage")
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}

func TestTokenManager_Expiry(t *testing.T) {
	t.Parallel()

	m := NewTokenManager("s")
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return issued }

	token, err := m.Issue(models.UserInfo{ID: "1", Username: "admin", Role: models.RoleAdmin})
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(TokenTTL - time.Minute) }
	claims, err := m.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)

	m.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = m.Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := NewTokenManager("a").Issue(models.UserInfo{ID: "1"})
	require.NoError(t, err)
	_, err = NewTokenManager("b").Parse(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	t.Parallel()

	hash, err := HashPassword("admin123")
	require.NoError(t, err)
	require.True(t, CheckPassword(hash, "admin123"))
	require.False(t, CheckPassword(hash, "admin124"))
}
