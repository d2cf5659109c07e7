package database

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"premium-homes/internal/errs"
	"premium-homes/internal/models"
)

func newTestStore(t *testing.T) *JSONStore {
	t.Helper()
	s, err := NewJSONStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestJSONStore_SeedsSampleProperties(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	properties, err := s.ListProperties(context.Background())
	require.NoError(t, err)
	require.Len(t, properties, 2)
	require.Equal(t, 1, properties[0].ID)
	require.Equal(t, "Tirana", properties[0].City())
	require.Equal(t, models.TransactionRent, properties[1].TransactionType)
}

func TestJSONStore_DoesNotReseedExistingFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, propertiesFile), []byte("[]"), 0o644))

	s, err := NewJSONStore(dir)
	require.NoError(t, err)
	properties, err := s.ListProperties(context.Background())
	require.NoError(t, err)
	require.Empty(t, properties)
}

func TestJSONStore_PropertyCRUD(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	created, err := s.CreateProperty(ctx, &models.Property{
		Title:           "Seaside Land",
		Location:        "Durrës, Albania",
		Price:           90000,
		PropertyType:    models.PropertyTypeLand,
		TransactionType: models.TransactionSale,
	})
	require.NoError(t, err)
	require.Equal(t, 3, created.ID)
	require.NotNil(t, created.Images)

	got, err := s.GetProperty(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, "Seaside Land", got.Title)

	got.Price = 85000
	got.ID = 99
	updated, err := s.UpdateProperty(ctx, 3, got)
	require.NoError(t, err)
	require.Equal(t, 3, updated.ID)
	require.Equal(t, 85000.0, updated.Price)

	require.NoError(t, s.DeleteProperty(ctx, 3))
	_, err = s.GetProperty(ctx, 3)
	require.ErrorIs(t, err, errs.ErrNotFound)
	require.ErrorIs(t, s.DeleteProperty(ctx, 3), errs.ErrNotFound)

	_, err = s.UpdateProperty(ctx, 42, got)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestJSONStore_ExplicitDuplicateID(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	_, err := s.CreateProperty(context.Background(), &models.Property{ID: 1, Title: "dup"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)
}

func TestJSONStore_IDsAreMaxPlusOne(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.DeleteProperty(ctx, 1))

	created, err := s.CreateProperty(ctx, &models.Property{Title: "next"})
	require.NoError(t, err)
	require.Equal(t, 3, created.ID)
}

func TestJSONStore_ConcurrentCreatesGetDistinctIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateProperty(ctx, &models.Property{Title: "parallel"})
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	properties, err := s.ListProperties(ctx)
	require.NoError(t, err)
	require.Len(t, properties, 12)
	seen := map[int]bool{}
	for _, p := range properties {
		require.False(t, seen[p.ID])
		seen[p.ID] = true
	}
}

func TestJSONStore_AgentsAndCounts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	agent, err := s.CreateAgent(ctx, &models.Agent{Name: "Elira", Email: "elira@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, agent.ID)

	_, err = s.CreateProperty(ctx, &models.Property{Title: "Listed", AgentID: agent.ID})
	require.NoError(t, err)

	n, err := RefreshAgentCounts(ctx, s)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	got, err := s.GetAgent(ctx, agent.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.PropertiesCount)

	n, err = RefreshAgentCounts(ctx, s)
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, s.DeleteAgent(ctx, agent.ID))
	require.ErrorIs(t, s.DeleteAgent(ctx, agent.ID), errs.ErrNotFound)
}

func TestJSONStore_Users(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestStore(t)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	u := &models.User{Username: "admin", PasswordHash: "x", Role: models.RoleAdmin}
	require.NoError(t, s.CreateUser(ctx, u))
	require.NotEmpty(t, u.ID)

	err = s.CreateUser(ctx, &models.User{Username: "admin"})
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	got, err := s.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	require.Equal(t, models.RoleAdmin, got.Role)

	_, err = s.GetUserByUsername(ctx, "nobody")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOpen_UnknownType(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{Type: "sqlite"})
	require.Error(t, err)
}
