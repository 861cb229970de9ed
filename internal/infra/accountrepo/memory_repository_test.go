package accountrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/auth"
)

func TestMemoryRepository_UniqueEmail(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, "a@b.co", "Smith", "hash")
	require.NoError(t, err)
	require.Equal(t, int64(1), created.ID)

	_, err = repo.Create(ctx, "a@b.co", "Jones", "hash")
	require.ErrorIs(t, err, auth.ErrEmailExists)

	got, found, err := repo.GetByEmail(ctx, "a@b.co")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "Smith", got.FamilyName)

	_, found, err = repo.GetByID(ctx, 42)
	require.NoError(t, err)
	require.False(t, found)
}
