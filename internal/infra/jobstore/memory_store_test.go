package jobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/nutriforecast/internal/domain/analysis"
)

func TestMemoryStore_ScopedByAccount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, analysis.Job{ID: "j1", AccountID: 4, Status: analysis.JobQueued}))
	require.NoError(t, store.Save(ctx, analysis.Job{ID: "j1", AccountID: 4, Status: analysis.JobDone, RecordID: "r1"}))

	job, err := store.Get(ctx, 4, "j1")
	require.NoError(t, err)
	require.Equal(t, analysis.JobDone, job.Status)
	require.Equal(t, "r1", job.RecordID)

	_, err = store.Get(ctx, 5, "j1")
	require.ErrorIs(t, err, analysis.ErrNotFound)
}
