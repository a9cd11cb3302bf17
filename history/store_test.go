package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func testBatch(id string, startedAt time.Time) *types.ScanBatch {
	return &types.ScanBatch{
		ID:        id,
		StartedAt: startedAt,
		Depth:     types.DepthStandard,
		Accounts:  []types.AccountRef{{ID: "111111111111", Name: "prod"}},
		Results: []types.ScanResult{
			{AccountID: "111111111111", Status: types.ScanSucceeded, OverallScore: 90},
		},
	}
}

func TestSaveAndGetBatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	batch := testBatch("batch-1", time.Now())
	require.NoError(t, store.SaveBatch(batch))

	got, err := store.GetBatch("batch-1")
	require.NoError(t, err)
	assert.Equal(t, batch.ID, got.ID)
	assert.Equal(t, batch.Depth, got.Depth)
	require.Len(t, got.Results, 1)
	assert.Equal(t, 90.0, got.Results[0].OverallScore)
}

func TestSaveBatchRejectsMissingID(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	assert.Error(t, store.SaveBatch(&types.ScanBatch{}))
}

func TestGetBatchNotFound(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	_, err = store.GetBatch("missing")
	assert.Error(t, err)
}

func TestLastBatch(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	last, err := store.LastBatch()
	require.NoError(t, err)
	assert.Nil(t, last, "empty store has no last batch")

	base := time.Now()
	require.NoError(t, store.SaveBatch(testBatch("batch-old", base.Add(-time.Hour))))
	require.NoError(t, store.SaveBatch(testBatch("batch-new", base)))

	last, err = store.LastBatch()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "batch-new", last.ID)
}

func TestListBatchesNewestFirst(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	base := time.Now()
	require.NoError(t, store.SaveBatch(testBatch("a", base.Add(-2*time.Hour))))
	require.NoError(t, store.SaveBatch(testBatch("b", base.Add(-time.Hour))))
	require.NoError(t, store.SaveBatch(testBatch("c", base)))

	metas := store.ListBatches()
	require.Len(t, metas, 3)
	assert.Equal(t, "c", metas[0].ID)
	assert.Equal(t, "a", metas[2].ID)
	assert.Equal(t, 1, metas[0].Accounts)
}

func TestRebuildIndexSurvivesReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.SaveBatch(testBatch("persisted", time.Now())))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	last, err := reopened.LastBatch()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "persisted", last.ID)
}
