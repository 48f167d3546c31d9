package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/engagement-service/internal/config"
)

func newRepairFixture(t *testing.T) (*memStore, *Repairer) {
	t.Helper()
	store := newMemStore()
	src := okSource("trending-posts", `[{"content_id":"a","score":1}]`)
	src.validate = (&TrendingSource{}).Validate
	p := newPopulator(store, config.ModeDevelopment, src)
	return store, NewRepairer(store, p)
}

func TestInspect(t *testing.T) {
	store, r := newRepairFixture(t)
	ctx := context.Background()

	t.Run("missing_key", func(t *testing.T) {
		res, err := r.Inspect(ctx, "snapshot:trending-posts")
		require.NoError(t, err)
		assert.False(t, res.Exists)
		assert.False(t, res.Valid)
		assert.Equal(t, "missing", res.Reason)
	})

	t.Run("empty_string_value", func(t *testing.T) {
		// The corruption class seen in production: an empty string
		// where a JSON array was expected.
		require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", "", time.Hour))

		res, err := r.Inspect(ctx, "snapshot:trending-posts")
		require.NoError(t, err)
		assert.True(t, res.Exists)
		assert.False(t, res.Valid)
		assert.Equal(t, "empty value", res.Reason)
	})

	t.Run("truncated_json", func(t *testing.T) {
		require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", `[{"content_id":`, time.Hour))

		res, err := r.Inspect(ctx, "snapshot:trending-posts")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.Equal(t, "unparsable json", res.Reason)
	})

	t.Run("schema_violation", func(t *testing.T) {
		require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", `[]`, time.Hour))

		res, err := r.Inspect(ctx, "snapshot:trending-posts")
		require.NoError(t, err)
		assert.False(t, res.Valid)
		assert.NotEmpty(t, res.Reason)
	})

	t.Run("valid_entry", func(t *testing.T) {
		require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", `[{"content_id":"a","score":2}]`, time.Hour))

		res, err := r.Inspect(ctx, "snapshot:trending-posts")
		require.NoError(t, err)
		assert.True(t, res.Valid)
	})

	t.Run("unknown_key", func(t *testing.T) {
		_, err := r.Inspect(ctx, "snapshot:who-knows")
		assert.Error(t, err)
	})
}

func TestRepair_DryRunIsNonMutating(t *testing.T) {
	store, r := newRepairFixture(t)
	ctx := context.Background()

	require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", "", time.Hour))

	res, err := r.Repair(ctx, "snapshot:trending-posts", ModeDryRun)
	require.NoError(t, err)
	assert.Equal(t, "would_repair", res.Action)

	raw, exists, _ := store.GetRaw(ctx, "snapshot:trending-posts")
	assert.True(t, exists)
	assert.Equal(t, "", raw)
}

func TestRepair_ExecuteRepopulates(t *testing.T) {
	store, r := newRepairFixture(t)
	ctx := context.Background()

	require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", "", time.Hour))

	res, err := r.Repair(ctx, "snapshot:trending-posts", ModeExecute)
	require.NoError(t, err)
	assert.Equal(t, "repopulated", res.Action)

	raw, exists, _ := store.GetRaw(ctx, "snapshot:trending-posts")
	require.True(t, exists)
	assert.JSONEq(t, `[{"content_id":"a","score":1}]`, raw)
}

func TestRepair_ValidEntryUntouched(t *testing.T) {
	store, r := newRepairFixture(t)
	ctx := context.Background()

	require.NoError(t, store.SetRaw(ctx, "snapshot:trending-posts", `[{"content_id":"z","score":9}]`, time.Hour))

	res, err := r.Repair(ctx, "snapshot:trending-posts", ModeExecute)
	require.NoError(t, err)
	assert.Equal(t, "none", res.Action)

	raw, _, _ := store.GetRaw(ctx, "snapshot:trending-posts")
	assert.JSONEq(t, `[{"content_id":"z","score":9}]`, raw)
}

func TestCriticalKeys(t *testing.T) {
	_, r := newRepairFixture(t)
	assert.Equal(t, []string{"snapshot:trending-posts"}, r.CriticalKeys())
}
