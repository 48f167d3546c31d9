package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contentpulse/engagement-service/internal/config"
)

// --- Mocks & Helpers ---

type memStore struct {
	mu   sync.Mutex
	raws map[string]string
}

func newMemStore() *memStore { return &memStore{raws: map[string]string{}} }

func (m *memStore) GetRaw(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.raws[key]
	return v, ok, nil
}

func (m *memStore) SetRaw(ctx context.Context, key, val string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raws[key] = val
	return nil
}

func (m *memStore) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.raws, k)
	}
	return nil
}

type stubSource struct {
	id       string
	fetch    func(ctx context.Context) ([]byte, error)
	validate func(raw []byte) error
	fetches  int
}

func (s *stubSource) ID() string { return s.id }

func (s *stubSource) Fetch(ctx context.Context) ([]byte, error) {
	s.fetches++
	return s.fetch(ctx)
}

func (s *stubSource) Validate(raw []byte) error {
	if s.validate == nil {
		return nil
	}
	return s.validate(raw)
}

func okSource(id string, payload string) *stubSource {
	return &stubSource{
		id:    id,
		fetch: func(ctx context.Context) ([]byte, error) { return []byte(payload), nil },
	}
}

func newPopulator(store Store, mode config.DeploymentMode, sources ...Source) *Populator {
	p := NewPopulator(store, mode, time.Hour, sources...)
	p.baseBackoff = time.Millisecond
	return p
}

// --- Test Cases ---

func TestPopulateSource_CommitsValidPayload(t *testing.T) {
	store := newMemStore()
	p := newPopulator(store, config.ModeDevelopment, okSource("trending-posts", `[{"id":"a"}]`))

	require.NoError(t, p.PopulateSource(context.Background(), "trending-posts"))

	raw, exists, _ := store.GetRaw(context.Background(), "snapshot:trending-posts")
	require.True(t, exists)

	// Round-trip: whatever was committed parses back.
	var probe []map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &probe))
	assert.Equal(t, "a", probe[0]["id"])
}

func TestPopulateSource_ValidationFailureWritesNothing(t *testing.T) {
	store := newMemStore()
	src := okSource("trending-posts", `[]`)
	src.validate = func(raw []byte) error { return errors.New("payload empty") }
	p := newPopulator(store, config.ModeDevelopment, src)

	err := p.PopulateSource(context.Background(), "trending-posts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")

	_, exists, _ := store.GetRaw(context.Background(), "snapshot:trending-posts")
	assert.False(t, exists)

	// Non-retryable: exactly one fetch.
	assert.Equal(t, 1, src.fetches)
}

func TestPopulateSource_SelfCheckBlocksUnparsablePayload(t *testing.T) {
	store := newMemStore()
	p := newPopulator(store, config.ModeDevelopment, okSource("milestones", `{"truncated":`))

	err := p.PopulateSource(context.Background(), "milestones")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "self-check")

	_, exists, _ := store.GetRaw(context.Background(), "snapshot:milestones")
	assert.False(t, exists)
}

func TestPopulateSource_RetriesTransientFailures(t *testing.T) {
	store := newMemStore()
	calls := 0
	src := &stubSource{
		id: "badges:site",
		fetch: func(ctx context.Context) ([]byte, error) {
			calls++
			if calls < 3 {
				return nil, Transient(errors.New("connection reset"))
			}
			return []byte(`[{"label":"go","value":"1.25"}]`), nil
		},
	}
	p := newPopulator(store, config.ModeDevelopment, src)

	require.NoError(t, p.PopulateSource(context.Background(), "badges:site"))
	assert.Equal(t, 3, calls)
}

func TestPopulateSource_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newMemStore()
	src := &stubSource{
		id:    "badges:site",
		fetch: func(ctx context.Context) ([]byte, error) { return nil, Transient(errors.New("timeout")) },
	}
	p := newPopulator(store, config.ModeDevelopment, src)

	err := p.PopulateSource(context.Background(), "badges:site")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exhausted after 3 attempts")
	assert.Equal(t, 3, src.fetches)
}

func TestPopulateSource_RespectsDeadline(t *testing.T) {
	store := newMemStore()
	src := &stubSource{
		id:    "badges:site",
		fetch: func(ctx context.Context) ([]byte, error) { return nil, Transient(errors.New("timeout")) },
	}
	p := newPopulator(store, config.ModeDevelopment, src)
	p.baseBackoff = time.Hour

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := p.PopulateSource(ctx, "badges:site")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRun_ProductionFailureIsFatal(t *testing.T) {
	store := newMemStore()
	broken := &stubSource{
		id:    "milestones",
		fetch: func(ctx context.Context) ([]byte, error) { return nil, Transient(errors.New("upstream down")) },
	}

	prod := newPopulator(store, config.ModeProduction, broken)
	err := prod.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "population failed in production")
}

func TestRun_NonProductionFailureIsWarning(t *testing.T) {
	store := newMemStore()
	broken := &stubSource{
		id:    "milestones",
		fetch: func(ctx context.Context) ([]byte, error) { return nil, Transient(errors.New("upstream down")) },
	}

	preview := newPopulator(store, config.ModePreview, broken)
	assert.NoError(t, preview.Run(context.Background()))
}

func TestRun_OneFailureDoesNotBlockOtherSources(t *testing.T) {
	store := newMemStore()
	broken := &stubSource{
		id:    "milestones",
		fetch: func(ctx context.Context) ([]byte, error) { return nil, errors.New("schema drift") },
	}
	p := newPopulator(store, config.ModePreview, broken, okSource("trending-posts", `[{"id":"a"}]`))

	require.NoError(t, p.Run(context.Background()))

	_, exists, _ := store.GetRaw(context.Background(), "snapshot:trending-posts")
	assert.True(t, exists)
	_, exists, _ = store.GetRaw(context.Background(), "snapshot:milestones")
	assert.False(t, exists)
}
