package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/config"
	"github.com/contentpulse/engagement-service/internal/domain"
)

var runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "snapshot_runs_total",
	Help: "Populator runs by source and result.",
}, []string{"source", "result"})

// Store is the snapshot blob surface of the shared cache.
type Store interface {
	GetRaw(ctx context.Context, key string) (string, bool, error)
	SetRaw(ctx context.Context, key, val string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

type Populator struct {
	store   Store
	sources []Source
	byID    map[string]Source

	ttl         time.Duration
	mode        config.DeploymentMode
	maxAttempts int
	baseBackoff time.Duration
}

func NewPopulator(store Store, mode config.DeploymentMode, ttl time.Duration, sources ...Source) *Populator {
	p := &Populator{
		store:       store,
		sources:     sources,
		byID:        make(map[string]Source, len(sources)),
		ttl:         ttl,
		mode:        mode,
		maxAttempts: 3,
		baseBackoff: 500 * time.Millisecond,
	}
	for _, s := range sources {
		p.byID[s.ID()] = s
	}
	return p
}

// SourceIDs lists the configured sources in registration order.
func (p *Populator) SourceIDs() []string {
	out := make([]string, 0, len(p.sources))
	for _, s := range p.sources {
		out = append(out, s.ID())
	}
	return out
}

// Run populates every source. In production any failure is fatal and
// must block the deploy; elsewhere failures are warnings and the
// previous snapshot (possibly absent) stays in place.
func (p *Populator) Run(ctx context.Context) error {
	var failed []error
	for _, src := range p.sources {
		if err := p.PopulateSource(ctx, src.ID()); err != nil {
			runsTotal.WithLabelValues(src.ID(), "failure").Inc()
			failed = append(failed, fmt.Errorf("source %s: %w", src.ID(), err))
			continue
		}
		runsTotal.WithLabelValues(src.ID(), "success").Inc()
	}
	if len(failed) == 0 {
		return nil
	}

	err := errors.Join(failed...)
	if p.mode == config.ModeProduction {
		return fmt.Errorf("population failed in production: %w", err)
	}
	zlog.Warn().Err(err).Str("mode", string(p.mode)).Msg("population failed, continuing with stale snapshots")
	return nil
}

// PopulateSource fetches, validates, self-checks, and commits a single
// snapshot. Either a fully valid payload lands under the key or nothing
// is written at all.
func (p *Populator) PopulateSource(ctx context.Context, id string) error {
	src, ok := p.byID[id]
	if !ok {
		return domain.ErrNotFound("unknown snapshot source: " + id)
	}

	payload, err := p.fetchWithRetry(ctx, src)
	if err != nil {
		return err
	}

	if err := src.Validate(payload); err != nil {
		return fmt.Errorf("validation: %w", err)
	}

	// Write-time self-check: the exact bytes about to be committed must
	// round-trip. This is what keeps an empty or truncated blob from
	// ever reaching the store.
	var probe any
	if err := json.Unmarshal(payload, &probe); err != nil {
		return fmt.Errorf("round-trip self-check: %w", err)
	}

	key := domain.SnapshotKey(src.ID())
	if err := p.store.SetRaw(ctx, key, string(payload), p.ttl); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if c, ok := src.(Committer); ok {
		if err := c.AfterCommit(ctx); err != nil {
			zlog.Warn().Err(err).Str("source", src.ID()).Msg("post-commit write failed")
		}
	}

	zlog.Info().Str("source", src.ID()).Int("bytes", len(payload)).Msg("snapshot committed")
	return nil
}

func (p *Populator) fetchWithRetry(ctx context.Context, src Source) ([]byte, error) {
	var lastErr error
	backoff := p.baseBackoff

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		payload, err := src.Fetch(ctx)
		if err == nil {
			return payload, nil
		}

		var te *TransientError
		if !errors.As(err, &te) {
			return nil, err
		}
		lastErr = err
		zlog.Warn().Err(err).Str("source", src.ID()).Int("attempt", attempt).Msg("fetch failed")

		if attempt == p.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch deadline: %w", ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("fetch exhausted after %d attempts: %w", p.maxAttempts, lastErr)
}
