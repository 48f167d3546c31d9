package engagement

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/domain"
)

type InteractionRequest struct {
	ContentType string
	ContentID   string
	Metric      domain.MetricType
	SessionID   string
	ClientID    string
	Dwell       time.Duration
}

// RecordInteraction runs the anti-abuse gate and, on admission, bumps
// the counter. Checks short-circuit in order: shape, rate limit, dwell
// floor, session dedup. Store faults after validation degrade to a soft
// rate-limited rejection instead of hanging or erroring out.
func (s *Service) RecordInteraction(ctx context.Context, req InteractionRequest) domain.Admission {
	res := s.admit(ctx, req)
	admissionsTotal.WithLabelValues(string(req.Metric), string(res.Status)).Inc()
	return res
}

func (s *Service) admit(ctx context.Context, req InteractionRequest) domain.Admission {
	// 1. Shape: reject before any store round-trip.
	if req.ContentID == "" {
		return domain.Invalid("content_id is required")
	}
	if !domain.IsSessionID(req.SessionID) {
		return domain.Invalid("malformed session token")
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.AdmitTimeout)
	defer cancel()

	// 2. Rate limit. The bucket increment counts every attempt and is
	// never rolled back, so retried malformed requests still burn quota.
	rateKey := domain.RateLimitKey(req.ClientID, req.Metric)
	count, err := s.store.IncrWindow(ctx, rateKey, s.cfg.RateWindow)
	if err != nil {
		return s.softReject(req, "rate bucket", err)
	}
	if count > int64(s.rateLimitFor(req.Metric)) {
		retryAfter, terr := s.store.TTL(ctx, rateKey)
		if terr != nil || retryAfter == 0 {
			retryAfter = s.cfg.RateWindow
		}
		return domain.RateLimited(retryAfter)
	}

	// 3. Dwell floor: instant submissions are scripted submissions.
	if req.Dwell < s.cfg.MinDwell {
		return domain.Invalid("too fast")
	}

	// 4+5. Dedup claim and admission. SETNX decides "first" atomically;
	// the loser of a concurrent race sees the marker and becomes a
	// duplicate no-op with the current count.
	dedupKey := domain.DedupKey(req.SessionID, req.ContentID, req.Metric)
	first, err := s.store.SetNX(ctx, dedupKey, "1", s.cfg.DedupWindow)
	if err != nil {
		return s.softReject(req, "dedup claim", err)
	}

	counterKey := domain.CounterKey(req.ContentType, req.ContentID, req.Metric)
	if !first {
		current, gerr := s.store.GetInt(ctx, counterKey)
		if gerr != nil {
			zlog.Warn().Err(gerr).Str("key", counterKey).Msg("duplicate count read failed")
		}
		if s.cfg.TouchLastSeen {
			lastSeen := domain.LastSeenKey(req.SessionID, req.ContentID)
			if serr := s.store.SetRaw(ctx, lastSeen, s.clock.Now().UTC().Format(time.RFC3339), s.cfg.DedupWindow); serr != nil {
				zlog.Warn().Err(serr).Str("key", lastSeen).Msg("last-seen touch failed")
			}
		}
		return domain.Duplicate(current)
	}

	newCount, err := s.store.Incr(ctx, counterKey)
	if err != nil {
		return s.softReject(req, "counter increment", err)
	}

	// Best-effort bookkeeping: the admission already happened.
	if err := s.store.AddMember(ctx, domain.ContentIndexKey(req.ContentType), req.ContentID); err != nil {
		zlog.Warn().Err(err).Str("content_id", req.ContentID).Msg("content index update failed")
	}
	day := s.clock.Now().UTC().Format("2006-01-02")
	if _, err := s.store.IncrWindow(ctx, domain.ActivityKey(s.cfg.ActivitySubject, day), s.cfg.ActivityTTL); err != nil {
		zlog.Warn().Err(err).Str("day", day).Msg("activity sample bump failed")
	}

	return domain.Admitted(newCount)
}

func (s *Service) softReject(req InteractionRequest, stage string, err error) domain.Admission {
	zlog.Warn().Err(err).
		Str("stage", stage).
		Str("content_id", req.ContentID).
		Str("metric", string(req.Metric)).
		Msg("store unavailable, failing open")
	return domain.RateLimited(s.cfg.RateWindow)
}
