package engagement

import (
	"context"
	"sort"

	"github.com/contentpulse/engagement-service/internal/domain"
)

type ContentCounts struct {
	ContentID string           `json:"content_id"`
	Counts    map[string]int64 `json:"counts"`
}

// Counts returns all metric counters for one piece of content in a
// single batched read. Never-written counters read as zero.
func (s *Service) Counts(ctx context.Context, contentType, contentID string) (ContentCounts, error) {
	keys := make([]string, 0, len(domain.Metrics))
	for _, m := range domain.Metrics {
		keys = append(keys, domain.CounterKey(contentType, contentID, m))
	}
	vals, err := s.store.MGetInt(ctx, keys...)
	if err != nil {
		return ContentCounts{}, err
	}

	out := ContentCounts{ContentID: contentID, Counts: make(map[string]int64, len(domain.Metrics))}
	for i, m := range domain.Metrics {
		out.Counts[string(m)] = vals[i]
	}
	return out, nil
}

// AllCounts returns counters for every content id that has ever been
// admitted, via the index set maintained on admission.
func (s *Service) AllCounts(ctx context.Context, contentType string) ([]ContentCounts, error) {
	ids, err := s.store.Members(ctx, domain.ContentIndexKey(contentType))
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	out := make([]ContentCounts, 0, len(ids))
	for _, id := range ids {
		cc, err := s.Counts(ctx, contentType, id)
		if err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, nil
}
