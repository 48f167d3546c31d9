package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/contentpulse/engagement-service/internal/domain"
)

// CounterReader is the read surface trending needs from the shared
// store: the content index set plus batched counter reads.
type CounterReader interface {
	Members(ctx context.Context, key string) ([]string, error)
	MGetInt(ctx context.Context, keys ...string) ([]int64, error)
}

// Interaction weights for the trending score. Deliberate engagement
// (likes, shares) outweighs passive views.
const (
	weightView     = 0.5
	weightLike     = 4.0
	weightBookmark = 2.0
	weightShare    = 3.0
)

type TrendingEntry struct {
	ContentID string  `json:"content_id"`
	Score     float64 `json:"score"`
	Views     int64   `json:"views"`
	Likes     int64   `json:"likes"`
	Bookmarks int64   `json:"bookmarks"`
	Shares    int64   `json:"shares"`
}

type TrendingSource struct {
	counters    CounterReader
	contentType string
	limit       int
}

func NewTrendingSource(counters CounterReader, contentType string, limit int) *TrendingSource {
	if limit <= 0 {
		limit = 10
	}
	return &TrendingSource{counters: counters, contentType: contentType, limit: limit}
}

func (s *TrendingSource) ID() string { return "trending-posts" }

func (s *TrendingSource) Fetch(ctx context.Context) ([]byte, error) {
	ids, err := s.counters.Members(ctx, domain.ContentIndexKey(s.contentType))
	if err != nil {
		return nil, Transient(err)
	}

	entries := make([]TrendingEntry, 0, len(ids))
	for _, id := range ids {
		vals, err := s.counters.MGetInt(ctx,
			domain.CounterKey(s.contentType, id, domain.MetricView),
			domain.CounterKey(s.contentType, id, domain.MetricLike),
			domain.CounterKey(s.contentType, id, domain.MetricBookmark),
			domain.CounterKey(s.contentType, id, domain.MetricShare),
		)
		if err != nil {
			return nil, Transient(err)
		}
		e := TrendingEntry{
			ContentID: id,
			Views:     vals[0],
			Likes:     vals[1],
			Bookmarks: vals[2],
			Shares:    vals[3],
		}
		e.Score = weightView*float64(e.Views) +
			weightLike*float64(e.Likes) +
			weightBookmark*float64(e.Bookmarks) +
			weightShare*float64(e.Shares)
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].ContentID < entries[j].ContentID
	})
	if len(entries) > s.limit {
		entries = entries[:s.limit]
	}

	return json.Marshal(entries)
}

func (s *TrendingSource) Validate(raw []byte) error {
	var entries []TrendingEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("trending payload unparsable: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("trending payload empty")
	}
	for i, e := range entries {
		if e.ContentID == "" {
			return fmt.Errorf("trending entry %d missing content_id", i)
		}
		if e.Score < 0 {
			return fmt.Errorf("trending entry %d has negative score", i)
		}
	}
	return nil
}
