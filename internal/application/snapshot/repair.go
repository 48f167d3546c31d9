package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/domain"
)

type RepairMode string

const (
	ModeDryRun  RepairMode = "dry-run"
	ModeExecute RepairMode = "execute"
)

type InspectResult struct {
	Key    string `json:"key"`
	Exists bool   `json:"exists"`
	Valid  bool   `json:"valid"`
	Raw    string `json:"raw,omitempty"`
	Reason string `json:"reason,omitempty"`
}

type RepairResult struct {
	Finding InspectResult `json:"finding"`
	Action  string        `json:"action"` // none | would_repair | repopulated
}

// Repairer is the operator-facing recovery path for corrupt snapshot
// entries. Inspect never mutates; Repair mutates only in execute mode.
type Repairer struct {
	store Store
	pop   *Populator
}

func NewRepairer(store Store, pop *Populator) *Repairer {
	return &Repairer{store: store, pop: pop}
}

// CriticalKeys lists every snapshot key the repairer knows how to fix.
func (r *Repairer) CriticalKeys() []string {
	ids := r.pop.SourceIDs()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.SnapshotKey(id))
	}
	return out
}

// Inspect parses the stored value under key and checks it against the
// owning source's schema. Empty strings and truncated JSON show up here
// as invalid entries, not as parse crashes on the read path.
func (r *Repairer) Inspect(ctx context.Context, key string) (InspectResult, error) {
	res := InspectResult{Key: key}

	src, ok := r.sourceForKey(key)
	if !ok {
		return res, domain.ErrNotFound("no source owns key: " + key)
	}

	raw, exists, err := r.store.GetRaw(ctx, key)
	if err != nil {
		return res, err
	}
	res.Exists = exists
	res.Raw = raw
	if !exists {
		res.Reason = "missing"
		return res, nil
	}
	if raw == "" {
		res.Reason = "empty value"
		return res, nil
	}
	if !json.Valid([]byte(raw)) {
		res.Reason = "unparsable json"
		return res, nil
	}
	if verr := src.Validate([]byte(raw)); verr != nil {
		res.Reason = verr.Error()
		return res, nil
	}

	res.Valid = true
	return res, nil
}

// Repair reinitializes a corrupt or missing entry from upstream truth.
// Dry-run only reports; execute deletes the bad entry and re-runs the
// populator for the owning source.
func (r *Repairer) Repair(ctx context.Context, key string, mode RepairMode) (RepairResult, error) {
	finding, err := r.Inspect(ctx, key)
	if err != nil {
		return RepairResult{}, err
	}
	out := RepairResult{Finding: finding, Action: "none"}
	if finding.Valid {
		return out, nil
	}
	if mode != ModeExecute {
		out.Action = "would_repair"
		return out, nil
	}

	src, _ := r.sourceForKey(key)
	if finding.Exists {
		if err := r.store.Delete(ctx, key); err != nil {
			return out, fmt.Errorf("delete corrupt entry: %w", err)
		}
	}
	if err := r.pop.PopulateSource(ctx, src.ID()); err != nil {
		return out, fmt.Errorf("repopulate %s: %w", src.ID(), err)
	}

	out.Action = "repopulated"
	zlog.Info().Str("key", key).Str("reason", finding.Reason).Msg("snapshot repaired")
	return out, nil
}

func (r *Repairer) sourceForKey(key string) (Source, bool) {
	for _, id := range r.pop.SourceIDs() {
		if domain.SnapshotKey(id) == key {
			return r.pop.byID[id], true
		}
	}
	return nil, false
}
