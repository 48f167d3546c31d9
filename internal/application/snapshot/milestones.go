package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/contentpulse/engagement-service/internal/domain"
)

// ActivityWriter is the store surface for replacing daily activity
// samples wholesale during a populator run.
type ActivityWriter interface {
	SetRaw(ctx context.Context, key, val string, ttl time.Duration) error
}

var milestoneThresholds = []int64{10, 50, 100, 500, 1000, 5000, 10000}

type Milestone struct {
	Threshold int64  `json:"threshold"`
	ReachedOn string `json:"reached_on"` // YYYY-MM-DD
}

type MilestonePayload struct {
	Subject    string      `json:"subject"`
	Total      int64       `json:"total"`
	Milestones []Milestone `json:"milestones"`
}

type commitDay struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// MilestoneSource reads a git-hosting daily commit feed, derives the
// milestone list for the snapshot, and refreshes the per-day activity
// series that the streak calculator reads. The series write happens
// only after the snapshot committed.
type MilestoneSource struct {
	client   *http.Client
	url      string
	subject  string
	activity ActivityWriter
	ttl      time.Duration

	fetched []commitDay
}

func NewMilestoneSource(client *http.Client, url, subject string, activity ActivityWriter, activityTTL time.Duration) *MilestoneSource {
	if client == nil {
		client = http.DefaultClient
	}
	if activityTTL == 0 {
		activityTTL = 400 * 24 * time.Hour
	}
	return &MilestoneSource{client: client, url: url, subject: subject, activity: activity, ttl: activityTTL}
}

func (s *MilestoneSource) ID() string { return "milestones" }

func (s *MilestoneSource) Fetch(ctx context.Context) ([]byte, error) {
	body, err := fetchJSON(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}

	var days []commitDay
	if err := json.Unmarshal(body, &days); err != nil {
		return nil, fmt.Errorf("commit feed malformed: %w", err)
	}
	for i, d := range days {
		if _, err := time.Parse("2006-01-02", d.Date); err != nil {
			return nil, fmt.Errorf("commit feed entry %d has bad date %q", i, d.Date)
		}
		if d.Count < 0 {
			return nil, fmt.Errorf("commit feed entry %d has negative count", i)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Date < days[j].Date })
	s.fetched = days

	payload := MilestonePayload{Subject: s.subject, Milestones: []Milestone{}}
	for _, d := range days {
		before := payload.Total
		payload.Total += d.Count
		for _, th := range milestoneThresholds {
			if before < th && payload.Total >= th {
				payload.Milestones = append(payload.Milestones, Milestone{Threshold: th, ReachedOn: d.Date})
			}
		}
	}

	return json.Marshal(payload)
}

func (s *MilestoneSource) Validate(raw []byte) error {
	var p MilestonePayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("milestone payload unparsable: %w", err)
	}
	if p.Subject == "" {
		return fmt.Errorf("milestone payload missing subject")
	}
	if p.Total < 0 {
		return fmt.Errorf("milestone payload has negative total")
	}
	if p.Milestones == nil {
		return fmt.Errorf("milestone payload missing milestones list")
	}
	for i, m := range p.Milestones {
		if m.Threshold <= 0 || m.ReachedOn == "" {
			return fmt.Errorf("milestone %d incomplete", i)
		}
	}
	return nil
}

// AfterCommit replaces the daily activity samples from the feed just
// committed. Samples are whole-value overwrites, so rerunning is safe.
func (s *MilestoneSource) AfterCommit(ctx context.Context) error {
	if s.activity == nil {
		return nil
	}
	for _, d := range s.fetched {
		key := domain.ActivityKey(s.subject, d.Date)
		if err := s.activity.SetRaw(ctx, key, strconv.FormatInt(d.Count, 10), s.ttl); err != nil {
			return fmt.Errorf("activity sample %s: %w", key, err)
		}
	}
	return nil
}
