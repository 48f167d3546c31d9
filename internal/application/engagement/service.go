package engagement

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/contentpulse/engagement-service/internal/domain"
)

var admissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "engagement_admissions_total",
	Help: "Interaction requests by metric and admission outcome.",
}, []string{"metric", "status"})

type Config struct {
	RateWindow       time.Duration
	DefaultRateLimit int
	RateLimits       map[domain.MetricType]int

	DedupWindow  time.Duration
	MinDwell     time.Duration
	AdmitTimeout time.Duration

	// TouchLastSeen refreshes a last-seen marker on duplicate
	// submissions so repeat engagement stays measurable.
	TouchLastSeen bool

	// ActivitySubject is the daily-series subject bumped on every
	// admitted interaction.
	ActivitySubject string
	ActivityTTL     time.Duration
}

type Service struct {
	store Store
	clock Clock
	cfg   Config
}

func New(store Store, clock Clock, cfg Config) *Service {
	if cfg.RateWindow == 0 {
		cfg.RateWindow = time.Minute
	}
	if cfg.DefaultRateLimit == 0 {
		cfg.DefaultRateLimit = 30
	}
	if cfg.DedupWindow == 0 {
		cfg.DedupWindow = 5 * time.Minute
	}
	if cfg.MinDwell == 0 {
		cfg.MinDwell = 2 * time.Second
	}
	if cfg.AdmitTimeout == 0 {
		cfg.AdmitTimeout = 300 * time.Millisecond
	}
	if cfg.ActivitySubject == "" {
		cfg.ActivitySubject = "engagement"
	}
	if cfg.ActivityTTL == 0 {
		cfg.ActivityTTL = 400 * 24 * time.Hour
	}
	return &Service{store: store, clock: clock, cfg: cfg}
}

func (s *Service) rateLimitFor(m domain.MetricType) int {
	if n, ok := s.cfg.RateLimits[m]; ok && n > 0 {
		return n
	}
	return s.cfg.DefaultRateLimit
}
