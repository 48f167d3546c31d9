package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DeploymentMode drives the populator's failure policy. It is resolved
// once at load time so components never consult the environment directly.
type DeploymentMode string

const (
	ModeProduction  DeploymentMode = "production"
	ModePreview     DeploymentMode = "preview"
	ModeDevelopment DeploymentMode = "development"
)

type Config struct {
	AppEnv string
	Mode   DeploymentMode

	HTTPAddr string
	RedisURL string

	// Admission gate
	DedupWindow     time.Duration
	MinDwell        time.Duration
	AdmitTimeout    time.Duration
	RateWindow      time.Duration
	RateLimit       int                // uniform default ceiling
	RateLimitPer    map[string]int     // per-metric overrides
	TouchLastSeen   bool               // duplicates refresh a last-seen marker
	ActivitySubject string             // subject bumped on admitted interactions

	// Snapshots
	SnapshotTTL     time.Duration
	PopulateTimeout time.Duration
	BadgeAPIURL     string
	CommitFeedURL   string
	CommitSubject   string

	// Stats
	ActivityWindowDays int

	// Router-edge rate limiting
	RLEnabled bool
	RLLimit   int
	RLWindow  time.Duration

	LogLevel  string
	LogFormat string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}

	cfg.AppEnv = getEnv("APP_ENV", "dev")
	cfg.Mode = modeFromEnv(cfg.AppEnv)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", ":8084")
	cfg.RedisURL = getEnv("REDIS_URL", "redis://localhost:6379/0")

	cfg.DedupWindow = getDuration("DEDUP_WINDOW", 5*time.Minute)
	cfg.MinDwell = getDuration("MIN_DWELL", 2*time.Second)
	cfg.AdmitTimeout = getDuration("ADMIT_TIMEOUT", 300*time.Millisecond)
	cfg.RateWindow = getDuration("RATE_WINDOW", 1*time.Minute)
	cfg.RateLimit = getIntEnv("RATE_LIMIT", 30)
	cfg.TouchLastSeen = getEnv("DEDUP_TOUCH_LAST_SEEN", "false") == "true"
	cfg.ActivitySubject = getEnv("ACTIVITY_SUBJECT", "engagement")

	// Per-metric ceilings default to the uniform limit; shares are
	// usually throttled harder than views, so each is overridable.
	cfg.RateLimitPer = map[string]int{}
	for _, m := range []string{"view", "like", "bookmark", "share"} {
		key := "RATE_LIMIT_" + strings.ToUpper(m)
		cfg.RateLimitPer[m] = getIntEnv(key, cfg.RateLimit)
	}

	cfg.SnapshotTTL = getDuration("SNAPSHOT_TTL", 24*time.Hour)
	cfg.PopulateTimeout = getDuration("POPULATE_TIMEOUT", 30*time.Second)
	cfg.BadgeAPIURL = getEnv("BADGE_API_URL", "")
	cfg.CommitFeedURL = getEnv("COMMIT_FEED_URL", "")
	cfg.CommitSubject = getEnv("COMMIT_SUBJECT", "commits")

	cfg.ActivityWindowDays = getIntEnv("ACTIVITY_WINDOW_DAYS", 367)

	cfg.RLEnabled = getEnv("RL_ENABLED", "true") == "true"
	cfg.RLLimit = getIntEnv("RL_IP_LIMIT", 100)
	cfg.RLWindow = getDuration("RL_IP_WINDOW", 1*time.Minute)

	cfg.LogLevel = getEnv("LOG_LEVEL", "info")
	cfg.LogFormat = getEnv("LOG_FORMAT", "console")

	cfg.HTTPReadTimeout = getDuration("HTTP_READ_TIMEOUT", 10*time.Second)
	cfg.HTTPWriteTimeout = getDuration("HTTP_WRITE_TIMEOUT", 20*time.Second)
	cfg.HTTPIdleTimeout = getDuration("HTTP_IDLE_TIMEOUT", 60*time.Second)

	// validation
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("missing REDIS_URL")
	}
	if cfg.Mode == ModeProduction {
		if cfg.BadgeAPIURL == "" {
			return nil, fmt.Errorf("missing BADGE_API_URL (required when APP_ENV == production)")
		}
		if cfg.CommitFeedURL == "" {
			return nil, fmt.Errorf("missing COMMIT_FEED_URL (required when APP_ENV == production)")
		}
	}
	if cfg.ActivityWindowDays <= 0 || cfg.ActivityWindowDays > 367 {
		cfg.ActivityWindowDays = 367
	}

	return cfg, nil
}

func modeFromEnv(appEnv string) DeploymentMode {
	switch strings.ToLower(strings.TrimSpace(appEnv)) {
	case "prod", "production":
		return ModeProduction
	case "preview", "staging":
		return ModePreview
	default:
		return ModeDevelopment
	}
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getIntEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
