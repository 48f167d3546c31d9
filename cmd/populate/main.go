package main

import (
	"context"
	"log"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/application/snapshot"
	"github.com/contentpulse/engagement-service/internal/config"
	redisstore "github.com/contentpulse/engagement-service/internal/infrastructure/redis"
	"github.com/contentpulse/engagement-service/internal/logger"
)

// Populates every snapshot from upstream truth. Run on a schedule or at
// deploy time; in production mode a failed run exits non-zero and
// blocks the pipeline.
func main() {
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	store, err := redisstore.New(cfg.RedisURL)
	if err != nil {
		zlog.Fatal().Err(err).Msg("redis connect failed")
	}
	defer store.Close()

	pop := buildPopulator(cfg, store)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PopulateTimeout)
	defer cancel()

	if err := pop.Run(ctx); err != nil {
		zlog.Fatal().Err(err).Msg("population failed")
	}
	zlog.Info().Strs("sources", pop.SourceIDs()).Msg("population complete")
}

func buildPopulator(cfg *config.Config, store *redisstore.Store) *snapshot.Populator {
	client := &http.Client{Timeout: 10 * time.Second}

	sources := []snapshot.Source{
		snapshot.NewTrendingSource(store, "post", 10),
	}
	if cfg.BadgeAPIURL != "" {
		sources = append(sources, snapshot.NewBadgeSource(client, cfg.BadgeAPIURL, "site"))
	} else {
		zlog.Warn().Msg("BADGE_API_URL empty: badge snapshot skipped")
	}
	if cfg.CommitFeedURL != "" {
		sources = append(sources, snapshot.NewMilestoneSource(client, cfg.CommitFeedURL, cfg.CommitSubject, store, 0))
	} else {
		zlog.Warn().Msg("COMMIT_FEED_URL empty: milestone snapshot skipped")
	}

	return snapshot.NewPopulator(store, cfg.Mode, cfg.SnapshotTTL, sources...)
}
