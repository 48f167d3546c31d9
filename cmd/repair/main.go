package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/application/snapshot"
	"github.com/contentpulse/engagement-service/internal/config"
	redisstore "github.com/contentpulse/engagement-service/internal/infrastructure/redis"
	"github.com/contentpulse/engagement-service/internal/logger"
)

// Operator tool: inspects the critical snapshot keys and, with
// -execute, reinitializes corrupt entries from upstream. Default is a
// dry run that mutates nothing.
func main() {
	var (
		key     = flag.String("key", "", "single snapshot key to check (default: all critical keys)")
		execute = flag.Bool("execute", false, "actually delete and repopulate corrupt entries")
	)
	flag.Parse()

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
	repairer := snapshot.NewRepairer(store, pop)

	mode := snapshot.ModeDryRun
	if *execute {
		mode = snapshot.ModeExecute
	}

	keys := repairer.CriticalKeys()
	if *key != "" {
		keys = []string{*key}
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.PopulateTimeout)
	defer cancel()

	failed := false
	for _, k := range keys {
		res, err := repairer.Repair(ctx, k, mode)
		if err != nil {
			zlog.Error().Err(err).Str("key", k).Msg("repair failed")
			failed = true
			continue
		}
		ev := zlog.Info().
			Str("key", k).
			Bool("exists", res.Finding.Exists).
			Bool("valid", res.Finding.Valid).
			Str("action", res.Action)
		if res.Finding.Reason != "" {
			ev = ev.Str("reason", res.Finding.Reason)
		}
		ev.Msg("inspected")
	}
	if failed {
		os.Exit(1)
	}
}

func buildPopulator(cfg *config.Config, store *redisstore.Store) *snapshot.Populator {
	client := &http.Client{Timeout: 10 * time.Second}

	sources := []snapshot.Source{
		snapshot.NewTrendingSource(store, "post", 10),
	}
	if cfg.BadgeAPIURL != "" {
		sources = append(sources, snapshot.NewBadgeSource(client, cfg.BadgeAPIURL, "site"))
	}
	if cfg.CommitFeedURL != "" {
		sources = append(sources, snapshot.NewMilestoneSource(client, cfg.CommitFeedURL, cfg.CommitSubject, store, 0))
	}

	return snapshot.NewPopulator(store, cfg.Mode, cfg.SnapshotTTL, sources...)
}
