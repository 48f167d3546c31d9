package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/contentpulse/engagement-service/internal/application/engagement"
	"github.com/contentpulse/engagement-service/internal/config"
	"github.com/contentpulse/engagement-service/internal/domain"
	redisstore "github.com/contentpulse/engagement-service/internal/infrastructure/redis"
	"github.com/contentpulse/engagement-service/internal/logger"
	"github.com/contentpulse/engagement-service/internal/transport/http/handlers"
	"github.com/contentpulse/engagement-service/internal/transport/http/router"
)

// sysClock implements engagement.Clock using system time
type sysClock struct{}

func (sysClock) Now() time.Time { return time.Now().UTC() }

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

	svc := engagement.New(store, sysClock{}, engagement.Config{
		RateWindow:       cfg.RateWindow,
		DefaultRateLimit: cfg.RateLimit,
		RateLimits:       metricLimits(cfg),
		DedupWindow:      cfg.DedupWindow,
		MinDwell:         cfg.MinDwell,
		AdmitTimeout:     cfg.AdmitTimeout,
		TouchLastSeen:    cfg.TouchLastSeen,
		ActivitySubject:  cfg.ActivitySubject,
	})

	h := handlers.NewEngagementHandler(svc, store)
	z := handlers.NewHealthHandler()
	r := router.New(h, z, cfg)

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		zlog.Info().Str("addr", cfg.HTTPAddr).Str("mode", string(cfg.Mode)).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("server crashed")
		}
	case sig := <-stop:
		zlog.Info().Str("signal", sig.String()).Msg("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			zlog.Error().Err(err).Msg("shutdown incomplete")
		}
	}
}

func metricLimits(cfg *config.Config) map[domain.MetricType]int {
	out := make(map[domain.MetricType]int, len(cfg.RateLimitPer))
	for m, n := range cfg.RateLimitPer {
		out[domain.MetricType(m)] = n
	}
	return out
}
