package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type MetricType string

const (
	MetricView     MetricType = "view"
	MetricLike     MetricType = "like"
	MetricBookmark MetricType = "bookmark"
	MetricShare    MetricType = "share"
)

// Metrics lists every counter kind in a stable order.
var Metrics = []MetricType{MetricView, MetricLike, MetricBookmark, MetricShare}

func ParseMetric(s string) (MetricType, error) {
	switch MetricType(s) {
	case MetricView, MetricLike, MetricBookmark, MetricShare:
		return MetricType(s), nil
	}
	return "", ErrValidationMeta("invalid metric", map[string]string{
		"metric": "must be one of: view, like, bookmark, share",
	})
}

// IsSessionID reports whether s looks like a session token we issue
// (opaque UUID form). Malformed tokens are rejected before any store
// round-trip.
func IsSessionID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Key builders for the shared store layout. Everything the engine
// persists lives under one of these prefixes.

func CounterKey(contentType, contentID string, m MetricType) string {
	return fmt.Sprintf("counter:%s:%s:%s", contentType, contentID, m)
}

func DedupKey(sessionID, contentID string, m MetricType) string {
	return fmt.Sprintf("dedup:%s:%s:%s", sessionID, contentID, m)
}

func RateLimitKey(clientID string, m MetricType) string {
	return fmt.Sprintf("ratelimit:%s:%s", clientID, m)
}

func ActivityKey(subject, day string) string {
	return fmt.Sprintf("activity:%s:%s", subject, day)
}

func SnapshotKey(name string) string {
	return fmt.Sprintf("snapshot:%s", name)
}

func LastSeenKey(sessionID, contentID string) string {
	return fmt.Sprintf("lastseen:%s:%s", sessionID, contentID)
}

// ContentIndexKey is the set of content ids that have at least one
// counter, used to answer "counts for everything" reads.
func ContentIndexKey(contentType string) string {
	return fmt.Sprintf("counter-index:%s", contentType)
}
