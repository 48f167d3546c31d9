package handlers

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/contentpulse/engagement-service/internal/application/engagement"
	"github.com/contentpulse/engagement-service/internal/domain"
	"github.com/contentpulse/engagement-service/internal/transport/http/response"
)

// SnapshotReader is the read-only snapshot surface the handler serves
// from. Reads never mutate, corrupt entries are the repair tool's job.
type SnapshotReader interface {
	GetRaw(ctx context.Context, key string) (string, bool, error)
}

type EngagementHandler struct {
	svc       *engagement.Service
	snapshots SnapshotReader
}

func NewEngagementHandler(svc *engagement.Service, snapshots SnapshotReader) *EngagementHandler {
	return &EngagementHandler{svc: svc, snapshots: snapshots}
}

type interactionReq struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Metric      string `json:"metric"`
	SessionID   string `json:"session_id"`
	DwellMs     int64  `json:"dwell_ms"`
}

type interactionResp struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (h *EngagementHandler) RecordInteraction(w http.ResponseWriter, r *http.Request) {
	var req interactionReq
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.Err(w, r, domain.ErrValidation("invalid body"))
		return
	}

	metric, err := domain.ParseMetric(req.Metric)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "post"
	}

	res := h.svc.RecordInteraction(r.Context(), engagement.InteractionRequest{
		ContentType: req.ContentType,
		ContentID:   req.ContentID,
		Metric:      metric,
		SessionID:   req.SessionID,
		ClientID:    clientIP(r),
		Dwell:       time.Duration(req.DwellMs) * time.Millisecond,
	})

	switch res.Status {
	case domain.AdmissionAdmitted, domain.AdmissionDuplicate:
		// A duplicate is a success from the caller's point of view:
		// same shape, current count, nothing to revert in the UI.
		response.Data(w, http.StatusOK, interactionResp{
			Status: string(res.Status),
			Count:  res.Count,
		})
	case domain.AdmissionRateLimited:
		retryAfter := int(res.RetryAfter.Round(time.Second).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		response.Err(w, r, domain.ErrRateLimited("too many requests"))
	default:
		response.Err(w, r, domain.ErrValidation(res.Reason))
	}
}

func (h *EngagementHandler) GetCounts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	contentType := q.Get("content_type")
	if contentType == "" {
		contentType = "post"
	}

	if id := q.Get("content_id"); id != "" {
		cc, err := h.svc.Counts(r.Context(), contentType, id)
		if err != nil {
			response.Err(w, r, err)
			return
		}
		response.Data(w, http.StatusOK, cc)
		return
	}

	all, err := h.svc.AllCounts(r.Context(), contentType)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, all)
}

func (h *EngagementHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	windowDays, _ := strconv.Atoi(q.Get("window_days"))

	stats, err := h.svc.Stats(r.Context(), q.Get("subject"), windowDays)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Data(w, http.StatusOK, stats)
}

func (h *EngagementHandler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "key")
	if name == "" {
		response.Err(w, r, domain.ErrValidation("missing snapshot key"))
		return
	}

	raw, exists, err := h.snapshots.GetRaw(r.Context(), domain.SnapshotKey(name))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if !exists {
		response.Err(w, r, domain.ErrNotFound("snapshot not available"))
		return
	}
	if raw == "" || !json.Valid([]byte(raw)) {
		// Degrade instead of crashing on a corrupt entry; repair is
		// out-of-band and requires operator intent.
		response.Err(w, r, domain.ErrCorrupted("snapshot not available"))
		return
	}

	response.Data(w, http.StatusOK, json.RawMessage(raw))
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
