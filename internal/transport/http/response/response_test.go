package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/contentpulse/engagement-service/internal/domain"
)

func TestErr(t *testing.T) {
	t.Run("maps_domain_error_to_correct_status", func(t *testing.T) {
		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantCode   string
		}{
			{
				name:       "validation",
				err:        domain.ErrValidation("bad session token"),
				wantStatus: http.StatusBadRequest,
				wantCode:   "validation_error",
			},
			{
				name:       "rate_limited",
				err:        domain.ErrRateLimited("slow down"),
				wantStatus: http.StatusTooManyRequests,
				wantCode:   "rate_limited",
			},
			{
				name:       "not_found",
				err:        domain.ErrNotFound("snapshot missing"),
				wantStatus: http.StatusNotFound,
				wantCode:   "not_found",
			},
			{
				name:       "corrupted",
				err:        domain.ErrCorrupted("snapshot unparsable"),
				wantStatus: http.StatusServiceUnavailable,
				wantCode:   "corrupted",
			},
			{
				name:       "generic_error",
				err:        errors.New("redis down"),
				wantStatus: http.StatusInternalServerError,
				wantCode:   "internal_error",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rr := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
				Err(rr, req, tt.err)

				assert.Equal(t, tt.wantStatus, rr.Code)

				var body ErrorBody
				err := json.Unmarshal(rr.Body.Bytes(), &body)
				assert.NoError(t, err)
				assert.Equal(t, tt.wantCode, body.Error.Code)
			})
		}
	})
}

func TestData(t *testing.T) {
	t.Run("wraps_payload_in_data_envelope", func(t *testing.T) {
		rr := httptest.NewRecorder()
		payload := map[string]string{"content_id": "p1"}

		Data(rr, http.StatusOK, payload)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

		var env Envelope
		err := json.Unmarshal(rr.Body.Bytes(), &env)
		assert.NoError(t, err)

		dataMap := env.Data.(map[string]any)
		assert.Equal(t, "p1", dataMap["content_id"])
	})
}
