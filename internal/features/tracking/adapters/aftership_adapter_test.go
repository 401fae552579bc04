package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"parcel-tracker/internal/features/tracking/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const afterShipTrackingResponse = `{
	"meta": {"code": 200},
	"data": {
		"tracking": {
			"tracking_number": "1Z999AA10123456784",
			"slug": "ups",
			"checkpoints": [
				{"slug": "ups", "checkpoint_time": "2024-03-02T09:00:00+01:00", "message": "Arrived", "city": "Berlin"}
			]
		}
	}
}`

func newAfterShipServer(t *testing.T, handler http.HandlerFunc) *AfterShipAdapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewAfterShipAdapter(ts.URL, "asat_test_key", ts.Client(), time.Second)
}

func TestAfterShipAdapter_FetchTracking_Success(t *testing.T) {
	adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/trackings/ups/1Z999AA10123456784", r.URL.Path)
		assert.Equal(t, "asat_test_key", r.Header.Get("aftership-api-key"))
		w.Write([]byte(afterShipTrackingResponse))
	})

	resp, err := adapter.FetchTracking(context.Background(), "1Z999AA10123456784", "ups")

	require.NoError(t, err)
	assert.Equal(t, "aftership", resp.Provider)
	assert.Contains(t, string(resp.Payload), `"checkpoints"`)
	assert.NotContains(t, string(resp.Payload), `"meta"`)
}

func TestAfterShipAdapter_FetchTracking_NoCheckpoints(t *testing.T) {
	adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"code":200},"data":{"tracking":{"tracking_number":"X1234","checkpoints":[]}}}`))
	})

	resp, err := adapter.FetchTracking(context.Background(), "X1234", "dhl")

	require.NoError(t, err)
	assert.Equal(t, "dhl", resp.Carrier)
	assert.Contains(t, string(resp.Payload), `"checkpoints":[]`)
}

func TestAfterShipAdapter_FetchTracking_UnidentifiedRecord(t *testing.T) {
	adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"meta":{"code":200},"data":{"tracking":{"slug":"dhl","checkpoints":[]}}}`))
	})

	_, err := adapter.FetchTracking(context.Background(), "X1234", "dhl")

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.ProviderNotFound, perr.Kind)
}

func TestAfterShipAdapter_DetectCarrier(t *testing.T) {
	adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/couriers/detect", r.URL.Path)

		var body afterShipRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "LX123456785CN", body.Tracking.TrackingNumber)

		w.Write([]byte(`{"meta":{"code":200},"data":{"total":3,"couriers":[{"slug":"china-post"},{"slug":""},{"slug":"cainiao"}]}}`))
	})

	candidates, err := adapter.DetectCarrier(context.Background(), "LX123456785CN")

	require.NoError(t, err)
	assert.Equal(t, []domain.CarrierCandidate{
		{Code: "china-post", Source: domain.SourceDetected},
		{Code: "cainiao", Source: domain.SourceDetected},
	}, candidates)
}

func TestAfterShipAdapter_DetectCarrier_Failure(t *testing.T) {
	adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	candidates, err := adapter.DetectCarrier(context.Background(), "LX123456785CN")

	assert.Error(t, err)
	assert.Empty(t, candidates)
}

func TestAfterShipAdapter_EnsureTracker(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{"created", http.StatusCreated, `{"meta":{"code":201}}`, false},
		{"already exists", http.StatusBadRequest, `{"meta":{"code":4003,"message":"Tracking already exists."}}`, false},
		{"invalid slug", http.StatusBadRequest, `{"meta":{"code":4005}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := newAfterShipServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/trackings", r.URL.Path)

				var body afterShipRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
				assert.Equal(t, "ups", body.Tracking.Slug)

				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			err := adapter.EnsureTracker(context.Background(), "1Z999AA10123456784", "ups")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
