package db

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

func samplePoolStats() *PoolStats {
	return &PoolStats{
		TotalConns:      10,
		IdleConns:       5,
		AcquiredConns:   5,
		MaxConns:        20,
		AcquireCount:    100,
		AcquireDuration: "1.5s",
		Healthy:         true,
	}
}

func TestHealthResponse_PingOK(t *testing.T) {
	code, body := healthResponse(samplePoolStats(), nil)

	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if body["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", body["status"])
	}
	if _, ok := body["error"]; ok {
		t.Error("healthy response must not carry an error field")
	}
}

func TestHealthResponse_PingFails(t *testing.T) {
	stats := samplePoolStats()
	code, body := healthResponse(stats, errors.New("connection refused"))

	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if body["status"] != "unhealthy" {
		t.Errorf("status = %v, want unhealthy", body["status"])
	}
	if body["error"] != "connection refused" {
		t.Errorf("error = %v, want connection refused", body["error"])
	}
	if stats.Healthy {
		t.Error("snapshot must be marked unhealthy when ping fails")
	}
}

func TestPoolStats_JSONShape(t *testing.T) {
	raw, err := json.Marshal(samplePoolStats())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"total_conns", "idle_conns", "acquired_conns", "max_conns", "acquire_count", "acquire_duration", "healthy"} {
		if _, ok := got[key]; !ok {
			t.Errorf("missing %q in pool snapshot", key)
		}
	}
}
