package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ReddishWater101/orbitalprop/internal/auth"
	"github.com/ReddishWater101/orbitalprop/internal/batch"
	"github.com/ReddishWater101/orbitalprop/internal/store"
)

const issTLE = "ISS (ZARYA)\n1 25544U 98067A   25045.18032407  .00016717  00000+0  30099-3 0  9996\n2 25544  51.6412 193.5765 0003457 126.2851 233.8519 15.49874301495057"

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func testServer(t *testing.T, authCfg auth.Config, rlCfg RateLimitConfig) http.Handler {
	t.Helper()
	logger := testLogger()
	srv := NewServer("127.0.0.1:0", logger, authCfg, rlCfg, store.New(), batch.New(2, logger))
	return srv.Handler()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) (string, map[string]any, string) {
	t.Helper()
	var resp struct {
		Status  string         `json:"status"`
		Data    map[string]any `json:"data"`
		Message string         `json:"message"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp.Status, resp.Data, resp.Message
}

func TestPropagateEndpoint(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	body := `{
		"elements_text": ` + mustJSON(t, issTLE) + `,
		"start_time": "2025-02-14T05:00:00Z",
		"duration_hours": 1.0,
		"step_minutes": 1.0
	}`
	w := postJSON(t, h, "/api/v1/propagate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	status, data, _ := decodeEnvelope(t, w)
	if status != "success" {
		t.Fatalf("status field = %q, want success", status)
	}

	times := data["times"].([]any)
	lats := data["latitudes"].([]any)
	lons := data["longitudes"].([]any)
	alts := data["altitudes_km"].([]any)
	eci := data["positions_eci_km"].([]any)
	if len(times) != 61 {
		t.Errorf("len(times) = %d, want 61", len(times))
	}
	if len(lats) != len(times) || len(lons) != len(times) || len(alts) != len(times) || len(eci) != len(times) {
		t.Error("response arrays do not share one length")
	}
	if data["truncated"].(bool) {
		t.Error("truncated = true for a healthy orbit")
	}
}

func TestPropagateRejectsBadElements(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	w := postJSON(t, h, "/api/v1/propagate", `{
		"elements_text": "garbage",
		"start_time": "2025-02-14T05:00:00Z",
		"duration_hours": 1.0,
		"step_minutes": 1.0
	}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	status, _, msg := decodeEnvelope(t, w)
	if status != "error" || msg == "" {
		t.Errorf("envelope = (%q, %q), want error with message", status, msg)
	}
}

func TestPropagateRejectsInvalidWindow(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	tests := []struct {
		name string
		body string
	}{
		{"zero duration", `{"elements_text": ` + mustJSON(t, issTLE) + `, "start_time": "2025-02-14T05:00:00Z", "duration_hours": 0, "step_minutes": 1}`},
		{"zero step", `{"elements_text": ` + mustJSON(t, issTLE) + `, "start_time": "2025-02-14T05:00:00Z", "duration_hours": 1, "step_minutes": 0}`},
		{"missing start", `{"elements_text": ` + mustJSON(t, issTLE) + `, "duration_hours": 1, "step_minutes": 1}`},
		{"points budget exceeded", `{"elements_text": ` + mustJSON(t, issTLE) + `, "start_time": "2025-02-14T05:00:00Z", "duration_hours": 100000, "step_minutes": 0.01}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := postJSON(t, h, "/api/v1/propagate", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", w.Code, w.Body.String())
			}
		})
	}
}

func TestPassesEndpoint(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	body := `{
		"elements_text": ` + mustJSON(t, issTLE) + `,
		"start_time": "2025-02-14T05:00:00Z",
		"duration_hours": 3.0,
		"aois": [
			{"name": "wide-band", "outer_ring": [[-90, -60], [90, -60], [90, 60], [-90, 60]]},
			{"name": "broken", "outer_ring": [[0, 0], [1, 1]]}
		]
	}`
	w := postJSON(t, h, "/api/v1/passes", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	status, data, msg := decodeEnvelope(t, w)
	if status != "success" {
		t.Fatalf("status field = %q, want success", status)
	}
	if !strings.Contains(msg, "broken") {
		t.Errorf("message = %q, want a skipped-AOI warning naming the broken AOI", msg)
	}

	passesOut := data["aoi_passes"].([]any)
	if len(passesOut) != 1 {
		t.Fatalf("aoi_passes has %d entries, want just the valid AOI", len(passesOut))
	}
	entry := passesOut[0].(map[string]any)
	if entry["aoi_name"] != "wide-band" {
		t.Errorf("aoi_name = %v, want wide-band", entry["aoi_name"])
	}

	// An ISS-class orbit crosses a band this wide at least once in 3 hours.
	total := entry["total_passes"].(float64)
	if total < 1 {
		t.Errorf("total_passes = %v, want at least 1", total)
	}
	var sum float64
	for _, p := range entry["passes"].([]any) {
		sum += p.(map[string]any)["duration_seconds"].(float64)
	}
	if got := entry["total_coverage_seconds"].(float64); got != sum {
		t.Errorf("total_coverage_seconds = %v, want exact sum %v", got, sum)
	}
}

func TestPassesRequiresAOIs(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})
	w := postJSON(t, h, "/api/v1/passes", `{
		"elements_text": `+mustJSON(t, issTLE)+`,
		"start_time": "2025-02-14T05:00:00Z",
		"duration_hours": 1.0,
		"aois": []
	}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestBatchEndpoint(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	body := `{
		"elements_texts": [` + mustJSON(t, issTLE) + `, "garbage", ` + mustJSON(t, issTLE) + `],
		"start_time": "2025-02-14T05:00:00Z",
		"duration_hours": 0.5,
		"step_minutes": 1.0
	}`
	w := postJSON(t, h, "/api/v1/propagate/batch", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	_, data, _ := decodeEnvelope(t, w)

	results := data["results"].([]any)
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	for i, want := range []string{"success", "error", "success"} {
		entry := results[i].(map[string]any)
		if entry["status"] != want {
			t.Errorf("results[%d].status = %v, want %s", i, entry["status"], want)
		}
		if entry["id"] != string(rune('0'+i)) {
			t.Errorf("results[%d].id = %v, want %d", i, entry["id"], i)
		}
	}
}

func TestSatelliteRoutes(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{})

	w := postJSON(t, h, "/api/v1/satellites", `{"name": "Station", "elements_text": `+mustJSON(t, issTLE)+`}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", w.Code, w.Body.String())
	}
	_, created, _ := decodeEnvelope(t, w)
	if created["name"] != "Station" {
		t.Errorf("created name = %v, want Station", created["name"])
	}

	req := httptest.NewRequest("GET", "/api/v1/satellites", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	_, listData, _ := decodeEnvelope(t, rec)
	if len(listData["satellites"].([]any)) != 1 {
		t.Errorf("list has %d satellites, want 1", len(listData["satellites"].([]any)))
	}

	req = httptest.NewRequest("GET", "/api/v1/satellites/1", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	_, got, _ := decodeEnvelope(t, rec)
	if got["elements_text"] == nil {
		t.Error("get response missing elements_text")
	}

	req = httptest.NewRequest("GET", "/api/v1/satellites/99", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing satellite status = %d, want 404", rec.Code)
	}
}

func TestAuthEnforced(t *testing.T) {
	h := testServer(t, auth.Config{Enabled: true, Token: "secret"}, RateLimitConfig{})

	req := httptest.NewRequest("GET", "/api/v1/satellites", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest("GET", "/api/v1/satellites", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", w.Code)
	}

	// Probes stay public.
	req = httptest.NewRequest("GET", "/healthz", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("healthz status = %d, want 200", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	h := testServer(t, auth.Config{}, RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/api/v1/satellites", nil)
		req.RemoteAddr = "10.0.0.7:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("first two requests = %v, want both 200 (burst)", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}

	// A different client has its own bucket.
	req := httptest.NewRequest("GET", "/api/v1/satellites", nil)
	req.RemoteAddr = "10.0.0.8:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("fresh client status = %d, want 200", w.Code)
	}
}

func mustJSON(t *testing.T, s string) string {
	t.Helper()
	b, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshaling: %v", err)
	}
	return string(b)
}
