package restserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/storage/memory"
	"github.com/chrissnell/tempwatch/pkg/config"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

type staticLive map[string]climate.LiveReading

func (s staticLive) Latest(city string) (climate.LiveReading, bool) {
	r, ok := s[city]
	return r, ok
}

func obs(city string, ts time.Time, temp float64) climate.Observation {
	return climate.NewObservation(city, ts, temp)
}

func newTestController(t *testing.T, live LiveSource) *Controller {
	t.Helper()

	jan := time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	store := memory.New([]climate.Observation{
		obs("Paris", jan, 5),
		obs("Paris", jan.AddDate(0, 0, 1), 7),
		obs("Paris", jan.AddDate(0, 0, 2), 6),
		obs("Paris", jan.AddDate(0, 0, 3), -3),
		obs("Paris", jan.AddDate(0, 6, 0), 25),
	})

	logger := zap.NewNop().Sugar()
	a := analysis.NewAnalyzer(store, climate.DefaultDetectorParams(), logger)
	c, err := NewController(context.Background(), &sync.WaitGroup{}, config.RESTServerData{}, a, live, logger)
	if err != nil {
		t.Fatalf("failed to create controller: %v", err)
	}
	c.handlers.now = func() time.Time { return jan.AddDate(4, 0, 14) }
	return c
}

func get(t *testing.T, c *Controller, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestNewControllerDefaults(t *testing.T) {
	c := newTestController(t, nil)
	if c.Server.Addr != "0.0.0.0:8080" {
		t.Errorf("expected default listen address, got %s", c.Server.Addr)
	}
}

func TestGetCities(t *testing.T) {
	rec := get(t, newTestController(t, nil), "/cities")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var cities []string
	decode(t, rec, &cities)
	if len(cities) != 1 || cities[0] != "Paris" {
		t.Errorf("unexpected cities: %v", cities)
	}
}

func TestGetSummary(t *testing.T) {
	c := newTestController(t, nil)

	rec := get(t, c, "/summary/Paris")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary climate.SeriesSummary
	decode(t, rec, &summary)
	if summary.Min != -3 || summary.Max != 25 || summary.Count != 5 {
		t.Errorf("unexpected summary: %+v", summary)
	}

	if rec := get(t, c, "/summary/Atlantis"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown city, got %d", rec.Code)
	}
}

func TestGetSeasons(t *testing.T) {
	rec := get(t, newTestController(t, nil), "/seasons/Paris")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var raw []map[string]any
	decode(t, rec, &raw)
	if len(raw) != 2 {
		t.Fatalf("expected winter and summer, got %v", raw)
	}
	if raw[0]["season"] != "winter" || raw[1]["season"] != "summer" {
		t.Errorf("unexpected season order: %v", raw)
	}
	if raw[1]["std"] != nil {
		t.Errorf("expected null std for a single observation, got %v", raw[1]["std"])
	}
}

func TestGetAnomalies(t *testing.T) {
	c := newTestController(t, nil)

	var all []climate.ClassifiedObservation
	rec := get(t, c, "/anomalies/Paris")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	decode(t, rec, &all)
	if len(all) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(all))
	}

	// The rolling values of a filtered observation match the unfiltered run.
	var window []climate.ClassifiedObservation
	decode(t, get(t, c, "/anomalies/Paris?from=2020-01-03&to=2020-01-04"), &window)
	if len(window) != 2 {
		t.Fatalf("expected 2 observations in range, got %d", len(window))
	}
	if window[0].RollingMean != all[2].RollingMean || window[1].RollingStd != all[3].RollingStd {
		t.Errorf("filtering changed rolling statistics: %+v vs %+v", window, all[2:4])
	}

	var negative []climate.ClassifiedObservation
	decode(t, get(t, c, "/anomalies/Paris?band=normal_negative"), &negative)
	for _, o := range negative {
		if o.Band != climate.NormalNegative {
			t.Errorf("unexpected band %s in filtered output", o.Band)
		}
	}

	var within, above []climate.ClassifiedObservation
	decode(t, get(t, c, "/anomalies/Paris?position=within"), &within)
	if len(within) != len(all) {
		t.Errorf("expected every observation within its band, got %d of %d", len(within), len(all))
	}
	decode(t, get(t, c, "/anomalies/Paris?position=above"), &above)
	if len(above) != 0 {
		t.Errorf("expected no observation above its band, got %+v", above)
	}

	var combined []climate.ClassifiedObservation
	decode(t, get(t, c, "/anomalies/Paris?position=within&band=normal_negative"), &combined)
	if len(combined) != 1 || combined[0].Temperature != -3 {
		t.Errorf("expected only the -3 reading, got %+v", combined)
	}

	tests := []string{
		"/anomalies/Paris?position=sideways",
		"/anomalies/Paris?from=yesterday",
		"/anomalies/Paris?to=2020-13-01",
		"/anomalies/Paris?from=2020-02-01&to=2020-01-01",
		"/anomalies/Paris?band=freezing",
	}
	for _, target := range tests {
		if rec := get(t, c, target); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestGetVerdict(t *testing.T) {
	live := staticLive{
		"Paris": {City: "Paris", Value: 40, AsOf: time.Date(2024, time.January, 20, 12, 0, 0, 0, time.UTC)},
	}
	c := newTestController(t, live)

	tests := []struct {
		name    string
		target  string
		status  int
		verdict climate.Verdict
	}{
		{"explicit value defaults to now", "/verdict/Paris?value=4", http.StatusOK, climate.Normal},
		{"explicit date", "/verdict/Paris?value=-30&date=2021-02-01", http.StatusOK, climate.AnomalousLow},
		{"live reading", "/verdict/Paris", http.StatusOK, climate.AnomalousHigh},
		{"missing season", "/verdict/Paris?value=10&date=2021-04-01", http.StatusNotFound, ""},
		{"undefined std", "/verdict/Paris?value=25&date=2021-07-01", http.StatusUnprocessableEntity, ""},
		{"bad value", "/verdict/Paris?value=warm", http.StatusBadRequest, ""},
		{"NaN value", "/verdict/Paris?value=NaN&date=2020-01-10", http.StatusBadRequest, ""},
		{"infinite value", "/verdict/Paris?value=-Inf&date=2020-01-10", http.StatusBadRequest, ""},
		{"bad date", "/verdict/Paris?value=1&date=soon", http.StatusBadRequest, ""},
		{"unknown city", "/verdict/Atlantis?value=1", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, c, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			if tt.verdict == "" {
				return
			}
			var result analysis.VerdictResult
			decode(t, rec, &result)
			if result.Verdict != tt.verdict {
				t.Errorf("expected %s, got %s", tt.verdict, result.Verdict)
			}
		})
	}
}

func TestGetVerdictWithoutLiveReading(t *testing.T) {
	if rec := get(t, newTestController(t, nil), "/verdict/Paris"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a live source, got %d", rec.Code)
	}
	if rec := get(t, newTestController(t, staticLive{}), "/verdict/Paris"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a reading, got %d", rec.Code)
	}
}

func TestGetReportMsgPack(t *testing.T) {
	rec := get(t, newTestController(t, nil), "/report/Paris?format=msgpack")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Run-ID") == "" {
		t.Error("expected a run ID header")
	}

	var report map[string]any
	if err := msgpack.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("invalid msgpack: %v", err)
	}
	if report["city"] != "Paris" {
		t.Errorf("unexpected report: %v", report)
	}
}

func TestGetHealth(t *testing.T) {
	rec := get(t, newTestController(t, nil), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	decode(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("unexpected body: %v", body)
	}
}

func TestStatusRecorder(t *testing.T) {
	inner := httptest.NewRecorder()
	rec := &statusRecorder{ResponseWriter: inner}
	rec.Write([]byte("hello"))

	if rec.status != http.StatusOK || rec.size != 5 {
		t.Errorf("unexpected recorder state: status=%d size=%d", rec.status, rec.size)
	}
}
