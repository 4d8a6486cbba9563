package openweathermap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

const testKey = "secret"

// newTestServer mimics the current weather endpoint. Temperatures are keyed by the q
// parameter.
func newTestServer(t *testing.T, temps map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			http.NotFound(w, r)
			return
		}
		q := r.URL.Query()
		if q.Get("units") != "metric" {
			t.Errorf("expected metric units, got %q", q.Get("units"))
		}
		if q.Get("appid") != testKey {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"cod":401,"message":"Invalid API key."}`)
			return
		}
		temp, ok := temps[q.Get("q")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"cod":"404","message":"city not found"}`)
			return
		}
		fmt.Fprintf(w, `{"name":%q,"dt":1700000000,"main":{"temp":%g,"humidity":40}}`, q.Get("q"), temp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCurrent(t *testing.T) {
	srv := newTestServer(t, map[string]float64{"Moscow": -7.25})
	c := NewClient(testKey, srv.URL+"/", srv.Client())
	fixed := time.Date(2024, time.January, 5, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	reading, err := c.Current(context.Background(), "Moscow")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reading.City != "Moscow" || reading.Value != -7.25 || !reading.AsOf.Equal(fixed) {
		t.Errorf("unexpected reading: %+v", reading.LiveReading)
	}
	if !strings.Contains(string(reading.Payload), `"humidity":40`) {
		t.Errorf("expected the raw payload, got %s", reading.Payload)
	}
}

func TestClientErrors(t *testing.T) {
	srv := newTestServer(t, map[string]float64{"Moscow": 1})

	_, err := NewClient("wrong", srv.URL, srv.Client()).Current(context.Background(), "Moscow")
	if !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("expected ErrInvalidAPIKey, got %v", err)
	}

	_, err = NewClient(testKey, srv.URL, srv.Client()).Current(context.Background(), "Atlantis")
	if err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("expected an error naming the status code, got %v", err)
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(testKey, "", nil)
	if c.endpoint != DefaultEndpoint {
		t.Errorf("expected default endpoint, got %s", c.endpoint)
	}
	if c.httpClient == nil {
		t.Error("expected a default HTTP client")
	}
}

func TestControllerRefresh(t *testing.T) {
	srv := newTestServer(t, map[string]float64{"Sankt-Peterburg,RU": 3.5, "Berlin": 9})
	ctx := context.Background()

	cities := []config.CityData{
		{Name: "Saint Petersburg", Query: "Sankt-Peterburg,RU"},
		{Name: "Berlin"},
		{Name: "Atlantis"},
	}
	owm := &config.OpenWeatherMapData{APIKey: testKey, APIEndpoint: srv.URL}

	c, err := NewController(ctx, &sync.WaitGroup{}, cities, owm, nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.interval != DefaultRefreshInterval {
		t.Errorf("expected default interval, got %v", c.interval)
	}

	if _, ok := c.Latest("Berlin"); ok {
		t.Error("expected no reading before the first refresh")
	}

	err = c.Refresh(ctx)
	if err == nil || !strings.Contains(err.Error(), "Atlantis") {
		t.Errorf("expected the Atlantis failure to be reported, got %v", err)
	}

	spb, ok := c.Latest("Saint Petersburg")
	if !ok || spb.Value != 3.5 || spb.City != "Saint Petersburg" {
		t.Errorf("unexpected reading: %+v (ok=%v)", spb, ok)
	}
	if _, ok := c.Latest("Atlantis"); ok {
		t.Error("expected no reading for a failed city")
	}
}

func TestNewControllerValidation(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop().Sugar()

	if _, err := NewController(ctx, &sync.WaitGroup{}, nil, nil, nil, logger); err == nil {
		t.Error("expected an error without configuration")
	}
	if _, err := NewController(ctx, &sync.WaitGroup{}, nil, &config.OpenWeatherMapData{}, nil, logger); err == nil {
		t.Error("expected an error without an API key")
	}
	if _, err := NewController(ctx, &sync.WaitGroup{}, nil, &config.OpenWeatherMapData{APIKey: "k", RefreshInterval: "often"}, nil, logger); err == nil {
		t.Error("expected an error for a bad interval")
	}
}

func TestControllerStart(t *testing.T) {
	srv := newTestServer(t, map[string]float64{"Berlin": 9})
	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	c, err := NewController(ctx, &wg, []config.CityData{{Name: "Berlin"}},
		&config.OpenWeatherMapData{APIKey: testKey, APIEndpoint: srv.URL, RefreshInterval: "1h"}, nil, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := c.StartController(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := c.Latest("Berlin"); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("no reading after start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	cancel()
	wg.Wait()
}
