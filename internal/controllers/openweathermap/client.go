// Package openweathermap fetches current temperatures from the OpenWeatherMap API.
package openweathermap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/controllers"
	"github.com/chrissnell/tempwatch/internal/log"
)

// DefaultEndpoint is used when no API endpoint is configured
const DefaultEndpoint = "http://api.openweathermap.org"

const currentWeatherPath = "/data/2.5/weather"

// ErrInvalidAPIKey is returned when the service rejects the API key
var ErrInvalidAPIKey = errors.New("invalid OpenWeatherMap API key")

// CurrentWeatherResponse is the subset of the current weather response we use
type CurrentWeatherResponse struct {
	Name string `json:"name"`
	Dt   int64  `json:"dt"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Message string `json:"message"`
}

// Reading is a live temperature together with the raw service response
type Reading struct {
	climate.LiveReading
	Payload json.RawMessage
}

// Client calls the current weather endpoint
type Client struct {
	apiKey     string
	endpoint   string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. An empty endpoint selects DefaultEndpoint and a nil
// httpClient selects a client with the standard timeout.
func NewClient(apiKey, endpoint string, httpClient *http.Client) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if httpClient == nil {
		httpClient = controllers.NewHTTPClient(0)
	}
	return &Client{
		apiKey:     apiKey,
		endpoint:   strings.TrimSuffix(endpoint, "/"),
		httpClient: httpClient,
		now:        time.Now,
	}
}

// Current fetches the current metric temperature for city
func (c *Client) Current(ctx context.Context, city string) (*Reading, error) {
	return c.CurrentQuery(ctx, city, city)
}

// CurrentQuery fetches the current temperature using query as the location and labels the
// reading with city. The reading is dated at the time of the request.
func (c *Client) CurrentQuery(ctx context.Context, city, query string) (*Reading, error) {
	v := url.Values{}
	v.Set("appid", c.apiKey)
	v.Set("units", "metric")
	v.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+currentWeatherPath+"?"+v.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating OpenWeatherMap request: %w", err)
	}

	log.Debugf("Making request to OpenWeatherMap for %s", query)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request to OpenWeatherMap: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading OpenWeatherMap response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrInvalidAPIKey
	default:
		return nil, fmt.Errorf("OpenWeatherMap returned status %d for %s", resp.StatusCode, query)
	}

	response := &CurrentWeatherResponse{}
	if err := json.NewDecoder(bytes.NewReader(bodyBytes)).Decode(response); err != nil {
		return nil, fmt.Errorf("unable to decode OpenWeatherMap response: %w", err)
	}

	return &Reading{
		LiveReading: climate.LiveReading{
			City:  city,
			Value: response.Main.Temp,
			AsOf:  c.now(),
		},
		Payload: json.RawMessage(bodyBytes),
	}, nil
}
