package restserver

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/ingest"
	"github.com/chrissnell/tempwatch/internal/log"
	"github.com/chrissnell/tempwatch/pkg/responseformat"
	"github.com/gorilla/mux"
)

// Handlers contains all HTTP handlers for the REST server
type Handlers struct {
	controller *Controller
	formatter  *responseformat.Formatter
	now        func() time.Time
}

// NewHandlers creates a new handlers instance
func NewHandlers(ctrl *Controller) *Handlers {
	return &Handlers{
		controller: ctrl,
		formatter:  responseformat.NewFormatter(),
		now:        time.Now,
	}
}

// statusFor maps analysis errors onto HTTP status codes
func statusFor(err error) int {
	var missing *climate.MissingSeasonError
	switch {
	case errors.Is(err, analysis.ErrUnknownCity), errors.As(err, &missing):
		return http.StatusNotFound
	case errors.Is(err, climate.ErrUndefinedStatistic):
		return http.StatusUnprocessableEntity
	case errors.Is(err, climate.ErrEmptyInput), errors.Is(err, climate.ErrMixedCities):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respond writes data with the given status. The formatter encodes before writing, so
// an encoding failure can still be reported as a 500.
func (h *Handlers) respond(w http.ResponseWriter, req *http.Request, status int, data any, headers map[string]string) {
	err := h.formatter.WriteStatus(w, req, status, data, headers)
	if err == nil {
		return
	}
	log.Errorw("failed to encode response", "path", req.URL.Path, "status", status, "error", err)
	if err := h.formatter.WriteError(w, req, http.StatusInternalServerError, "failed to encode response"); err != nil {
		log.Errorw("failed to write error response", "path", req.URL.Path, "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, req *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("error serving %s: %v", req.URL.Path, err)
	}
	h.respond(w, req, status, map[string]string{"error": err.Error()}, nil)
}

func (h *Handlers) badRequest(w http.ResponseWriter, req *http.Request, message string) {
	h.respond(w, req, http.StatusBadRequest, map[string]string{"error": message}, nil)
}

// GetHealth reports whether the observation store is reachable
func (h *Handlers) GetHealth(w http.ResponseWriter, req *http.Request) {
	cities, err := h.controller.analyzer.Cities(req.Context())
	if err != nil {
		h.respond(w, req, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"error":  err.Error(),
		}, nil)
		return
	}

	h.respond(w, req, http.StatusOK, map[string]any{
		"status": "ok",
		"cities": len(cities),
	}, nil)
}

// GetCities lists the cities with stored observations
func (h *Handlers) GetCities(w http.ResponseWriter, req *http.Request) {
	cities, err := h.controller.analyzer.Cities(req.Context())
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	h.respond(w, req, http.StatusOK, cities, nil)
}

// GetSummary returns the min, max and mean temperature of a city
func (h *Handlers) GetSummary(w http.ResponseWriter, req *http.Request) {
	summary, err := h.controller.analyzer.Summary(req.Context(), mux.Vars(req)["city"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, summary, nil)
}

// GetSeasons returns the seasonal profile of a city
func (h *Handlers) GetSeasons(w http.ResponseWriter, req *http.Request) {
	stats, err := h.controller.analyzer.Seasons(req.Context(), mux.Vars(req)["city"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, stats, nil)
}

// GetAnomalies returns classified observations. The optional from and to parameters
// (inclusive), position parameter (below, within, above) and band parameter filter the
// output after classification, so every observation is still judged against its full
// trailing window.
func (h *Handlers) GetAnomalies(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()

	var from, to time.Time
	var err error
	if v := q.Get("from"); v != "" {
		if from, err = ingest.ParseTimestamp(v); err != nil {
			h.badRequest(w, req, "invalid from parameter: "+err.Error())
			return
		}
	}
	if v := q.Get("to"); v != "" {
		if to, err = ingest.ParseTimestamp(v); err != nil {
			h.badRequest(w, req, "invalid to parameter: "+err.Error())
			return
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		h.badRequest(w, req, "to must not be before from")
		return
	}

	var position climate.Position
	filterPosition := q.Get("position") != ""
	if filterPosition {
		if err := position.UnmarshalText([]byte(q.Get("position"))); err != nil {
			h.badRequest(w, req, "invalid position parameter: "+err.Error())
			return
		}
	}

	var band climate.Band
	if v := q.Get("band"); v != "" {
		band = climate.Band(v)
		if !validBand(band) {
			h.badRequest(w, req, "unknown band: "+v)
			return
		}
	}

	classified, err := h.controller.analyzer.Anomalies(req.Context(), mux.Vars(req)["city"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}

	filtered := make([]climate.ClassifiedObservation, 0, len(classified))
	for _, c := range classified {
		if !from.IsZero() && c.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && c.Timestamp.After(to) {
			continue
		}
		if filterPosition && c.Position != position {
			continue
		}
		if band != "" && c.Band != band {
			continue
		}
		filtered = append(filtered, c)
	}

	h.respond(w, req, http.StatusOK, filtered, nil)
}

func validBand(b climate.Band) bool {
	for _, known := range climate.Bands {
		if b == known {
			return true
		}
	}
	return false
}

// GetVerdict compares a temperature with the city's seasonal baseline. The temperature
// comes from the value parameter (dated by the optional date parameter, default now) or,
// without one, from the latest live reading.
func (h *Handlers) GetVerdict(w http.ResponseWriter, req *http.Request) {
	city := mux.Vars(req)["city"]
	q := req.URL.Query()

	var reading climate.LiveReading
	if v := q.Get("value"); v != "" {
		value, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			h.badRequest(w, req, "invalid value parameter: must be a finite number")
			return
		}

		asOf := h.now()
		if d := q.Get("date"); d != "" {
			if asOf, err = ingest.ParseTimestamp(d); err != nil {
				h.badRequest(w, req, "invalid date parameter: "+err.Error())
				return
			}
		}

		reading = climate.LiveReading{City: city, Value: value, AsOf: asOf}
	} else {
		var ok bool
		if h.controller.live != nil {
			reading, ok = h.controller.live.Latest(city)
		}
		if !ok {
			h.respond(w, req, http.StatusNotFound, map[string]string{"error": "no live reading available for " + city}, nil)
			return
		}
	}

	result, err := h.controller.analyzer.Verdict(req.Context(), reading)
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, result, nil)
}

// GetReport returns the full analysis of a city
func (h *Handlers) GetReport(w http.ResponseWriter, req *http.Request) {
	report, err := h.controller.analyzer.AnalyzeCity(req.Context(), mux.Vars(req)["city"])
	if err != nil {
		h.writeError(w, req, err)
		return
	}
	h.respond(w, req, http.StatusOK, report, map[string]string{"X-Run-ID": report.RunID.String()})
}
