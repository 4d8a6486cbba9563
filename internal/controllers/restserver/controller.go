// Package restserver serves the temperature statistics over HTTP.
package restserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/log"
	"github.com/chrissnell/tempwatch/pkg/config"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LiveSource supplies the most recent live reading for a city
type LiveSource interface {
	Latest(city string) (climate.LiveReading, bool)
}

// Controller represents the REST server controller
type Controller struct {
	ctx        context.Context
	wg         *sync.WaitGroup
	restConfig config.RESTServerData
	Server     http.Server
	analyzer   *analysis.Analyzer
	live       LiveSource
	logger     *zap.SugaredLogger
	handlers   *Handlers
}

// NewController creates a new REST server controller. live may be nil, in which case
// verdicts require an explicit value.
func NewController(ctx context.Context, wg *sync.WaitGroup, rc config.RESTServerData, analyzer *analysis.Analyzer, live LiveSource, logger *zap.SugaredLogger) (*Controller, error) {
	if analyzer == nil {
		return nil, fmt.Errorf("REST server requires an analyzer")
	}

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		logger.Info("rest.listen_addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = "0.0.0.0"
	}

	// Set default HTTP port if not specified
	if rc.Port == 0 {
		logger.Info("rest.port not provided; defaulting to 8080")
		rc.Port = 8080
	}

	ctrl := &Controller{
		ctx:        ctx,
		wg:         wg,
		restConfig: rc,
		analyzer:   analyzer,
		live:       live,
		logger:     logger,
	}
	ctrl.handlers = NewHandlers(ctrl)

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.Port)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	log.Infof("Starting REST server controller on %s...", c.Server.Addr)
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			if err := c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		} else {
			if err := c.Server.ListenAndServe(); err != http.ErrServerClosed {
				log.Errorf("REST server error: %v", err)
			}
		}
	}()

	go func() {
		<-c.ctx.Done()
		log.Info("Shutting down the REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Server.Shutdown(shutdownCtx)
	}()

	return nil
}

// Handler returns the router serving every endpoint
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(loggingMiddleware)

	router.HandleFunc("/health", c.handlers.GetHealth).Methods(http.MethodGet)
	router.HandleFunc("/cities", c.handlers.GetCities).Methods(http.MethodGet)
	router.HandleFunc("/summary/{city}", c.handlers.GetSummary).Methods(http.MethodGet)
	router.HandleFunc("/seasons/{city}", c.handlers.GetSeasons).Methods(http.MethodGet)
	router.HandleFunc("/anomalies/{city}", c.handlers.GetAnomalies).Methods(http.MethodGet)
	router.HandleFunc("/verdict/{city}", c.handlers.GetVerdict).Methods(http.MethodGet)
	router.HandleFunc("/report/{city}", c.handlers.GetReport).Methods(http.MethodGet)

	return router
}
