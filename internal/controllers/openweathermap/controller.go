package openweathermap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/chrissnell/tempwatch/internal/climate"
	"github.com/chrissnell/tempwatch/internal/controllers"
	"github.com/chrissnell/tempwatch/internal/database"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// DefaultRefreshInterval is used when no refresh interval is configured
const DefaultRefreshInterval = 10 * time.Minute

// Controller periodically fetches the current temperature of every configured city and
// keeps the latest reading for each
type Controller struct {
	ctx      context.Context
	wg       *sync.WaitGroup
	logger   *zap.SugaredLogger
	client   *Client
	cities   []config.CityData
	interval time.Duration

	// db, when set, receives every reading in the live_readings table
	db *gorm.DB

	mu     sync.RWMutex
	latest map[string]climate.LiveReading
}

// NewController creates the OpenWeatherMap controller. db may be nil.
func NewController(ctx context.Context, wg *sync.WaitGroup, cities []config.CityData, owm *config.OpenWeatherMapData, db *gorm.DB, logger *zap.SugaredLogger) (*Controller, error) {
	if owm == nil {
		return nil, fmt.Errorf("openweathermap configuration is missing")
	}

	if err := controllers.ValidateRequiredFields(map[string]string{"api_key": owm.APIKey}); err != nil {
		return nil, err
	}

	interval, err := controllers.ParseInterval(owm.RefreshInterval, DefaultRefreshInterval)
	if err != nil {
		return nil, err
	}

	if db != nil {
		if err := db.WithContext(ctx).AutoMigrate(&database.LiveReadingRecord{}); err != nil {
			return nil, fmt.Errorf("error creating live reading table: %w", err)
		}
	}

	return &Controller{
		ctx:      ctx,
		wg:       wg,
		logger:   logger,
		client:   NewClient(owm.APIKey, owm.APIEndpoint, nil),
		cities:   cities,
		interval: interval,
		db:       db,
		latest:   make(map[string]climate.LiveReading),
	}, nil
}

// StartController begins the refresh loop
func (c *Controller) StartController() error {
	if len(c.cities) == 0 {
		c.logger.Info("No cities configured - OpenWeatherMap controller will remain idle")
		return nil
	}

	c.logger.Infof("Starting OpenWeatherMap controller for %d cities (refresh every %v)", len(c.cities), c.interval)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		controllers.RunPeriodicTask(c.ctx, controllers.PeriodicTask{
			Name:           "openweathermap refresh",
			Interval:       c.interval,
			Task:           func() error { return c.Refresh(c.ctx) },
			RunImmediately: true,
		}, c.logger)
	}()

	return nil
}

// Refresh fetches every city once. Failures for individual cities are joined into the
// returned error and leave their previous reading in place.
func (c *Controller) Refresh(ctx context.Context) error {
	var errs []error
	for _, city := range c.cities {
		reading, err := c.client.CurrentQuery(ctx, city.Name, city.LocationQuery())
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", city.Name, err))
			continue
		}

		c.mu.Lock()
		c.latest[city.Name] = reading.LiveReading
		c.mu.Unlock()

		c.logger.Debugf("Current temperature in %s: %.1f°C", city.Name, reading.Value)

		if err := c.record(ctx, reading); err != nil {
			c.logger.Errorf("error saving live reading for %s: %v", city.Name, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Controller) record(ctx context.Context, reading *Reading) error {
	if c.db == nil {
		return nil
	}

	rec, err := database.NewLiveReadingRecord(reading.LiveReading, reading.Payload)
	if err != nil {
		return err
	}
	return c.db.WithContext(ctx).Create(&rec).Error
}

// Latest returns the most recent reading for city, if one has been fetched
func (c *Controller) Latest(city string) (climate.LiveReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	reading, ok := c.latest[city]
	return reading, ok
}
