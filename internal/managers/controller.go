// Package managers assembles the storage layer and controllers from configuration.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/tempwatch/internal/analysis"
	"github.com/chrissnell/tempwatch/internal/controllers/openweathermap"
	"github.com/chrissnell/tempwatch/internal/controllers/restserver"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// ControllerManager interface for the controller manager
type ControllerManager interface {
	StartControllers() error
}

// Controller is an interface that provides standard methods for various controller backends
type Controller interface {
	StartController() error
}

// NewControllerManager creates a new controller manager. The OpenWeatherMap controller is
// created first so the REST server can serve its readings regardless of configuration order.
func NewControllerManager(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData, sm *StorageManager, analyzer *analysis.Analyzer, logger *zap.SugaredLogger) (ControllerManager, error) {
	cm := &controllerManager{
		ctx:         ctx,
		wg:          wg,
		config:      c,
		storage:     sm,
		analyzer:    analyzer,
		logger:      logger,
		controllers: make([]Controller, 0),
	}

	for _, con := range c.Controllers {
		if con.Type != config.ControllerOpenWeatherMap {
			continue
		}
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	for _, con := range c.Controllers {
		if con.Type == config.ControllerOpenWeatherMap {
			continue
		}
		controller, err := cm.createController(con)
		if err != nil {
			return nil, fmt.Errorf("error creating controller: %v", err)
		}
		cm.controllers = append(cm.controllers, controller)
	}

	return cm, nil
}

type controllerManager struct {
	ctx         context.Context
	wg          *sync.WaitGroup
	config      *config.ConfigData
	storage     *StorageManager
	analyzer    *analysis.Analyzer
	logger      *zap.SugaredLogger
	controllers []Controller
	live        *openweathermap.Controller
}

func (c *controllerManager) StartControllers() error {
	c.logger.Info("Starting controller manager...")

	for _, controller := range c.controllers {
		err := controller.StartController()
		if err != nil {
			return fmt.Errorf("error starting controller: %v", err)
		}
	}

	c.logger.Infof("Started %d controllers successfully", len(c.controllers))
	return nil
}

// createController creates a controller based on the controller configuration
func (cm *controllerManager) createController(cc config.ControllerData) (Controller, error) {
	switch cc.Type {
	case config.ControllerOpenWeatherMap:
		owm, err := openweathermap.NewController(cm.ctx, cm.wg, cm.config.Cities, cc.OpenWeatherMap, cm.storage.LiveReadingDB(), cm.logger)
		if err != nil {
			return nil, err
		}
		cm.live = owm
		return owm, nil
	case config.ControllerRESTServer, "restserver":
		if cc.RESTServer == nil {
			return nil, fmt.Errorf("rest controller configuration is missing")
		}
		var live restserver.LiveSource
		if cm.live != nil {
			live = cm.live
		}
		return restserver.NewController(cm.ctx, cm.wg, *cc.RESTServer, cm.analyzer, live, cm.logger)
	default:
		return nil, fmt.Errorf("unknown controller type: %s", cc.Type)
	}
}
