package managers

import (
	"context"
	"fmt"
	"sync"

	"gorm.io/gorm"

	"github.com/chrissnell/tempwatch/internal/storage"
	"github.com/chrissnell/tempwatch/pkg/config"
	"go.uber.org/zap"
)

// StorageManager owns the observation store for the lifetime of the application
type StorageManager struct {
	Store  storage.ObservationStore
	logger *zap.SugaredLogger
}

// gormBacked is implemented by stores that hold a GORM connection
type gormBacked interface {
	DB() *gorm.DB
}

// NewStorageManager opens the configured observation store. The store is closed when ctx
// is cancelled.
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c *config.ConfigData, logger *zap.SugaredLogger) (*StorageManager, error) {
	store, err := storage.New(ctx, c.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("could not open observation storage: %v", err)
	}

	s := &StorageManager{
		Store:  store,
		logger: logger,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := s.Store.Close(); err != nil {
			logger.Errorf("error closing observation storage: %v", err)
		}
	}()

	return s, nil
}

// LiveReadingDB returns the GORM connection used to log live readings, or nil when the
// store is not database backed
func (s *StorageManager) LiveReadingDB() *gorm.DB {
	if g, ok := s.Store.(gormBacked); ok {
		return g.DB()
	}
	return nil
}
