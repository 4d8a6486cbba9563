package config

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/chrissnell/tempwatch/pkg/migrate"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

const defaultConfigName = "default"

// MigrationProvider returns the embedded configuration schema migrations
func MigrationProvider() *migrate.FSProvider {
	return migrate.NewFSProvider(migrationFS, "migrations", "config_schema_migrations", "sqlite")
}

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (creating if needed) a SQLite configuration database and brings
// its schema up to date
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	migrator := migrate.NewMigrator(db, MigrationProvider())
	if err := migrator.MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate config schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	cities, err := s.GetCities()
	if err != nil {
		return nil, fmt.Errorf("failed to load cities: %w", err)
	}
	config.Cities = cities

	storage, err := s.GetStorageConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}
	config.Storage = *storage

	controllers, err := s.GetControllers()
	if err != nil {
		return nil, fmt.Errorf("failed to load controllers: %w", err)
	}
	config.Controllers = controllers

	analysis, err := s.GetAnalysisConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load analysis config: %w", err)
	}
	config.Analysis = *analysis

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// GetCities returns the configured cities in their saved order
func (s *SQLiteProvider) GetCities() ([]CityData, error) {
	rows, err := s.db.Query(`
		SELECT name, query
		FROM cities
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY position
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query cities: %w", err)
	}
	defer rows.Close()

	var cities []CityData
	for rows.Next() {
		var city CityData
		var query sql.NullString
		if err := rows.Scan(&city.Name, &query); err != nil {
			return nil, fmt.Errorf("failed to scan city: %w", err)
		}
		city.Query = query.String
		cities = append(cities, city)
	}

	return cities, rows.Err()
}

// GetStorageConfig returns the storage configuration
func (s *SQLiteProvider) GetStorageConfig() (*StorageData, error) {
	rows, err := s.db.Query(`
		SELECT backend, connection_string, path
		FROM storage_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query storage configs: %w", err)
	}
	defer rows.Close()

	storage := &StorageData{}
	for rows.Next() {
		var backend string
		var connectionString, path sql.NullString
		if err := rows.Scan(&backend, &connectionString, &path); err != nil {
			return nil, fmt.Errorf("failed to scan storage config: %w", err)
		}

		switch backend {
		case "timescaledb":
			storage.TimescaleDB = &TimescaleDBData{ConnectionString: connectionString.String}
		case "sqlite":
			storage.SQLite = &SQLiteData{Path: path.String}
		case "csv":
			storage.CSV = &CSVData{Path: path.String}
		}
	}

	return storage, rows.Err()
}

// GetControllers returns the controller configurations
func (s *SQLiteProvider) GetControllers() ([]ControllerData, error) {
	rows, err := s.db.Query(`
		SELECT type, api_key, api_endpoint, refresh_interval,
		       listen_addr, port, tls_cert_path, tls_key_path
		FROM controller_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
		ORDER BY id
	`, defaultConfigName)
	if err != nil {
		return nil, fmt.Errorf("failed to query controllers: %w", err)
	}
	defer rows.Close()

	var controllers []ControllerData
	for rows.Next() {
		var controllerType string
		var apiKey, apiEndpoint, refreshInterval, listenAddr, tlsCert, tlsKey sql.NullString
		var port sql.NullInt64

		if err := rows.Scan(&controllerType, &apiKey, &apiEndpoint, &refreshInterval,
			&listenAddr, &port, &tlsCert, &tlsKey); err != nil {
			return nil, fmt.Errorf("failed to scan controller: %w", err)
		}

		controller := ControllerData{Type: controllerType}
		switch controllerType {
		case ControllerOpenWeatherMap:
			controller.OpenWeatherMap = &OpenWeatherMapData{
				APIKey:          apiKey.String,
				APIEndpoint:     apiEndpoint.String,
				RefreshInterval: refreshInterval.String,
			}
		case ControllerRESTServer:
			controller.RESTServer = &RESTServerData{
				ListenAddr:  listenAddr.String,
				Port:        int(port.Int64),
				TLSCertPath: tlsCert.String,
				TLSKeyPath:  tlsKey.String,
			}
		}
		controllers = append(controllers, controller)
	}

	return controllers, rows.Err()
}

// GetAnalysisConfig returns the analysis parameters; unset values are zero
func (s *SQLiteProvider) GetAnalysisConfig() (*AnalysisData, error) {
	var windowSize sql.NullInt64
	var sigma sql.NullFloat64

	err := s.db.QueryRow(`
		SELECT window_size, sigma
		FROM analysis_configs
		WHERE config_id = (SELECT id FROM configs WHERE name = ?)
	`, defaultConfigName).Scan(&windowSize, &sigma)
	if err == sql.ErrNoRows {
		return &AnalysisData{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis config: %w", err)
	}

	return &AnalysisData{
		WindowSize: int(windowSize.Int64),
		Sigma:      sigma.Float64,
	}, nil
}

// IsReadOnly returns false since SQLite supports writes
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	configID, err := s.upsertConfig(tx, defaultConfigName)
	if err != nil {
		return fmt.Errorf("failed to insert config: %w", err)
	}

	if err := s.clearExistingConfig(tx, configID); err != nil {
		return fmt.Errorf("failed to clear existing config: %w", err)
	}

	for i, city := range configData.Cities {
		if _, err := tx.Exec(`INSERT INTO cities (config_id, position, name, query) VALUES (?, ?, ?, ?)`,
			configID, i, city.Name, nullString(city.Query)); err != nil {
			return fmt.Errorf("failed to insert city %s: %w", city.Name, err)
		}
	}

	if err := s.insertStorageConfigs(tx, configID, &configData.Storage); err != nil {
		return fmt.Errorf("failed to insert storage configs: %w", err)
	}

	for _, controller := range configData.Controllers {
		if err := s.insertController(tx, configID, &controller); err != nil {
			return fmt.Errorf("failed to insert controller %s: %w", controller.Type, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO analysis_configs (config_id, window_size, sigma) VALUES (?, ?, ?)`,
		configID, nullInt64(int64(configData.Analysis.WindowSize)), nullFloat64(configData.Analysis.Sigma)); err != nil {
		return fmt.Errorf("failed to insert analysis config: %w", err)
	}

	return tx.Commit()
}

func (s *SQLiteProvider) upsertConfig(tx *sql.Tx, name string) (int64, error) {
	_, err := tx.Exec(`
		INSERT INTO configs (name, created_at, updated_at) VALUES (?, datetime('now'), datetime('now'))
		ON CONFLICT (name) DO UPDATE SET updated_at = datetime('now')
	`, name)
	if err != nil {
		return 0, err
	}

	var id int64
	err = tx.QueryRow(`SELECT id FROM configs WHERE name = ?`, name).Scan(&id)
	return id, err
}

func (s *SQLiteProvider) clearExistingConfig(tx *sql.Tx, configID int64) error {
	queries := []string{
		"DELETE FROM cities WHERE config_id = ?",
		"DELETE FROM storage_configs WHERE config_id = ?",
		"DELETE FROM controller_configs WHERE config_id = ?",
		"DELETE FROM analysis_configs WHERE config_id = ?",
	}

	for _, query := range queries {
		if _, err := tx.Exec(query, configID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertStorageConfigs(tx *sql.Tx, configID int64, storage *StorageData) error {
	query := `INSERT INTO storage_configs (config_id, backend, connection_string, path) VALUES (?, ?, ?, ?)`

	if storage.TimescaleDB != nil {
		if _, err := tx.Exec(query, configID, "timescaledb", nullString(storage.TimescaleDB.ConnectionString), nil); err != nil {
			return err
		}
	}
	if storage.SQLite != nil {
		if _, err := tx.Exec(query, configID, "sqlite", nil, nullString(storage.SQLite.Path)); err != nil {
			return err
		}
	}
	if storage.CSV != nil {
		if _, err := tx.Exec(query, configID, "csv", nil, nullString(storage.CSV.Path)); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteProvider) insertController(tx *sql.Tx, configID int64, controller *ControllerData) error {
	var apiKey, apiEndpoint, refreshInterval, listenAddr, tlsCert, tlsKey sql.NullString
	var port sql.NullInt64

	if owm := controller.OpenWeatherMap; owm != nil {
		apiKey = nullString(owm.APIKey)
		apiEndpoint = nullString(owm.APIEndpoint)
		refreshInterval = nullString(owm.RefreshInterval)
	}
	if rs := controller.RESTServer; rs != nil {
		listenAddr = nullString(rs.ListenAddr)
		port = nullInt64(int64(rs.Port))
		tlsCert = nullString(rs.TLSCertPath)
		tlsKey = nullString(rs.TLSKeyPath)
	}

	_, err := tx.Exec(`
		INSERT INTO controller_configs (
			config_id, type, api_key, api_endpoint, refresh_interval,
			listen_addr, port, tls_cert_path, tls_key_path
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, configID, controller.Type, apiKey, apiEndpoint, refreshInterval, listenAddr, port, tlsCert, tlsKey)
	return err
}

// Helper functions for handling nullable fields
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(i int64) sql.NullInt64 {
	if i == 0 {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

func nullFloat64(f float64) sql.NullFloat64 {
	if f == 0 {
		return sql.NullFloat64{Valid: false}
	}
	return sql.NullFloat64{Float64: f, Valid: true}
}
