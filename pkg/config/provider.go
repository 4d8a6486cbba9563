// Package config loads tempwatch configuration from YAML files or SQLite databases.
package config

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	// Get specific configuration sections
	GetCities() ([]CityData, error)
	GetStorageConfig() (*StorageData, error)
	GetControllers() ([]ControllerData, error)
	GetAnalysisConfig() (*AnalysisData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Cities      []CityData       `json:"cities" yaml:"cities"`
	Storage     StorageData      `json:"storage,omitempty" yaml:"storage,omitempty"`
	Controllers []ControllerData `json:"controllers,omitempty" yaml:"controllers,omitempty"`
	Analysis    AnalysisData     `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// CityData names a city served by tempwatch. Query is the location string sent to the
// weather service and defaults to Name.
type CityData struct {
	Name  string `json:"name" yaml:"name"`
	Query string `json:"query,omitempty" yaml:"query,omitempty"`
}

// LocationQuery returns the weather service query for the city
func (c CityData) LocationQuery() string {
	if c.Query != "" {
		return c.Query
	}
	return c.Name
}

// StorageData holds the configuration for the historical observation sources. When several
// are configured, TimescaleDB is preferred over SQLite, and SQLite over CSV.
type StorageData struct {
	TimescaleDB *TimescaleDBData `json:"timescaledb,omitempty" yaml:"timescaledb,omitempty"`
	SQLite      *SQLiteData      `json:"sqlite,omitempty" yaml:"sqlite,omitempty"`
	CSV         *CSVData         `json:"csv,omitempty" yaml:"csv,omitempty"`
}

type TimescaleDBData struct {
	ConnectionString string `json:"connection_string" yaml:"connection_string"`
}

// GetConnectionString returns the connection string, tolerating a nil receiver
func (t *TimescaleDBData) GetConnectionString() string {
	if t == nil {
		return ""
	}
	return t.ConnectionString
}

type SQLiteData struct {
	Path string `json:"path" yaml:"path"`
}

type CSVData struct {
	Path string `json:"path" yaml:"path"`
}

// ControllerData holds the configuration for the controllers
type ControllerData struct {
	Type           string              `json:"type,omitempty" yaml:"type,omitempty"`
	OpenWeatherMap *OpenWeatherMapData `json:"openweathermap,omitempty" yaml:"openweathermap,omitempty"`
	RESTServer     *RESTServerData     `json:"rest,omitempty" yaml:"rest,omitempty"`
}

type OpenWeatherMapData struct {
	APIKey          string `json:"api_key" yaml:"api_key"`
	APIEndpoint     string `json:"api_endpoint,omitempty" yaml:"api_endpoint,omitempty"`
	RefreshInterval string `json:"refresh_interval,omitempty" yaml:"refresh_interval,omitempty"`
}

type RESTServerData struct {
	ListenAddr  string `json:"listen_addr,omitempty" yaml:"listen_addr,omitempty"`
	Port        int    `json:"port,omitempty" yaml:"port,omitempty"`
	TLSCertPath string `json:"tls_cert_path,omitempty" yaml:"tls_cert_path,omitempty"`
	TLSKeyPath  string `json:"tls_key_path,omitempty" yaml:"tls_key_path,omitempty"`
}

// AnalysisData tunes the rolling anomaly detector
type AnalysisData struct {
	WindowSize int     `json:"window_size,omitempty" yaml:"window_size,omitempty"`
	Sigma      float64 `json:"sigma,omitempty" yaml:"sigma,omitempty"`
}

// Controller types
const (
	ControllerOpenWeatherMap = "openweathermap"
	ControllerRESTServer     = "rest"
)

// Controller returns the first controller of the given type, or nil
func (c *ConfigData) Controller(controllerType string) *ControllerData {
	for i := range c.Controllers {
		if c.Controllers[i].Type == controllerType {
			return &c.Controllers[i]
		}
	}
	return nil
}
