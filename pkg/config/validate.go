package config

import (
	"fmt"
	"time"
)

// Default analysis parameters
const (
	DefaultWindowSize = 30
	DefaultSigma      = 2.0
)

// ApplyDefaults fills in unset optional values
func (c *ConfigData) ApplyDefaults() {
	if c.Analysis.WindowSize == 0 {
		c.Analysis.WindowSize = DefaultWindowSize
	}
	if c.Analysis.Sigma == 0 {
		c.Analysis.Sigma = DefaultSigma
	}
	for i := range c.Controllers {
		if rs := c.Controllers[i].RESTServer; rs != nil {
			if rs.ListenAddr == "" {
				rs.ListenAddr = "0.0.0.0"
			}
			if rs.Port == 0 {
				rs.Port = 8080
			}
		}
	}
}

// Validate checks the configuration for errors. Call ApplyDefaults first.
func (c *ConfigData) Validate() error {
	s := c.Storage
	if s.TimescaleDB.GetConnectionString() == "" && (s.SQLite == nil || s.SQLite.Path == "") && (s.CSV == nil || s.CSV.Path == "") {
		return fmt.Errorf("no observation storage configured: set storage.timescaledb, storage.sqlite or storage.csv")
	}

	seen := make(map[string]bool)
	for i, city := range c.Cities {
		if city.Name == "" {
			return fmt.Errorf("city %d has no name", i)
		}
		if seen[city.Name] {
			return fmt.Errorf("city %q is configured more than once", city.Name)
		}
		seen[city.Name] = true
	}

	if c.Analysis.WindowSize < 1 {
		return fmt.Errorf("analysis.window_size must be at least 1, got %d", c.Analysis.WindowSize)
	}
	if c.Analysis.Sigma <= 0 {
		return fmt.Errorf("analysis.sigma must be positive, got %v", c.Analysis.Sigma)
	}

	for _, con := range c.Controllers {
		switch con.Type {
		case ControllerOpenWeatherMap:
			if con.OpenWeatherMap == nil || con.OpenWeatherMap.APIKey == "" {
				return fmt.Errorf("openweathermap controller requires api_key")
			}
			if con.OpenWeatherMap.RefreshInterval != "" {
				if _, err := time.ParseDuration(con.OpenWeatherMap.RefreshInterval); err != nil {
					return fmt.Errorf("invalid openweathermap refresh_interval: %w", err)
				}
			}
		case ControllerRESTServer:
			if con.RESTServer == nil {
				return fmt.Errorf("rest controller requires a rest section")
			}
			if con.RESTServer.Port < 0 || con.RESTServer.Port > 65535 {
				return fmt.Errorf("invalid rest port %d", con.RESTServer.Port)
			}
			if (con.RESTServer.TLSCertPath == "") != (con.RESTServer.TLSKeyPath == "") {
				return fmt.Errorf("rest tls_cert_path and tls_key_path must be set together")
			}
		default:
			return fmt.Errorf("unknown controller type: %s", con.Type)
		}
	}

	return nil
}
