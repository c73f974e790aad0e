// Package config defines the storefront configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tamaskov/storefront/pkg/configloader"
)

var _ configloader.Validator = (*Config)(nil)

// Engine names accepted by store.engine.
const (
	EngineMemory   = "memory"
	EnginePostgres = "postgres"
)

type Config struct {
	HTTPServer HTTPConfig     `koanf:"server"`
	Store      StoreConfig    `koanf:"store"`
	Database   DatabaseConfig `koanf:"database"`
	Log        LogConfig      `koanf:"log"`
	PProf      PProfConfig    `koanf:"pprof"`
	Shutdown   ShutdownConfig `koanf:"shutdown"`
}

type HTTPConfig struct {
	Port           int `koanf:"port"`
	MaxHeaderBytes int `koanf:"maxHeaderBytes"`
	Timeout        struct {
		Read       time.Duration `koanf:"read"`
		Write      time.Duration `koanf:"write"`
		Idle       time.Duration `koanf:"idle"`
		ReadHeader time.Duration `koanf:"readHeader"`
	} `koanf:"timeout"`
}

func (c *HTTPConfig) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid HTTP server port: %d", c.Port)
	}
	if c.Timeout.Read <= 0 {
		return fmt.Errorf("invalid HTTP server read timeout: %v", c.Timeout.Read)
	}
	if c.Timeout.Write <= 0 {
		return fmt.Errorf("invalid HTTP server write timeout: %v", c.Timeout.Write)
	}
	if c.Timeout.Idle <= 0 {
		return fmt.Errorf("invalid HTTP server idle timeout: %v", c.Timeout.Idle)
	}
	if c.Timeout.ReadHeader <= 0 {
		return fmt.Errorf("invalid HTTP server read header timeout: %v", c.Timeout.ReadHeader)
	}
	return nil
}

// StoreConfig selects the catalog storage engine. Orders always live
// in memory regardless of the engine.
type StoreConfig struct {
	Engine string `koanf:"engine"`
}

func (c *StoreConfig) Validate() error {
	switch c.Engine {
	case EngineMemory, EnginePostgres:
		return nil
	default:
		return fmt.Errorf("invalid store engine %q: must be %q or %q", c.Engine, EngineMemory, EnginePostgres)
	}
}

type DatabaseConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c *DatabaseConfig) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("database URL is not configured")
	}
	if !strings.HasPrefix(c.URL, "postgres://") && !strings.HasPrefix(c.URL, "postgresql://") {
		return fmt.Errorf("database URL must start with 'postgres://': %s", c.URL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("database connect timeout is not configured")
	}
	return nil
}

type LogConfig struct {
	Level string `koanf:"level"`
}

type PProfConfig struct {
	Enabled bool   `koanf:"enabled"`
	Addr    string `koanf:"address"`
}

func (c *PProfConfig) Validate() error {
	if c.Enabled && c.Addr == "" {
		return fmt.Errorf("pprof is enabled but its address is not configured")
	}
	return nil
}

type ShutdownConfig struct {
	Timeout time.Duration `koanf:"timeout"`
}

func (c *ShutdownConfig) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("shutdown timeout is not configured")
	}
	return nil
}

// Validate checks if the configuration values are valid. The database
// section is only required when the postgres engine is selected.
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if c.Store.Engine == EnginePostgres {
		if err := c.Database.Validate(); err != nil {
			return err
		}
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	return c.Shutdown.Validate()
}

// String returns a printable representation with credentials masked.
func (c *Config) String() string {
	var b strings.Builder

	b.WriteString("\n--- Server Configuration ---\n")
	b.WriteString(fmt.Sprintf("  server.port: %d\n", c.HTTPServer.Port))
	b.WriteString(fmt.Sprintf("  server.maxHeaderBytes: %d\n", c.HTTPServer.MaxHeaderBytes))
	b.WriteString(fmt.Sprintf("  server.timeout.read: %v\n", c.HTTPServer.Timeout.Read))
	b.WriteString(fmt.Sprintf("  server.timeout.write: %v\n", c.HTTPServer.Timeout.Write))
	b.WriteString(fmt.Sprintf("  server.timeout.idle: %v\n", c.HTTPServer.Timeout.Idle))
	b.WriteString(fmt.Sprintf("  server.timeout.readHeader: %v\n", c.HTTPServer.Timeout.ReadHeader))

	b.WriteString("\n--- Storage ---\n")
	b.WriteString(fmt.Sprintf("  store.engine: %s\n", c.Store.Engine))
	b.WriteString(fmt.Sprintf("  database.url: %s\n", maskURL(c.Database.URL)))
	b.WriteString(fmt.Sprintf("  database.timeout: %s\n", c.Database.Timeout))

	b.WriteString("\n--- Observability & Logging ---\n")
	b.WriteString(fmt.Sprintf("  log.level: %s\n", c.Log.Level))
	b.WriteString(fmt.Sprintf("  pprof.enabled: %t\n", c.PProf.Enabled))
	b.WriteString(fmt.Sprintf("  pprof.address: %s\n", c.PProf.Addr))

	b.WriteString("\n--- Application Behavior ---\n")
	b.WriteString(fmt.Sprintf("  shutdown.timeout: %s\n", c.Shutdown.Timeout))

	return b.String()
}

func maskURL(url string) string {
	if url == "" {
		return "<not configured>"
	}
	parts := strings.Split(url, "@")
	if len(parts) == 2 {
		return "****@" + parts[1]
	}
	return "****"
}
