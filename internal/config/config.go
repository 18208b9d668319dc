package config

import (
	"fmt"
	"strings"

	"github.com/abgdnv/productsapi/pkg/config"
	"github.com/abgdnv/productsapi/pkg/config/configloader"
)

// ServiceName is used for the PRODUCT_ environment prefix and telemetry resources.
const ServiceName = "product"

var _ configloader.Validator = (*Config)(nil)

// DefaultSeed is the product catalog loaded at startup when none is configured.
var DefaultSeed = []string{"Skello", "Socialive.tv"}

type Config struct {
	HTTPServer config.HTTPConfig       `koanf:"server"`
	Log        config.LogConfig        `koanf:"log"`
	PProf      config.PProfConfig      `koanf:"pprof"`
	GRPC       config.GrpcServerConfig `koanf:"grpc"`
	Nats       config.NATSConfig       `koanf:"nats"`
	Telemetry  config.TelemetryConfig  `koanf:"telemetry"`
	Metrics    config.MetricsConfig    `koanf:"metrics"`
	Shutdown   config.ShutdownConfig   `koanf:"shutdown"`
	Seed       []string                `koanf:"seed"`
}

// Defaults returns the values used when no other source sets a key.
func Defaults() map[string]any {
	return map[string]any{
		"server.port":               8080,
		"server.maxHeaderBytes":     1 << 20,
		"server.timeout.read":       "5s",
		"server.timeout.write":      "10s",
		"server.timeout.idle":       "60s",
		"server.timeout.readHeader": "2s",
		"log.level":                 "info",
		"grpc.port":                 "9090",
		"grpc.healthInterval":       "10s",
		"nats.timeout":              "5s",
		"nats.stream":               "PRODUCTS",
		"metrics.path":              "/metrics",
		"shutdown.timeout":          "15s",
	}
}

// Load reads the product service configuration.
func Load(opts ...configloader.Option) (*Config, error) {
	opts = append([]configloader.Option{configloader.WithDefaults(Defaults())}, opts...)
	return configloader.Load[*Config](ServiceName, opts...)
}

func (c *Config) String() string {
	var b strings.Builder

	b.WriteString(c.HTTPServer.String())
	b.WriteString(c.GRPC.String())
	b.WriteString(c.Nats.String())
	b.WriteString(c.Log.String())
	b.WriteString(c.PProf.String())
	b.WriteString(c.Telemetry.String())
	b.WriteString(c.Metrics.String())
	b.WriteString(c.Shutdown.String())

	b.WriteString("\n--- Catalog ---\n")
	b.WriteString(fmt.Sprintf("  seed: %q\n", c.Seed))

	return b.String()
}

// Validate checks if the configuration values are valid
func (c *Config) Validate() error {
	if err := c.HTTPServer.Validate(); err != nil {
		return err
	}
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.PProf.Validate(); err != nil {
		return err
	}
	if err := c.GRPC.Validate(); err != nil {
		return err
	}
	if err := c.Nats.Validate(); err != nil {
		return err
	}
	if err := c.Telemetry.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Shutdown.Validate(); err != nil {
		return err
	}
	if c.Seed == nil {
		c.Seed = append([]string(nil), DefaultSeed...)
	}
	for i, name := range c.Seed {
		if name == "" {
			return fmt.Errorf("seed[%d]: product name must not be empty", i)
		}
	}
	return nil
}
