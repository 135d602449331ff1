package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Databases         Databases         `yaml:"databases"`
	BenchmarkSettings BenchmarkSettings `yaml:"benchmark_settings"`
	Seed              Seed              `yaml:"seed"`
	Logging           Logging           `yaml:"logging"`
	MaxOpenConns      int               `yaml:"max_open_conns"`
}

// Databases holds one DSN per server type.
type Databases struct {
	Postgres string `yaml:"postgres"`
	MySQL    string `yaml:"mysql"`
	SQLite   string `yaml:"sqlite"`
	// Mongo is only used as a seed source for replay mode.
	Mongo string `yaml:"mongo"`
}

type BenchmarkSettings struct {
	DefaultLimit   int    `yaml:"default_limit"`
	DefaultTrials  int    `yaml:"default_trials"`
	DefaultBackend string `yaml:"default_backend"`
	// JoinType is the direct backend's include join: left or inner.
	JoinType string `yaml:"join_type"`
	// RandomSeed makes generated data repeatable; 0 seeds from the clock.
	RandomSeed int64 `yaml:"random_seed"`
}

// Seed locates recorded orders for replay mode. JSONPath wins when both
// sources are set.
type Seed struct {
	JSONPath        string `yaml:"json_path"`
	MongoDatabase   string `yaml:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection"`
}

type Logging struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the settings used for anything config.yaml leaves out.
func Default() *Config {
	return &Config{
		Databases: Databases{
			SQLite: "file:transport.db?_foreign_keys=on",
		},
		BenchmarkSettings: BenchmarkSettings{
			DefaultLimit:   10,
			DefaultTrials:  100,
			DefaultBackend: "mapped",
			JoinType:       "left",
		},
		Seed: Seed{
			MongoDatabase:   "transportcompany",
			MongoCollection: "order_seed",
		},
		Logging:      Logging{Level: "info"},
		MaxOpenConns: 10,
	}
}

// LoadConfig reads path over the defaults and validates the result.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = yaml.Unmarshal(file, config)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.BenchmarkSettings.DefaultLimit <= 0 {
		return fmt.Errorf("benchmark_settings.default_limit must be positive, got %d", c.BenchmarkSettings.DefaultLimit)
	}
	if c.BenchmarkSettings.DefaultTrials <= 0 {
		return fmt.Errorf("benchmark_settings.default_trials must be positive, got %d", c.BenchmarkSettings.DefaultTrials)
	}
	switch c.BenchmarkSettings.DefaultBackend {
	case "mapped", "direct":
	default:
		return fmt.Errorf("benchmark_settings.default_backend must be mapped or direct, got %q", c.BenchmarkSettings.DefaultBackend)
	}
	switch c.BenchmarkSettings.JoinType {
	case "left", "inner":
	default:
		return fmt.Errorf("benchmark_settings.join_type must be left or inner, got %q", c.BenchmarkSettings.JoinType)
	}
	if c.MaxOpenConns < 0 {
		return fmt.Errorf("max_open_conns must not be negative, got %d", c.MaxOpenConns)
	}
	return nil
}

// DSN returns the configured connection string for a database type.
func (c *Config) DSN(dbType string) (string, error) {
	var dsn string
	switch dbType {
	case "postgres":
		dsn = c.Databases.Postgres
	case "mysql":
		dsn = c.Databases.MySQL
	case "sqlite":
		dsn = c.Databases.SQLite
	default:
		return "", fmt.Errorf("unsupported database type: %q", dbType)
	}
	if dsn == "" {
		return "", fmt.Errorf("no DSN configured for %s", dbType)
	}
	return dsn, nil
}
