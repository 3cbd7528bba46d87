// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	NLU       NLUConfig       `mapstructure:"nlu"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Templates TemplatesConfig `mapstructure:"templates"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds settings for the chat HTTP surface.
type ServerConfig struct {
	Address        string `mapstructure:"address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	ReadTimeout    int    `mapstructure:"read_timeout"`  // milliseconds
	WriteTimeout   int    `mapstructure:"write_timeout"` // milliseconds
}

// BackendConfig points at the order-management backend.
type BackendConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
	StoreID int    `mapstructure:"store_id"`
}

// NLUConfig points at the model-serving endpoints for intent
// classification and entity recognition.
type NLUConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Timeout int    `mapstructure:"timeout"` // milliseconds
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // milliseconds
}

// TemplatesConfig holds settings for the response template store.
type TemplatesConfig struct {
	Path string `mapstructure:"path"` // empty = embedded defaults
	Seed int64  `mapstructure:"seed"` // 0 = time-seeded variant selection
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
