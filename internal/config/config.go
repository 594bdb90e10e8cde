package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса миссий.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Mission   MissionConfig   `yaml:"mission"`
	Presets   PresetsConfig   `yaml:"presets"`
	Import    ImportConfig    `yaml:"import"`
	Storage   StorageConfig   `yaml:"storage"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort возвращает порт REST API: config -> env -> default
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "MISSIONS_REST_PORT", 8088)
}

// GetMetricsPort возвращает порт Prometheus: config -> env -> default.
// 0 в конфиге и пустое окружение => /metrics только на REST-порту.
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "MISSIONS_METRICS_PORT", 0)
}

type LoggingConfig struct {
	Dir          string `yaml:"dir"`
	ConsoleLevel string `yaml:"console_level"`
	FileLevel    string `yaml:"file_level"`
}

// MissionConfig - тайминги миссий
type MissionConfig struct {
	TimeLimitSeconds            float64 `yaml:"time_limit_seconds"`
	TickIntervalMs              int     `yaml:"tick_interval_ms"`
	ProgressVisibleBelowSeconds float64 `yaml:"progress_visible_below_seconds"`
	PhotoDistanceThreshold      float64 `yaml:"photo_distance_threshold"`
	LaserCeiling                int     `yaml:"laser_ceiling"`
	AnimationStepMs             int     `yaml:"animation_step_ms"`
}

func (m MissionConfig) TimeLimit() time.Duration {
	return seconds(m.TimeLimitSeconds)
}

func (m MissionConfig) TickInterval() time.Duration {
	return time.Duration(m.TickIntervalMs) * time.Millisecond
}

func (m MissionConfig) ProgressThreshold() time.Duration {
	return seconds(m.ProgressVisibleBelowSeconds)
}

func (m MissionConfig) AnimationStep() time.Duration {
	return time.Duration(m.AnimationStepMs) * time.Millisecond
}

type PresetsConfig struct {
	BundlePath string `yaml:"bundle_path"` // пусто => встроенный набор
}

type ImportConfig struct {
	BaseURL        string  `yaml:"base_url"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

func (i ImportConfig) Timeout() time.Duration {
	return seconds(i.TimeoutSeconds)
}

// StorageConfig - хранилище импортированных миров
type StorageConfig struct {
	Driver string       `yaml:"driver"` // memory | badger | redis | maria | mongo
	Badger BadgerConfig `yaml:"badger"`
	Redis  RedisConfig  `yaml:"redis"`
	Maria  MariaConfig  `yaml:"maria"`
	Mongo  MongoConfig  `yaml:"mongo"`
	Cache  CacheConfig  `yaml:"cache"`
}

// CacheConfig - LRU поверх хранилища; при шине nats инвалидация идёт через неё
type CacheConfig struct {
	Enabled    bool    `yaml:"enabled"`
	Capacity   int     `yaml:"capacity"`
	TTLSeconds float64 `yaml:"ttl_seconds"`
}

func (c CacheConfig) TTL() time.Duration {
	return seconds(c.TTLSeconds)
}

type BadgerConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Addr      string `yaml:"addr"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

type MariaConfig struct {
	DSN string `yaml:"dsn"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type EventBusConfig struct {
	Driver    string `yaml:"driver"` // memory | nats
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
	Buffer    int    `yaml:"buffer"`
}

func (e EventBusConfig) RetentionDuration() time.Duration {
	return time.Duration(e.Retention) * time.Hour
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Dir: "logs", ConsoleLevel: "INFO", FileLevel: "DEBUG"},
		Mission: MissionConfig{
			TimeLimitSeconds:            20,
			TickIntervalMs:              500,
			ProgressVisibleBelowSeconds: 10,
			PhotoDistanceThreshold:      16,
			LaserCeiling:                8,
			AnimationStepMs:             50,
		},
		Import: ImportConfig{
			BaseURL:        "https://midnight-builds-api.vercel.app/api",
			TimeoutSeconds: 10,
		},
		Storage: StorageConfig{
			Driver: "memory",
			Badger: BadgerConfig{Path: "data/imports"},
			Redis:  RedisConfig{Addr: "localhost:6379", KeyPrefix: "missions:imports:"},
			Mongo:  MongoConfig{URI: "mongodb://localhost:27017", Database: "missions", Collection: "imported_worlds"},
			Cache:  CacheConfig{Capacity: 128, TTLSeconds: 300},
		},
		EventBus: EventBusConfig{
			Driver:    "memory",
			URL:       "nats://127.0.0.1:4222",
			Stream:    "MISSIONS",
			Retention: 24,
			Buffer:    256,
		},
		Telemetry: TelemetryConfig{ServiceName: "alarm-missions"},
	}
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}
	return defaultPort
}

// Load читает YAML файл поверх Default().
// Если path == "", берётся $MISSIONS_CONFIG; если и он пуст, возвращается Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = os.Getenv("MISSIONS_CONFIG")
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет значения, которые нельзя исправить умолчаниями
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "", "memory", "badger", "redis", "maria", "mongo":
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	switch c.EventBus.Driver {
	case "", "memory", "nats":
	default:
		return fmt.Errorf("config: unknown eventbus driver %q", c.EventBus.Driver)
	}
	if c.Mission.TimeLimitSeconds < 0 || c.Mission.TickIntervalMs < 0 {
		return fmt.Errorf("config: mission timings must not be negative")
	}
	return nil
}
