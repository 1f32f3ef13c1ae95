package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
	Cache      CacheConfig      `yaml:"cache"`
	Listings   ListingsConfig   `yaml:"listings"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Venues     VenuesConfig     `yaml:"venues"`
	Warmup     WarmupConfig     `yaml:"warmup"`
	LogLevel   string           `yaml:"log_level"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// HypeRateLimit is the number of hype mutations allowed per client IP per minute.
	HypeRateLimit int `yaml:"hype_rate_limit"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether a database is configured. Without one hype
// counts live in process memory.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

func (r RabbitMQConfig) Enabled() bool {
	return r.URL != ""
}

type CacheConfig struct {
	Disabled bool          `yaml:"disabled"`
	TTL      time.Duration `yaml:"ttl"`
}

type ListingsConfig struct {
	Timezone      string        `yaml:"timezone"`
	SourceTimeout time.Duration `yaml:"source_timeout"`
}

type HTTPClientConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	Retry     RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type VenuesConfig struct {
	VIFF         VenueConfig    `yaml:"viff"`
	Rio          RioConfig      `yaml:"rio"`
	Cinematheque VenueConfig    `yaml:"cinematheque"`
	Cineplex     CineplexConfig `yaml:"cineplex"`
}

type VenueConfig struct {
	BaseURL  string `yaml:"base_url"`
	Disabled bool   `yaml:"disabled"`
}

type RioConfig struct {
	VenueConfig `yaml:",inline"`
	WindowDays  int `yaml:"window_days"`
	PerPage     int `yaml:"per_page"`
	MaxPages    int `yaml:"max_pages"`
}

type CineplexConfig struct {
	VenueConfig `yaml:",inline"`
	FilmBaseURL string                   `yaml:"film_base_url"`
	APIKey      string                   `yaml:"api_key"`
	Locations   []CineplexLocationConfig `yaml:"locations"`
}

type CineplexLocationConfig struct {
	ID   string `yaml:"id"`
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
}

type WarmupConfig struct {
	// Schedule is a cron spec evaluated in the listings timezone. Empty disables warm-up.
	Schedule string `yaml:"schedule"`
	Days     int    `yaml:"days"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	var cfg Config
	cfg.setDefaults()
	return &cfg
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 15 * time.Second
	}
	if c.Server.HypeRateLimit == 0 {
		c.Server.HypeRateLimit = 60
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "vankino"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "listings"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "vankino_events"
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 15 * time.Minute
	}
	if c.Listings.Timezone == "" {
		c.Listings.Timezone = "America/Vancouver"
	}
	if c.Listings.SourceTimeout == 0 {
		c.Listings.SourceTimeout = 15 * time.Second
	}
	if c.HTTPClient.Timeout == 0 {
		c.HTTPClient.Timeout = 10 * time.Second
	}
	if c.HTTPClient.Retry.MaxAttempts == 0 {
		c.HTTPClient.Retry.MaxAttempts = 2
	}
	if c.HTTPClient.Retry.InitialBackoff == 0 {
		c.HTTPClient.Retry.InitialBackoff = 500 * time.Millisecond
	}
	if c.HTTPClient.Retry.MaxBackoff == 0 {
		c.HTTPClient.Retry.MaxBackoff = 5 * time.Second
	}
	if c.Venues.Rio.WindowDays == 0 {
		c.Venues.Rio.WindowDays = 7
	}
	if c.Venues.Rio.PerPage == 0 {
		c.Venues.Rio.PerPage = 500
	}
	if c.Venues.Rio.MaxPages == 0 {
		c.Venues.Rio.MaxPages = 3
	}
	if c.Warmup.Days == 0 {
		c.Warmup.Days = 2
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
