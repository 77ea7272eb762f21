package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the structure of the configuration file.
type Config struct {
	API struct {
		Port         string        `yaml:"port"`          // HTTP listen port
		ReadTimeout  time.Duration `yaml:"read_timeout"`  // Max duration for reading a request
		WriteTimeout time.Duration `yaml:"write_timeout"` // Max duration for writing a response
		RateLimit    float64       `yaml:"rate_limit"`    // Requests per second, 0 disables limiting
		RateBurst    int           `yaml:"rate_burst"`    // Token bucket size
		CORSOrigins  []string      `yaml:"cors_origins"`  // Allowed browser origins
	} `yaml:"api"`

	Store struct {
		Driver string `yaml:"driver"` // mongo, postgres or memory
	} `yaml:"store"`

	Mongo struct {
		URI      string `yaml:"uri"`      // Full connection string, wins over the parts below
		User     string `yaml:"user"`     // Atlas user
		Password string `yaml:"password"` // Atlas password
		Host     string `yaml:"host"`     // Atlas cluster host
		Database string `yaml:"database"` // Database holding the locations collection
	} `yaml:"mongodb"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"postgres"`

	Log struct {
		Level  string `yaml:"level"`  // zerolog level name
		Pretty bool   `yaml:"pretty"` // Human readable console output
	} `yaml:"log"`

	Planner struct {
		BaseURL   string        `yaml:"base_url"`   // Trip planner API root
		Timeout   time.Duration `yaml:"timeout"`    // Per request timeout
		ThemesTTL time.Duration `yaml:"themes_ttl"` // How long the theme list is cached
	} `yaml:"planner"`

	Bot struct {
		Token string `yaml:"token"` // Telegram bot token
		Debug bool   `yaml:"debug"` // Log raw Telegram traffic
	} `yaml:"bot"`

	Google struct {
		APIKey  string        `yaml:"api_key"` // Places API key, empty disables place import
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"google"`
}

// Default returns a configuration that starts the API with the in-memory store.
func Default() *Config {
	var c Config
	c.API.Port = "8080"
	c.API.ReadTimeout = 15 * time.Second
	c.API.WriteTimeout = 30 * time.Second
	c.API.RateLimit = 20
	c.API.RateBurst = 40
	c.API.CORSOrigins = []string{"*"}
	c.Store.Driver = DriverMemory
	c.Mongo.Host = "freecluster.fmh5ckt.mongodb.net"
	c.Mongo.Database = "main"
	c.Postgres.Host = "localhost"
	c.Postgres.Port = "5432"
	c.Postgres.SSLMode = "disable"
	c.Log.Level = "info"
	c.Planner.BaseURL = "http://localhost:8000"
	c.Planner.Timeout = 60 * time.Second
	c.Planner.ThemesTTL = 10 * time.Minute
	c.Google.Timeout = 10 * time.Second
	return &c
}

// Load reads the YAML file at path (optional), then .env, then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// .env never overrides variables already set in the environment
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setString(&c.API.Port, "API_PORT")
	setString(&c.Store.Driver, "STORE_DRIVER")
	setString(&c.Mongo.URI, "MONGODB_URI")
	setString(&c.Mongo.User, "MONGODB_USER")
	setString(&c.Mongo.Password, "MONGODB_PASSWORD")
	setString(&c.Mongo.Host, "MONGODB_HOST")
	setString(&c.Mongo.Database, "MONGODB_DATABASE")
	setString(&c.Postgres.Host, "DB_HOST")
	setString(&c.Postgres.Port, "DB_PORT")
	setString(&c.Postgres.User, "DB_USER")
	setString(&c.Postgres.Password, "DB_PASS")
	setString(&c.Postgres.Name, "DB_NAME")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Planner.BaseURL, "PLANNER_BASE_URL")
	setString(&c.Bot.Token, "BOT_TOKEN")
	setString(&c.Google.APIKey, "GOOGLE_MAPS_API_KEY")

	if v := os.Getenv("LOG_PRETTY"); v != "" {
		pretty, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LOG_PRETTY: %w", err)
		}
		c.Log.Pretty = pretty
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.API.CORSOrigins = strings.Split(v, ",")
	}
	return nil
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMongo, DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.API.Port == "" {
		return errors.New("api port is required")
	}
	if c.Store.Driver == DriverPostgres && c.Postgres.Name == "" {
		return errors.New("postgres database name is required")
	}
	if c.API.RateLimit < 0 {
		return errors.New("rate limit must not be negative")
	}
	return nil
}

// MongoURI returns the configured URI or builds an Atlas SRV URI from its parts.
func (c *Config) MongoURI() string {
	if c.Mongo.URI != "" {
		return c.Mongo.URI
	}
	if c.Mongo.User == "" {
		return "mongodb://localhost:27017/" + c.Mongo.Database
	}
	u := url.URL{
		Scheme:   "mongodb+srv",
		User:     url.UserPassword(c.Mongo.User, c.Mongo.Password),
		Host:     c.Mongo.Host,
		Path:     "/" + c.Mongo.Database,
		RawQuery: "retryWrites=true&w=majority",
	}
	return u.String()
}

// PostgresDSN builds a lib/pq connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Postgres.Host, c.Postgres.Port, c.Postgres.User, c.Postgres.Password, c.Postgres.Name, c.Postgres.SSLMode)
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return ":" + c.API.Port
}
