package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store backends understood by storage.Open.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreJSON     = "json"
)

// Config holds all application configuration.
type Config struct {
	HTTPAddr string

	Store            string
	SQLitePath       string
	GalleryPath      string
	SaveTimeout      time.Duration
	MaxRetries       int
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Country        string
	UserAgent      string
	RequestTimeout time.Duration
	AppStoreURL    string
	LookupURL      string
	PlayStoreURL   string

	UseBrowser  bool
	ChromeBin   string
	BrowserWait time.Duration

	TuningFile string

	MaxConcurrency int
	RateLimit      time.Duration

	LogLevel string
}

// Defaults are registered on every viper instance handed to Load.
var defaults = map[string]any{
	"http_addr": ":8080",

	"store":             StoreSQLite,
	"sqlite_path":       "./data/gallery.db",
	"gallery_path":      "./data/gallery.json",
	"save_timeout_ms":   5000,
	"max_retries":       5,
	"postgres_host":     "localhost",
	"postgres_port":     "5432",
	"postgres_user":     "shipscore",
	"postgres_password": "shipscore",
	"postgres_db":       "shipscore",
	"postgres_sslmode":  "disable",

	"country":            "us",
	"user_agent":         "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"request_timeout_ms": 15000,
	"app_store_url":      "https://apps.apple.com",
	"lookup_url":         "https://itunes.apple.com/lookup",
	"play_store_url":     "https://play.google.com",

	"use_browser":     false,
	"chrome_bin":      "",
	"browser_wait_ms": 3000,

	"tuning_file": "",

	"max_concurrency": 3,
	"rate_limit_ms":   1000,

	"log_level": "info",
}

// bareEnv reports whether key may also be set through its unprefixed env
// name. Only the conventional database and browser variables qualify.
func bareEnv(key string) bool {
	return strings.HasPrefix(key, "postgres_") || key == "chrome_bin"
}

// NewViper returns a viper instance wired to the environment: keys are read
// from SHIPSCORE_<KEY>, POSTGRES_* and CHROME_BIN are also read bare, and
// dashes in flag names map to underscores.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("SHIPSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	for key, val := range defaults {
		v.SetDefault(key, val)
		names := []string{key, "SHIPSCORE_" + strings.ToUpper(key)}
		if bareEnv(key) {
			names = append(names, strings.ToUpper(key))
		}
		_ = v.BindEnv(names...)
	}
	return v
}

// Load reads the .env file (if any), the optional config file, and returns a
// populated Config. configFile may be empty.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	if v == nil {
		v = NewViper()
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", configFile, err)
		}
	}

	cfg := &Config{
		HTTPAddr: v.GetString("http_addr"),

		Store:            strings.ToLower(v.GetString("store")),
		SQLitePath:       v.GetString("sqlite_path"),
		GalleryPath:      v.GetString("gallery_path"),
		SaveTimeout:      millis(v.GetInt("save_timeout_ms")),
		MaxRetries:       v.GetInt("max_retries"),
		PostgresHost:     v.GetString("postgres_host"),
		PostgresPort:     v.GetString("postgres_port"),
		PostgresUser:     v.GetString("postgres_user"),
		PostgresPassword: v.GetString("postgres_password"),
		PostgresDB:       v.GetString("postgres_db"),
		PostgresSSLMode:  v.GetString("postgres_sslmode"),

		Country:        strings.ToLower(v.GetString("country")),
		UserAgent:      v.GetString("user_agent"),
		RequestTimeout: millis(v.GetInt("request_timeout_ms")),
		AppStoreURL:    strings.TrimRight(v.GetString("app_store_url"), "/"),
		LookupURL:      v.GetString("lookup_url"),
		PlayStoreURL:   v.GetString("play_store_url"),

		UseBrowser:  v.GetBool("use_browser"),
		ChromeBin:   v.GetString("chrome_bin"),
		BrowserWait: millis(v.GetInt("browser_wait_ms")),

		TuningFile: v.GetString("tuning_file"),

		MaxConcurrency: v.GetInt("max_concurrency"),
		RateLimit:      millis(v.GetInt("rate_limit_ms")),

		LogLevel: v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the rest of the program cannot work with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSQLite, StorePostgres, StoreJSON:
	default:
		return fmt.Errorf("config: unknown store %q (want sqlite, postgres or json)", c.Store)
	}
	if c.Country == "" {
		return fmt.Errorf("config: country must not be empty")
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("config: max_concurrency must be >= 1, got %d", c.MaxConcurrency)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func millis(n int) time.Duration {
	if n < 0 {
		n = 0
	}
	return time.Duration(n) * time.Millisecond
}
