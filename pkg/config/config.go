package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Browser launch modes
const (
	BrowserModeAuto     = "auto"
	BrowserModeLocal    = "local"
	BrowserModePackaged = "packaged"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// Config holds all configuration options for the feed service
type Config struct {
	Server  ServerConfig  `yaml:"server" json:"server"`
	Network NetworkConfig `yaml:"network" json:"network"`
	Browser BrowserConfig `yaml:"browser" json:"browser"`
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`
	Cache   CacheConfig   `yaml:"cache" json:"cache"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	Feed    FeedConfig    `yaml:"feed" json:"feed"`
	Debug   DebugConfig   `yaml:"debug" json:"debug"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Addr            string        `yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" json:"allowed_origins"`
}

// NetworkConfig describes the social network being scraped
type NetworkConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// BrowserConfig holds headless browser settings
type BrowserConfig struct {
	Mode              string        `yaml:"mode" json:"mode"`
	ExecPath          string        `yaml:"exec_path" json:"exec_path"`
	Headless          bool          `yaml:"headless" json:"headless"`
	UserAgent         string        `yaml:"user_agent" json:"user_agent"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ReadyTimeout      time.Duration `yaml:"ready_timeout" json:"ready_timeout"`
	DialogPause       time.Duration `yaml:"dialog_pause" json:"dialog_pause"`
	ScrollIterations  int           `yaml:"scroll_iterations" json:"scroll_iterations"`
	ScrollPause       time.Duration `yaml:"scroll_pause" json:"scroll_pause"`
}

// ScraperConfig holds scrape pipeline settings
type ScraperConfig struct {
	Timeout             time.Duration `yaml:"timeout" json:"timeout"`
	ScrapesPerMinute    int           `yaml:"scrapes_per_minute" json:"scrapes_per_minute"`
	PlaceholderFallback bool          `yaml:"placeholder_fallback" json:"placeholder_fallback"`
	PlaceholderPosts    int           `yaml:"placeholder_posts" json:"placeholder_posts"`
}

// CacheConfig holds profile cache settings
type CacheConfig struct {
	Backend     string        `yaml:"backend" json:"backend"`
	TTL         time.Duration `yaml:"ttl" json:"ttl"`
	MaxProfiles int           `yaml:"max_profiles" json:"max_profiles"`
}

// RedisConfig holds the Redis connection used by the redis cache backend
type RedisConfig struct {
	Addr      string `yaml:"addr" json:"addr"`
	Password  string `yaml:"password" json:"password"`
	DB        int    `yaml:"db" json:"db"`
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`
	// ConnectAttempts bounds the startup ping retries
	ConnectAttempts int `yaml:"connect_attempts" json:"connect_attempts"`
}

// FeedConfig holds pagination defaults
type FeedConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit"`
	MaxPage      int `yaml:"max_page" json:"max_page"`
}

// DebugConfig controls scrape artifacts written for diagnosis
type DebugConfig struct {
	ArtifactsDir string `yaml:"artifacts_dir" json:"artifacts_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	File   string `yaml:"file" json:"file"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    4 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Network: NetworkConfig{
			BaseURL: "https://www.instagram.com",
		},
		Browser: BrowserConfig{
			Mode:              BrowserModeAuto,
			Headless:          true,
			UserAgent:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/119.0.0.0 Safari/537.36",
			ViewportWidth:     1280,
			ViewportHeight:    800,
			NavigationTimeout: 60 * time.Second,
			ReadyTimeout:      30 * time.Second,
			DialogPause:       2 * time.Second,
			ScrollIterations:  3,
			ScrollPause:       2 * time.Second,
		},
		Scraper: ScraperConfig{
			Timeout:             3 * time.Minute,
			ScrapesPerMinute:    10,
			PlaceholderFallback: true,
			PlaceholderPosts:    18,
		},
		Cache: CacheConfig{
			Backend:     CacheBackendMemory,
			TTL:         time.Hour,
			MaxProfiles: 1,
		},
		Redis: RedisConfig{
			Addr:            "localhost:6379",
			KeyPrefix:       "igfeed:",
			ConnectAttempts: 3,
		},
		Feed: FeedConfig{
			DefaultLimit: 6,
			MaxLimit:     50,
			MaxPage:      10000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// IsServerless reports whether the process runs in a constrained serverless
// environment, where only a packaged browser binary is available.
func IsServerless() bool {
	for _, key := range []string{"VERCEL", "AWS_LAMBDA_FUNCTION_VERSION", "IGFEED_SERVERLESS"} {
		if os.Getenv(key) != "" {
			return true
		}
	}
	return false
}

// ResolvedBrowserMode turns "auto" into a concrete launch mode
func (b BrowserConfig) ResolvedBrowserMode() string {
	if b.Mode != BrowserModeAuto && b.Mode != "" {
		return b.Mode
	}
	if IsServerless() {
		return BrowserModePackaged
	}
	return BrowserModeLocal
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = strings.ToLower(v) == "true" || v == "1"
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setString("IGFEED_ADDR", &c.Server.Addr)
	if origins := os.Getenv("IGFEED_ALLOWED_ORIGINS"); origins != "" {
		c.Server.AllowedOrigins = strings.Split(origins, ",")
	}
	setString("IGFEED_BASE_URL", &c.Network.BaseURL)

	setString("IGFEED_BROWSER_MODE", &c.Browser.Mode)
	setString("IGFEED_BROWSER_PATH", &c.Browser.ExecPath)
	setBool("IGFEED_BROWSER_HEADLESS", &c.Browser.Headless)
	setString("IGFEED_USER_AGENT", &c.Browser.UserAgent)
	setDuration("IGFEED_NAVIGATION_TIMEOUT", &c.Browser.NavigationTimeout)
	setInt("IGFEED_SCROLL_ITERATIONS", &c.Browser.ScrollIterations)

	setDuration("IGFEED_SCRAPE_TIMEOUT", &c.Scraper.Timeout)
	setInt("IGFEED_SCRAPES_PER_MINUTE", &c.Scraper.ScrapesPerMinute)
	setBool("IGFEED_PLACEHOLDER_FALLBACK", &c.Scraper.PlaceholderFallback)

	setString("IGFEED_CACHE_BACKEND", &c.Cache.Backend)
	setDuration("IGFEED_CACHE_TTL", &c.Cache.TTL)
	setInt("IGFEED_CACHE_MAX_PROFILES", &c.Cache.MaxProfiles)

	setString("IGFEED_REDIS_ADDR", &c.Redis.Addr)
	setString("IGFEED_REDIS_PASSWORD", &c.Redis.Password)
	setInt("IGFEED_REDIS_DB", &c.Redis.DB)
	setInt("IGFEED_REDIS_CONNECT_ATTEMPTS", &c.Redis.ConnectAttempts)

	setInt("IGFEED_DEFAULT_LIMIT", &c.Feed.DefaultLimit)
	setInt("IGFEED_MAX_LIMIT", &c.Feed.MaxLimit)

	setString("IGFEED_ARTIFACTS_DIR", &c.Debug.ArtifactsDir)

	setString("IGFEED_LOG_LEVEL", &c.Logging.Level)
	setString("IGFEED_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".igfeed.yaml",
		".igfeed.yml",
		"igfeed.yaml",
		filepath.Join(home, ".config", "igfeed", "config.yaml"),
		filepath.Join(home, ".igfeed.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server address is required"))
	}
	if !strings.HasPrefix(c.Network.BaseURL, "http://") && !strings.HasPrefix(c.Network.BaseURL, "https://") {
		errs = append(errs, errors.New("network base URL must be an absolute http(s) URL"))
	}

	switch c.Browser.Mode {
	case BrowserModeAuto, BrowserModeLocal, BrowserModePackaged:
	default:
		errs = append(errs, fmt.Errorf("invalid browser mode %q", c.Browser.Mode))
	}
	if c.Browser.ResolvedBrowserMode() == BrowserModePackaged && c.Browser.ExecPath == "" {
		errs = append(errs, errors.New("packaged browser mode requires browser exec_path"))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Browser.ScrollIterations < 0 {
		errs = append(errs, errors.New("scroll iterations cannot be negative"))
	}
	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		errs = append(errs, errors.New("viewport dimensions must be positive"))
	}

	if c.Scraper.Timeout <= 0 {
		errs = append(errs, errors.New("scrape timeout must be positive"))
	}
	if c.Scraper.ScrapesPerMinute < 0 {
		errs = append(errs, errors.New("scrapes per minute cannot be negative"))
	}
	if c.Scraper.PlaceholderPosts < 0 {
		errs = append(errs, errors.New("placeholder posts cannot be negative"))
	}

	switch c.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		errs = append(errs, fmt.Errorf("invalid cache backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("cache TTL must be positive"))
	}
	if c.Cache.MaxProfiles <= 0 {
		errs = append(errs, errors.New("cache max profiles must be positive"))
	}
	if c.Cache.Backend == CacheBackendRedis && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis address is required for the redis cache backend"))
	}

	if c.Feed.DefaultLimit <= 0 {
		errs = append(errs, errors.New("default page limit must be positive"))
	}
	if c.Feed.MaxLimit < c.Feed.DefaultLimit {
		errs = append(errs, errors.New("max page limit must be at least the default limit"))
	}
	if c.Feed.MaxPage <= 0 {
		errs = append(errs, errors.New("max page must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if addr, ok := flags["addr"].(string); ok && addr != "" {
		c.Server.Addr = addr
	}
	if mode, ok := flags["browser-mode"].(string); ok && mode != "" {
		c.Browser.Mode = mode
	}
	if path, ok := flags["browser-path"].(string); ok && path != "" {
		c.Browser.ExecPath = path
	}
	if backend, ok := flags["cache-backend"].(string); ok && backend != "" {
		c.Cache.Backend = backend
	}
	if fallback, ok := flags["placeholder-fallback"].(bool); ok {
		c.Scraper.PlaceholderFallback = fallback
	}
	if dir, ok := flags["artifacts-dir"].(string); ok && dir != "" {
		c.Debug.ArtifactsDir = dir
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: flags > environment > .env file > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igfeed.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
