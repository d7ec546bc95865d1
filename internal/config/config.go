package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sirupsen/logrus"
)

// Backend names a document store implementation.
type Backend string

const (
	BackendMemory    Backend = "memory"
	BackendRedis     Backend = "redis"
	BackendFirestore Backend = "firestore"
)

// Config is the resolved shopfront configuration.
type Config struct {
	Backend  Backend
	Currency string
	PageSize int
	// LiveCatalog follows the products collection live instead of paging it.
	LiveCatalog bool

	ProjectID       string
	CredentialsFile string
	RedisAddr       string

	IdentityAPIKey   string
	IdentityEndpoint string

	StripeSecretKey string
	StripeAPIURL    string

	CatalogSource string

	LogFile   string
	LogLevel  logrus.Level
	LogFormat string
	TraceFile string
}

const (
	defaultConfigPath    = "~/.config/shopfront/config.toml"
	defaultLogFile       = "~/.local/share/shopfront/shopfront.log"
	defaultRedisAddr     = "127.0.0.1:6379"
	defaultCurrency      = "usd"
	defaultPageSize      = 12
	defaultLogFormat     = "json"
	defaultCatalogSource = "https://dummyjson.com/products?limit=100"
)

// Environment variables that override the file.
const (
	EnvCredentials    = "GOOGLE_APPLICATION_CREDENTIALS"
	EnvStripeKey      = "STRIPE_SECRET_KEY"
	EnvIdentityAPIKey = "SHOPFRONT_IDENTITY_API_KEY"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		Backend:       BackendMemory,
		Currency:      defaultCurrency,
		PageSize:      defaultPageSize,
		RedisAddr:     defaultRedisAddr,
		CatalogSource: defaultCatalogSource,
		LogFile:       mustExpand(defaultLogFile),
		LogLevel:      logrus.InfoLevel,
		LogFormat:     defaultLogFormat,
	}
}

type rawConfig struct {
	Backend     string `toml:"backend"`
	Currency    string `toml:"currency"`
	PageSize    int    `toml:"page_size"`
	LiveCatalog bool   `toml:"live_catalog"`
	Firestore   struct {
		ProjectID       string `toml:"project_id"`
		CredentialsFile string `toml:"credentials_file"`
	} `toml:"firestore"`
	Redis struct {
		Addr string `toml:"addr"`
	} `toml:"redis"`
	Identity struct {
		APIKey   string `toml:"api_key"`
		Endpoint string `toml:"endpoint"`
	} `toml:"identity"`
	Stripe struct {
		SecretKey string `toml:"secret_key"`
		APIURL    string `toml:"api_url"`
	} `toml:"stripe"`
	Catalog struct {
		Source string `toml:"source"`
	} `toml:"catalog"`
	Log struct {
		File   string `toml:"file"`
		Level  string `toml:"level"`
		Format string `toml:"format"`
	} `toml:"log"`
	Trace struct {
		File string `toml:"file"`
	} `toml:"trace"`
}

// Load locates and parses the config file, falling back to defaults when it
// is missing. Environment overrides apply either way.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := merge(&cfg, raw); err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

func merge(cfg *Config, raw rawConfig) error {
	if b := strings.ToLower(strings.TrimSpace(raw.Backend)); b != "" {
		switch Backend(b) {
		case BackendMemory, BackendRedis, BackendFirestore:
			cfg.Backend = Backend(b)
		default:
			return fmt.Errorf("unknown backend %q", raw.Backend)
		}
	}
	if c := strings.ToLower(strings.TrimSpace(raw.Currency)); c != "" {
		cfg.Currency = c
	}
	if raw.PageSize < 0 {
		return fmt.Errorf("page_size must be positive, got %d", raw.PageSize)
	}
	if raw.PageSize > 0 {
		cfg.PageSize = raw.PageSize
	}
	cfg.LiveCatalog = raw.LiveCatalog

	cfg.ProjectID = strings.TrimSpace(raw.Firestore.ProjectID)
	if f := strings.TrimSpace(raw.Firestore.CredentialsFile); f != "" {
		cfg.CredentialsFile = mustExpand(f)
	}
	if a := strings.TrimSpace(raw.Redis.Addr); a != "" {
		cfg.RedisAddr = a
	}
	cfg.IdentityAPIKey = strings.TrimSpace(raw.Identity.APIKey)
	cfg.IdentityEndpoint = strings.TrimSpace(raw.Identity.Endpoint)
	cfg.StripeSecretKey = strings.TrimSpace(raw.Stripe.SecretKey)
	cfg.StripeAPIURL = strings.TrimSpace(raw.Stripe.APIURL)
	if s := strings.TrimSpace(raw.Catalog.Source); s != "" {
		cfg.CatalogSource = s
	}

	if f := strings.TrimSpace(raw.Log.File); f != "" {
		cfg.LogFile = mustExpand(f)
	}
	if l := strings.TrimSpace(raw.Log.Level); l != "" {
		level, err := logrus.ParseLevel(l)
		if err != nil {
			return fmt.Errorf("parse log level: %w", err)
		}
		cfg.LogLevel = level
	}
	if f := strings.ToLower(strings.TrimSpace(raw.Log.Format)); f != "" {
		if f != "json" && f != "text" {
			return fmt.Errorf("unknown log format %q", raw.Log.Format)
		}
		cfg.LogFormat = f
	}
	if f := strings.TrimSpace(raw.Trace.File); f != "" {
		cfg.TraceFile = mustExpand(f)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvCredentials)); v != "" && cfg.CredentialsFile == "" {
		cfg.CredentialsFile = mustExpand(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvStripeKey)); v != "" {
		cfg.StripeSecretKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvIdentityAPIKey)); v != "" {
		cfg.IdentityAPIKey = v
	}
}

// LogDir returns the directory holding the log file.
func (c Config) LogDir() string {
	if strings.TrimSpace(c.LogFile) == "" {
		return filepath.Dir(mustExpand(defaultLogFile))
	}
	return filepath.Dir(c.LogFile)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
