package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hafizmfadli/cinescope/internal/validator"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar names the environment variable holding an explicit config file path.
const PathEnvVar = "CINESCOPE_CONFIG"

// DefaultPaths are searched in order when no explicit path is given.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/cinescope/config.yaml",
}

// developmentJWTSecret lets a fresh checkout run without configuration.
// Validate refuses it in production.
const developmentJWTSecret = "cinescope-development-secret-do-not-deploy"

type Config struct {
	Port      int    `koanf:"port"`
	Env       string `koanf:"env"`
	LogLevel  string `koanf:"log_level"`
	StaticDir string `koanf:"static_dir"`

	DB      DBConfig      `koanf:"db"`
	JWT     JWTConfig     `koanf:"jwt"`
	Limiter LimiterConfig `koanf:"limiter"`
	CORS    CORSConfig    `koanf:"cors"`
	SMTP    SMTPConfig    `koanf:"smtp"`
	TMDB    TMDBConfig    `koanf:"tmdb"`
	OMDb    OMDbConfig    `koanf:"omdb"`
	Admin   AdminConfig   `koanf:"admin"`
}

type DBConfig struct {
	// Driver is "mongo" or "memory".
	Driver         string        `koanf:"driver"`
	URI            string        `koanf:"uri"`
	Name           string        `koanf:"name"`
	MaxPoolSize    uint64        `koanf:"max_pool_size"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

type JWTConfig struct {
	Secret string        `koanf:"secret"`
	TTL    time.Duration `koanf:"ttl"`
}

type LimiterConfig struct {
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
	Enabled bool    `koanf:"enabled"`
}

type CORSConfig struct {
	TrustedOrigins []string `koanf:"trusted_origins"`
}

type SMTPConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	Sender   string `koanf:"sender"`
}

type TMDBConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	RPS     float64       `koanf:"rps"`
	Timeout time.Duration `koanf:"timeout"`
}

type OMDbConfig struct {
	APIKey  string        `koanf:"api_key"`
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// AdminConfig describes the account created by "cinescope seed admin".
type AdminConfig struct {
	Name     string `koanf:"name"`
	Email    string `koanf:"email"`
	Password string `koanf:"password"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Port:     4000,
		Env:      "development",
		LogLevel: "info",
		DB: DBConfig{
			Driver:         "mongo",
			URI:            "mongodb://localhost:27017",
			Name:           "cinescope",
			MaxPoolSize:    25,
			ConnectTimeout: 10 * time.Second,
		},
		JWT: JWTConfig{
			Secret: developmentJWTSecret,
			TTL:    30 * 24 * time.Hour,
		},
		Limiter: LimiterConfig{
			RPS:     10,
			Burst:   20,
			Enabled: true,
		},
		CORS: CORSConfig{
			TrustedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		SMTP: SMTPConfig{
			Host:   "localhost",
			Port:   1025,
			Sender: "CineScope <no-reply@cinescope.local>",
		},
		TMDB: TMDBConfig{
			BaseURL: "https://api.themoviedb.org/3",
			RPS:     4,
			Timeout: 10 * time.Second,
		},
		OMDb: OMDbConfig{
			BaseURL: "https://www.omdbapi.com/",
			Timeout: 10 * time.Second,
		},
		Admin: AdminConfig{
			Name: "Admin",
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or the first of DefaultPaths when path is empty), then the environment.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		return p
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeys maps environment variables to config paths. Variables not listed
// here are ignored.
var envKeys = map[string]string{
	"PORT":           "port",
	"MONGO_URI":      "db.uri",
	"JWT_SECRET":     "jwt.secret",
	"TMDB_API_KEY":   "tmdb.api_key",
	"OMDB_API_KEY":   "omdb.api_key",
	"ADMIN_EMAIL":    "admin.email",
	"ADMIN_NAME":     "admin.name",
	"ADMIN_PASSWORD": "admin.password",

	"CINESCOPE_PORT":                 "port",
	"CINESCOPE_ENV":                  "env",
	"CINESCOPE_LOG_LEVEL":            "log_level",
	"CINESCOPE_STATIC_DIR":           "static_dir",
	"CINESCOPE_DB_DRIVER":            "db.driver",
	"CINESCOPE_DB_URI":               "db.uri",
	"CINESCOPE_DB_NAME":              "db.name",
	"CINESCOPE_DB_MAX_POOL_SIZE":     "db.max_pool_size",
	"CINESCOPE_DB_CONNECT_TIMEOUT":   "db.connect_timeout",
	"CINESCOPE_JWT_SECRET":           "jwt.secret",
	"CINESCOPE_JWT_TTL":              "jwt.ttl",
	"CINESCOPE_LIMITER_RPS":          "limiter.rps",
	"CINESCOPE_LIMITER_BURST":        "limiter.burst",
	"CINESCOPE_LIMITER_ENABLED":      "limiter.enabled",
	"CINESCOPE_CORS_TRUSTED_ORIGINS": "cors.trusted_origins",
	"CINESCOPE_SMTP_HOST":            "smtp.host",
	"CINESCOPE_SMTP_PORT":            "smtp.port",
	"CINESCOPE_SMTP_USERNAME":        "smtp.username",
	"CINESCOPE_SMTP_PASSWORD":        "smtp.password",
	"CINESCOPE_SMTP_SENDER":          "smtp.sender",
	"CINESCOPE_TMDB_API_KEY":         "tmdb.api_key",
	"CINESCOPE_TMDB_BASE_URL":        "tmdb.base_url",
	"CINESCOPE_TMDB_RPS":             "tmdb.rps",
	"CINESCOPE_TMDB_TIMEOUT":         "tmdb.timeout",
	"CINESCOPE_OMDB_API_KEY":         "omdb.api_key",
	"CINESCOPE_OMDB_BASE_URL":        "omdb.base_url",
	"CINESCOPE_OMDB_TIMEOUT":         "omdb.timeout",
}

func envKey(name string) string {
	return envKeys[name]
}

var slicePaths = []string{"cors.trusted_origins"}

// splitSlices turns comma-separated environment values into slices.
func splitSlices(k *koanf.Koanf) error {
	for _, path := range slicePaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}

		parts := []string{}
		for _, p := range strings.Split(s, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// Validate checks cfg for values the services cannot start with.
func (c *Config) Validate() error {
	v := validator.New()

	v.Check(c.Port > 0 && c.Port <= 65535, "port", "must be between 1 and 65535")
	v.Check(validator.In(c.Env, "development", "staging", "production"), "env", "must be development, staging or production")
	v.Check(validator.In(c.LogLevel, "info", "error", "fatal", "off"), "log_level", "must be info, error, fatal or off")

	v.Check(validator.In(c.DB.Driver, "mongo", "memory"), "db.driver", "must be mongo or memory")
	if c.DB.Driver == "mongo" {
		v.Check(c.DB.URI != "", "db.uri", "must be provided")
		v.Check(c.DB.Name != "", "db.name", "must be provided")
	}

	v.Check(c.JWT.Secret != "", "jwt.secret", "must be provided")
	if c.Env == "production" {
		v.Check(len(c.JWT.Secret) >= 32, "jwt.secret", "must be at least 32 bytes long")
		v.Check(c.JWT.Secret != developmentJWTSecret, "jwt.secret", "must be changed from the development default")
	}
	v.Check(c.JWT.TTL > 0, "jwt.ttl", "must be positive")

	if c.Limiter.Enabled {
		v.Check(c.Limiter.RPS > 0, "limiter.rps", "must be positive")
		v.Check(c.Limiter.Burst > 0, "limiter.burst", "must be positive")
	}

	if v.Valid() {
		return nil
	}

	errs := make([]error, 0, len(v.Errors))
	for _, key := range sortedKeys(v.Errors) {
		errs = append(errs, fmt.Errorf("%s %s", key, v.Errors[key]))
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
}

// Secure reports whether cookies should carry the Secure attribute.
func (c *Config) Secure() bool {
	return c.Env != "development"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
