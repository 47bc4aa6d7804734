package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds the server settings read from the environment
type Config struct {
	Port           int           `validate:"min=1,max=65535"`
	ModelPath      string        `validate:"required"`
	DatabaseURL    string        `validate:"omitempty,url"`
	AllowedOrigins []string      `validate:"dive,required"`
	RequestTimeout time.Duration `validate:"min=1s"`
	MaxUploadBytes int64         `validate:"min=1024"`
}

// Defaults returns the settings used when a variable is unset
func Defaults() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"*"},
		RequestTimeout: 60 * time.Second,
		MaxUploadBytes: 32 << 20,
	}
}

var validate = validator.New()

// Load reads envFiles (missing files are skipped), then the process environment.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := Defaults()

	if port := getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	cfg.ModelPath = getenv("MODEL_PATH")
	cfg.DatabaseURL = getenv("DATABASE_URL")

	if origins := getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = nil
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	if timeout := getenv("REQUEST_TIMEOUT"); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", timeout, err)
		}
		cfg.RequestTimeout = d
	}

	if size := getenv("MAX_UPLOAD_BYTES"); size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q: %w", size, err)
		}
		cfg.MaxUploadBytes = n
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}
