package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	ModeREPL = "repl"
	ModeMCP  = "mcp"
)

// Config defines client configuration.
type Config struct {
	Mode    string        `yaml:"mode" validate:"oneof=repl mcp"`
	API     APIConfig     `yaml:"api"`
	Search  SearchConfig  `yaml:"search"`
	Journal JournalConfig `yaml:"journal"`
	Log     LogConfig     `yaml:"log"`
}

type APIConfig struct {
	URL         string        `yaml:"url" validate:"required,url"`
	Token       string        `yaml:"token"`
	Timeout     time.Duration `yaml:"timeout" validate:"gt=0"`
	UploadField string        `yaml:"upload_field" validate:"required"`
}

type SearchConfig struct {
	TopK int `yaml:"top_k" validate:"gt=0"`
}

type JournalConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
	// Path enables a size-rotated log file instead of stderr.
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `yaml:"max_backups" validate:"gte=0"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Mode: ModeREPL,
		API: APIConfig{
			URL:         "http://127.0.0.1:8000",
			Timeout:     60 * time.Second,
			UploadField: "pdf_file",
		},
		Search: SearchConfig{
			TopK: 30,
		},
		Journal: JournalConfig{
			Path: "neosearch.db",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("NEOSEARCH_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if mode := os.Getenv("NEOSEARCH_MODE"); mode != "" {
		cfg.Mode = mode
	}
	if url := os.Getenv("NEOSEARCH_API_URL"); url != "" {
		cfg.API.URL = url
	}
	if token := os.Getenv("NEOSEARCH_API_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if timeoutStr := os.Getenv("NEOSEARCH_TIMEOUT"); timeoutStr != "" {
		timeout, err := time.ParseDuration(timeoutStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NEOSEARCH_TIMEOUT: %w", err)
		}
		cfg.API.Timeout = timeout
	}
	if field := os.Getenv("NEOSEARCH_UPLOAD_FIELD"); field != "" {
		cfg.API.UploadField = field
	}
	if topKStr := os.Getenv("NEOSEARCH_TOP_K"); topKStr != "" {
		topK, err := strconv.Atoi(topKStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid NEOSEARCH_TOP_K: %w", err)
		}
		cfg.Search.TopK = topK
	}
	if path := os.Getenv("NEOSEARCH_JOURNAL_PATH"); path != "" {
		cfg.Journal.Path = path
	}
	if level := os.Getenv("NEOSEARCH_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if path := os.Getenv("NEOSEARCH_LOG_PATH"); path != "" {
		cfg.Log.Path = path
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func Validate(cfg Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
