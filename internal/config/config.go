package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = ".shoot/config.yaml"

type LLMConfig struct {
	Provider    string        `yaml:"provider"`
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url" validate:"required,url"`
	Model       string        `yaml:"model" validate:"required"`
	MaxTokens   int           `yaml:"max_tokens" validate:"gte=0"`
	Temperature float64       `yaml:"temperature" validate:"gte=0,lte=2"`
	Timeout     time.Duration `yaml:"timeout"`
}

// Configured reports whether a credential is present.
func (c LLMConfig) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `yaml:"dsn"`
}

type ProxyConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type FetchConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

type RedactConfig struct {
	Headers     []string `yaml:"headers"`
	QueryParams []string `yaml:"query_params"`
	BodyFields  []string `yaml:"body_fields"`
	Replacement string   `yaml:"replacement"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
}

type ServerConfig struct {
	Host       string `yaml:"host" validate:"required"`
	Port       int    `yaml:"port" validate:"gt=0,lt=65536"`
	CORSOrigin string `yaml:"cors_origin"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"oneof=debug info warn error"`
}

type Config struct {
	LLM      LLMConfig      `yaml:"llm"`
	Database DatabaseConfig `yaml:"database"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Fetch    FetchConfig    `yaml:"fetch"`
	Redact   RedactConfig   `yaml:"redact"`
	Output   OutputConfig   `yaml:"output"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

var validate = validator.New()

// Load loads YAML config, then .env, then applies env overrides.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		configPath = filepath.Join(home, defaultConfigRelPath)
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg.SetDefaults()

	// A missing .env is normal.
	_ = godotenv.Load()

	applyEnvOverrides(cfg)
	return cfg, nil
}

// DefaultDir returns ~/.shoot.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, filepath.Dir(defaultConfigRelPath)), nil
}

func (c *Config) SetDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = "https://api.openai.com/v1"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4"
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 4000
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.7
	}
	if c.LLM.Timeout == 0 {
		c.LLM.Timeout = 120 * time.Second
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Proxy.Timeout == 0 {
		c.Proxy.Timeout = 30 * time.Second
	}
	if c.Fetch.Timeout == 0 {
		c.Fetch.Timeout = 30 * time.Second
	}
	if len(c.Redact.Headers) == 0 {
		c.Redact.Headers = []string{"Authorization", "Cookie", "Set-Cookie", "X-Api-Key", "X-Auth-Token"}
	}
	if len(c.Redact.QueryParams) == 0 {
		c.Redact.QueryParams = []string{"api_key", "apikey", "key", "token", "access_token"}
	}
	if len(c.Redact.BodyFields) == 0 {
		c.Redact.BodyFields = []string{"password", "secret", "token", "access_token", "api_key", "apikey"}
	}
	if c.Redact.Replacement == "" {
		c.Redact.Replacement = "***REDACTED***"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// Validate checks field constraints and that the database is reachable by path.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Database.Driver == "postgres" && strings.TrimSpace(c.Database.DSN) == "" {
		return errors.New("database.dsn cannot be empty for postgres")
	}
	return nil
}

// ValidateExport enforces export-specific requirements.
func (c *Config) ValidateExport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("output.dir cannot be empty")
	}
	if err := ensureWritableDir(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir not writable: %w", err)
	}
	return nil
}

// DatabaseDSN resolves the DSN, defaulting sqlite to ~/.shoot/shoot.db.
func (c *Config) DatabaseDSN() (string, error) {
	if c.Database.DSN != "" {
		return c.Database.DSN, nil
	}
	if c.Database.Driver != "sqlite" {
		return "", errors.New("database.dsn cannot be empty")
	}
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "shoot.db"), nil
}

func ensureWritableDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

func applyEnvOverrides(c *Config) {
	// OPENAI_API_KEY is the conventional credential; SHOOT_LLM_API_KEY wins when both are set.
	setString(&c.LLM.APIKey, "OPENAI_API_KEY")
	setString(&c.LLM.Provider, "SHOOT_LLM_PROVIDER")
	setString(&c.LLM.APIKey, "SHOOT_LLM_API_KEY")
	setString(&c.LLM.BaseURL, "SHOOT_LLM_BASE_URL")
	setString(&c.LLM.Model, "SHOOT_LLM_MODEL")
	setInt(&c.LLM.MaxTokens, "SHOOT_LLM_MAX_TOKENS")
	setFloat(&c.LLM.Temperature, "SHOOT_LLM_TEMPERATURE")
	setDuration(&c.LLM.Timeout, "SHOOT_LLM_TIMEOUT")
	setString(&c.Database.Driver, "SHOOT_DATABASE_DRIVER")
	setString(&c.Database.DSN, "SHOOT_DATABASE_DSN")
	setString(&c.Database.DSN, "DATABASE_URL")
	setDuration(&c.Proxy.Timeout, "SHOOT_PROXY_TIMEOUT")
	setDuration(&c.Fetch.Timeout, "SHOOT_FETCH_TIMEOUT")
	setString(&c.Output.Dir, "SHOOT_OUTPUT_DIR")
	setString(&c.Server.Host, "SHOOT_SERVER_HOST")
	setInt(&c.Server.Port, "SHOOT_SERVER_PORT")
	setString(&c.Server.CORSOrigin, "SHOOT_SERVER_CORS_ORIGIN")
	setString(&c.Log.Level, "SHOOT_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
