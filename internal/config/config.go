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

type Config struct {
	Server struct {
		Port            int               `yaml:"port"`
		CORSOrigins     []string          `yaml:"cors_origins"`
		ReadTimeoutSec  int               `yaml:"read_timeout_seconds"`
		WriteTimeoutSec int               `yaml:"write_timeout_seconds"`
		OperatorKeys    map[string]string `yaml:"operator_keys"`
		RateLimit       struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refill_rate"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`

	Database struct {
		Driver   string `yaml:"driver"` // "", mysql or postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslmode"`
		Migrate  bool   `yaml:"migrate"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	LLM struct {
		BaseURL    string   `yaml:"base_url"`
		Model      string   `yaml:"model"`
		APIKeys    []string `yaml:"api_keys"`
		TimeoutSec int      `yaml:"timeout_seconds"`
	} `yaml:"llm"`

	Analysis struct {
		MaxSuggestions int `yaml:"max_suggestions"`
	} `yaml:"analysis"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"` // json or text
	} `yaml:"log"`
}

// Load baca .env, file config.yaml (opsional), lalu override dari env
func Load(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	envInt("PORT", &c.Server.Port)
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}

	envString("DB_DRIVER", &c.Database.Driver)
	envString("DB_HOST", &c.Database.Host)
	envInt("DB_PORT", &c.Database.Port)
	envString("DB_USER", &c.Database.User)
	envString("DB_PASSWORD", &c.Database.Password)
	envString("DB_NAME", &c.Database.Name)

	envString("MINIO_ENDPOINT", &c.Minio.Endpoint)
	envString("MINIO_ACCESS_KEY", &c.Minio.AccessKey)
	envString("MINIO_SECRET_KEY", &c.Minio.SecretKey)
	envString("MINIO_BUCKET", &c.Minio.BucketName)

	envString("LLM_BASE_URL", &c.LLM.BaseURL)
	envString("LLM_MODEL", &c.LLM.Model)
	envInt("LLM_TIMEOUT_SECONDS", &c.LLM.TimeoutSec)
	// LLM_API_KEYS wins over the single key variables
	for _, name := range []string{"LLM_API_KEYS", "GEMINI_API_KEY", "OPENAI_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			c.LLM.APIKeys = splitList(v)
			break
		}
	}

	envString("LOG_LEVEL", &c.Log.Level)
	envString("LOG_FORMAT", &c.Log.Format)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:5173"}
	}
	if c.Server.ReadTimeoutSec == 0 {
		c.Server.ReadTimeoutSec = 15
	}
	if c.LLM.TimeoutSec == 0 {
		c.LLM.TimeoutSec = 60
	}
	// write timeout must outlive one model call
	if c.Server.WriteTimeoutSec == 0 {
		c.Server.WriteTimeoutSec = c.LLM.TimeoutSec + 30
	}
	if c.Server.RateLimit.Capacity == 0 {
		c.Server.RateLimit.Capacity = 30
	}
	if c.Server.RateLimit.RefillRate == 0 {
		c.Server.RateLimit.RefillRate = 1
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "contracts"
	}
	if c.Minio.Region == "" {
		c.Minio.Region = "us-east-1"
	}
	if c.Analysis.MaxSuggestions == 0 {
		c.Analysis.MaxSuggestions = 8
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// Validate returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q not supported (mysql, postgres)", c.Database.Driver))
	}
	if c.Database.Driver != "" && (c.Database.Host == "" || c.Database.Name == "") {
		errs = append(errs, errors.New("database.host and database.name are required when a driver is set"))
	}
	if c.LLM.BaseURL != "" {
		if u, err := url.Parse(c.LLM.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("llm.base_url %q is not an absolute URL", c.LLM.BaseURL))
		}
	}
	if c.LLM.TimeoutSec < 0 {
		errs = append(errs, errors.New("llm.timeout_seconds must be positive"))
	}
	if c.Analysis.MaxSuggestions < 0 {
		errs = append(errs, errors.New("analysis.max_suggestions must be positive"))
	}
	switch c.Log.Format {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("log.format %q not supported (json, text)", c.Log.Format))
	}
	return errors.Join(errs...)
}

// LLMTimeout is the bound for one model call.
func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSec) * time.Second
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN in URL form, accepted by lib/pq and golang-migrate
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: url.Values{"sslmode": {c.Database.SSLMode}}.Encode(),
	}
	return u.String()
}

// DSN for the configured driver, empty when persistence is disabled.
func (c *Config) DSN() string {
	switch c.Database.Driver {
	case "mysql":
		return c.MySQLDSN()
	case "postgres":
		return c.PostgresDSN()
	default:
		return ""
	}
}

// MigrateURL is DSN with the scheme golang-migrate expects.
func (c *Config) MigrateURL() string {
	if c.Database.Driver == "mysql" {
		return "mysql://" + c.MySQLDSN()
	}
	return c.DSN()
}

func envString(name string, dst *string) {
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

func envInt(name string, dst *int) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
