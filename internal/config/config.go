/**
* Name:         config.go
* Description:  runtime configuration of the forms admin
* Workflow:     defaults, then the YAML file named by FORMSADMIN_CONFIG, then FORMSADMIN_* variables
 */
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "FORMSADMIN_"

type Config struct {
	HTTPAddr       string        `yaml:"http_addr"`
	DatabasePath   string        `yaml:"database_path"`
	JWTSecret      string        `yaml:"jwt_secret"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	AdminUsername  string        `yaml:"admin_username"`
	AdminPassword  string        `yaml:"admin_password"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"` // auto, console or json
	ExportFileType string        `yaml:"export_file_type"`
	Languages      []string      `yaml:"languages"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	LoginRate      float64       `yaml:"login_rate"` // attempts per second
	LoginBurst     int           `yaml:"login_burst"`
	SiteTitle      string        `yaml:"site_title"`
	TemplateDir    string        `yaml:"template_dir"`
}

func Default() *Config {
	return &Config{
		HTTPAddr:       ":8080",
		DatabasePath:   "formsadmin.db",
		JWTSecret:      "formsadmin-dev-secret-change-me",
		SessionTTL:     12 * time.Hour,
		LogLevel:       "info",
		LogFormat:      "auto",
		ExportFileType: "xlsx",
		Languages:      []string{"en"},
		LoginRate:      0.2,
		LoginBurst:     5,
		SiteTitle:      "Forms administration",
	}
}

// Load reads .env when present and builds the configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: .env: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds the configuration from lookup without touching .env.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if path, ok := lookup(envPrefix + "CONFIG"); ok && path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = splitList(v)
		}
	}

	str("HTTP_ADDR", &c.HTTPAddr)
	str("DATABASE_PATH", &c.DatabasePath)
	str("JWT_SECRET", &c.JWTSecret)
	str("ADMIN_USERNAME", &c.AdminUsername)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("EXPORT_FILE_TYPE", &c.ExportFileType)
	str("SITE_TITLE", &c.SiteTitle)
	str("TEMPLATE_DIR", &c.TemplateDir)
	list("LANGUAGES", &c.Languages)
	list("ALLOWED_ORIGINS", &c.AllowedOrigins)

	if v, ok := lookup(envPrefix + "SESSION_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sSESSION_TTL: %w", envPrefix, err)
		}
		c.SessionTTL = d
	}
	if v, ok := lookup(envPrefix + "LOGIN_RATE"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sLOGIN_RATE: %w", envPrefix, err)
		}
		c.LoginRate = f
	}
	if v, ok := lookup(envPrefix + "LOGIN_BURST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sLOGIN_BURST: %w", envPrefix, err)
		}
		c.LoginBurst = n
	}
	return nil
}

func (c *Config) Validate() error {
	switch {
	case c.HTTPAddr == "":
		return errors.New("config: http_addr is empty")
	case c.DatabasePath == "":
		return errors.New("config: database_path is empty")
	case c.JWTSecret == "":
		return errors.New("config: jwt_secret is empty")
	case c.SessionTTL <= 0:
		return errors.New("config: session_ttl must be positive")
	case c.LoginRate <= 0 || c.LoginBurst <= 0:
		return errors.New("config: login_rate and login_burst must be positive")
	}
	c.ExportFileType = strings.ToLower(strings.TrimSpace(c.ExportFileType))
	if c.ExportFileType == "" {
		return errors.New("config: export_file_type is empty")
	}
	switch c.LogFormat {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("config: unsupported log_format %q", c.LogFormat)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
