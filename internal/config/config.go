package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port           string        `yaml:"port"`
	Env            string        `yaml:"env"`
	APIBase        string        `yaml:"api_base"`
	APITimeout     time.Duration `yaml:"api_timeout"`
	MongoURI       string        `yaml:"mongodb_uri"`
	MongoDB        string        `yaml:"mongodb_database"`
	DefaultLocale  string        `yaml:"default_locale"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	TracingEnabled bool          `yaml:"tracing_enabled"`
	TraceFile      string        `yaml:"trace_file"`
}

// defaults returns the built-in values used when neither the config file nor the environment sets a key.
func defaults(port string) *Config {
	return &Config{
		Port:          port,
		Env:           "development",
		APIBase:       "http://localhost:8080",
		APITimeout:    10 * time.Second,
		MongoURI:      "mongodb://localhost:27017",
		MongoDB:       "workflow_approval",
		DefaultLocale: "en",
		SessionTTL:    12 * time.Hour,
	}
}

// Load builds the configuration for a binary listening on defaultPort.
// Values from CONFIG_FILE (YAML) are applied first, then environment variables override them.
func Load(defaultPort string) *Config {
	cfg := defaults(defaultPort)
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)
	cfg.APIBase = strings.TrimRight(getEnv("API_BASE", cfg.APIBase), "/")
	cfg.APITimeout = getDuration("API_TIMEOUT", cfg.APITimeout)
	cfg.MongoURI = getEnv("MONGODB_URI", cfg.MongoURI)
	cfg.MongoDB = getEnv("MONGODB_DATABASE", cfg.MongoDB)
	cfg.DefaultLocale = getEnv("DEFAULT_LOCALE", cfg.DefaultLocale)
	cfg.SessionTTL = getDuration("SESSION_TTL", cfg.SessionTTL)
	cfg.TracingEnabled = getBool("TRACING_ENABLED", cfg.TracingEnabled)
	cfg.TraceFile = getEnv("TRACE_FILE", cfg.TraceFile)
	return cfg
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	c.APIBase = strings.TrimRight(c.APIBase, "/")
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %s", key, v, fallback)
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: invalid %s=%q, using %t", key, v, fallback)
		return fallback
	}
	return b
}
