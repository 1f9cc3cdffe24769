package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultExpectedAssessments is the number of distinct assessment types the product offers.
const DefaultExpectedAssessments = 3

type Config struct {
	Server struct {
		Port         string `yaml:"port"`
		ReadTimeout  string `yaml:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout"`
		// AllowedOrigins feeds the CORS middleware; empty means "*".
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Auth struct {
		// Tokens maps bearer tokens to user ids.
		Tokens map[string]string `yaml:"tokens"`
	} `yaml:"auth"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		// Dir overrides the embedded catalog with assessments.json + question files.
		Dir string `yaml:"dir"`
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Assessment struct {
		ExpectedTotal int `yaml:"expected_total"`
		TopN          int `yaml:"top_n"`
	} `yaml:"assessment"`
	LLM struct {
		Provider string `yaml:"provider"` // gemini, mock or empty for offline replies
		Timeout  string `yaml:"timeout"`
		Gemini   struct {
			APIKey string `yaml:"api_key"`
			Model  string `yaml:"model"`
		} `yaml:"gemini"`
	} `yaml:"llm"`
}

// Load reads YAML config from path, after loading an optional .env file
// next to the process. Environment variables override secrets and endpoints.
func Load(path string) (Config, error) {
	cfg := Config{}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("POSTGRES_URL"); v != "" {
		cfg.Postgres.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.LLM.Gemini.APIKey = v
		if cfg.LLM.Provider == "" {
			cfg.LLM.Provider = "gemini"
		}
	}
	if v := os.Getenv("EXPECTED_ASSESSMENTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Assessment.ExpectedTotal = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Assessment.ExpectedTotal <= 0 {
		cfg.Assessment.ExpectedTotal = DefaultExpectedAssessments
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.LLM.Gemini.Model == "" {
		cfg.LLM.Gemini.Model = "gemini-2.0-flash"
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
