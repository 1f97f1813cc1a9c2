// Package config loads quizgate configuration from defaults, an optional
// YAML file, a .env file and QUIZGATE_ environment variables, in that
// order of increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/abhisek/quizgate/internal/llm"
)

// Session backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config holds all application configuration.
type Config struct {
	Quiz   QuizConfig   `yaml:"quiz"`
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	Log    LogConfig    `yaml:"log"`
	LLM    llm.Config   `yaml:"llm"`
}

// QuizConfig sizes rounds.
type QuizConfig struct {
	SubtopicCount        int `yaml:"subtopic_count"`
	QuestionsPerSubtopic int `yaml:"questions_per_subtopic"`
	MaxPriorQuestions    int `yaml:"max_prior_questions"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// StoreConfig selects where sessions and the audit trail live.
type StoreConfig struct {
	DBPath         string        `yaml:"db_path"`
	SessionBackend string        `yaml:"session_backend"`
	RedisURL       string        `yaml:"redis_url"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Default() Config {
	return Config{
		Quiz: QuizConfig{
			SubtopicCount:        3,
			QuestionsPerSubtopic: 1,
			MaxPriorQuestions:    8,
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			RequestTimeout: 3 * time.Minute,
		},
		Store: StoreConfig{
			SessionBackend: BackendSQLite,
			SessionTTL:     24 * time.Hour,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		LLM: llm.DefaultConfig(),
	}
}

// Load builds the configuration. path may be empty, in which case
// QUIZGATE_CONFIG names the YAML file, if any. A missing .env file is not
// an error; a missing YAML file that was asked for is.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Default()

	if path == "" {
		path = os.Getenv("QUIZGATE_CONFIG")
	}
	if path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Quiz.SubtopicCount = envInt("QUIZGATE_SUBTOPIC_COUNT", cfg.Quiz.SubtopicCount)
	cfg.Quiz.QuestionsPerSubtopic = envInt("QUIZGATE_QUESTIONS_PER_SUBTOPIC", cfg.Quiz.QuestionsPerSubtopic)
	cfg.Quiz.MaxPriorQuestions = envInt("QUIZGATE_MAX_PRIOR_QUESTIONS", cfg.Quiz.MaxPriorQuestions)

	cfg.Server.Addr = envStr("QUIZGATE_SERVER_ADDR", cfg.Server.Addr)
	cfg.Server.AllowedOrigins = envList("QUIZGATE_ALLOWED_ORIGINS", cfg.Server.AllowedOrigins)
	cfg.Server.RequestTimeout = envDuration("QUIZGATE_REQUEST_TIMEOUT", cfg.Server.RequestTimeout)

	cfg.Store.DBPath = envStr("QUIZGATE_DB", cfg.Store.DBPath)
	cfg.Store.SessionBackend = envStr("QUIZGATE_SESSION_BACKEND", cfg.Store.SessionBackend)
	cfg.Store.RedisURL = envStr("QUIZGATE_REDIS_URL", cfg.Store.RedisURL)
	cfg.Store.SessionTTL = envDuration("QUIZGATE_SESSION_TTL", cfg.Store.SessionTTL)

	cfg.Log.Level = envStr("QUIZGATE_LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = envStr("QUIZGATE_LOG_FORMAT", cfg.Log.Format)

	cfg.LLM = llm.ApplyEnv(cfg.LLM)
}

// Validate checks the settings that do not depend on the command being
// run. The oracle provider is validated when it is built.
func (c *Config) Validate() error {
	if c.Quiz.SubtopicCount < 1 {
		return fmt.Errorf("quiz.subtopic_count must be at least 1, got %d", c.Quiz.SubtopicCount)
	}
	if c.Quiz.QuestionsPerSubtopic < 1 {
		return fmt.Errorf("quiz.questions_per_subtopic must be at least 1, got %d", c.Quiz.QuestionsPerSubtopic)
	}
	if c.Quiz.MaxPriorQuestions < 0 {
		return fmt.Errorf("quiz.max_prior_questions must not be negative, got %d", c.Quiz.MaxPriorQuestions)
	}

	switch c.Store.SessionBackend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("QUIZGATE_REDIS_URL is required for the redis session backend")
		}
	default:
		return fmt.Errorf("store.session_backend must be memory, sqlite or redis, got %q", c.Store.SessionBackend)
	}
	if c.Store.SessionTTL < 0 {
		return fmt.Errorf("store.session_ttl must not be negative")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma-separated list.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
