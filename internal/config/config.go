package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates every configuration section of the service.
type Config struct {
	Server  ServerConfig
	RAG     RAGConfig
	History HistoryConfig
	Bot     BotConfig
	Log     LogConfig
}

// Load reads the full configuration from environment variables.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	rag, err := loadRAGConfig()
	if err != nil {
		return nil, err
	}

	history, err := loadHistoryConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		RAG:     rag,
		History: history,
		Bot:     BotConfig{Name: getEnvOrDefault("BOT_NAME", "RAG Assistant")},
		Log:     LogConfig{Level: getEnvOrDefault("LOG_LEVEL", "info")},
	}, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "3978"
	}

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// RAGConfig describes the backend chat endpoint and the fixed retrieval
// overrides sent with every request. Overrides are deployment constants,
// never user-controllable.
type RAGConfig struct {
	BaseURL              string
	Timeout              time.Duration
	Top                  int
	Temperature          float64
	MinimumSearchScore   float64
	MinimumRerankerScore float64
}

func loadRAGConfig() (RAGConfig, error) {
	timeoutSeconds, err := parseIntEnv("RAG_TIMEOUT_SECONDS", 30)
	if err != nil {
		return RAGConfig{}, err
	}
	if timeoutSeconds <= 0 {
		return RAGConfig{}, fmt.Errorf("invalid RAG_TIMEOUT_SECONDS value: %d", timeoutSeconds)
	}

	top, err := parseIntEnv("RAG_TOP", 3)
	if err != nil {
		return RAGConfig{}, err
	}

	temperature, err := parseFloatEnv("RAG_TEMPERATURE", 0.3)
	if err != nil {
		return RAGConfig{}, err
	}

	minSearch, err := parseFloatEnv("RAG_MIN_SEARCH_SCORE", 0.0)
	if err != nil {
		return RAGConfig{}, err
	}

	minReranker, err := parseFloatEnv("RAG_MIN_RERANKER_SCORE", 0.0)
	if err != nil {
		return RAGConfig{}, err
	}

	return RAGConfig{
		BaseURL:              strings.TrimRight(getEnvOrDefault("RAG_BACKEND_URL", "http://localhost:50505"), "/"),
		Timeout:              time.Duration(timeoutSeconds) * time.Second,
		Top:                  top,
		Temperature:          temperature,
		MinimumSearchScore:   minSearch,
		MinimumRerankerScore: minReranker,
	}, nil
}

// HistoryConfig selects the history backing driver and the per-conversation cap.
type HistoryConfig struct {
	Driver   string
	Path     string
	MaxTurns int
}

func loadHistoryConfig() (HistoryConfig, error) {
	driver := strings.ToLower(getEnvOrDefault("HISTORY_DRIVER", "memory"))
	switch driver {
	case "memory", "bolt", "sqlite":
	default:
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_DRIVER value %q: must be memory, bolt or sqlite", driver)
	}

	maxTurns, err := parseIntEnv("HISTORY_MAX_TURNS", 20)
	if err != nil {
		return HistoryConfig{}, err
	}
	if maxTurns < 2 {
		return HistoryConfig{}, fmt.Errorf("invalid HISTORY_MAX_TURNS value: %d is below the two-turn minimum", maxTurns)
	}

	return HistoryConfig{
		Driver:   driver,
		Path:     getEnvOrDefault("HISTORY_PATH", "bridge-history.db"),
		MaxTurns: maxTurns,
	}, nil
}

// BotConfig names the assistant identity rendered in help replies.
type BotConfig struct {
	Name string
}

// LogConfig carries the zap level for the process logger.
type LogConfig struct {
	Level string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseIntEnv(key string, defaultValue int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}
