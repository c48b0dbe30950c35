package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type AppConfig struct {
	Owner string

	RedisURL    string
	DatabaseURL string

	StockfishPath    string
	AnalysisDepth    int
	AnalysisLines    int
	AnalysisTimeout  time.Duration
	AnalysisCacheTTL time.Duration

	ChessComBaseURL string
	ChessComMonths  int

	RenderDir   string
	MessagesDir string
}

// Load reads the application configuration from the environment.
// A .env file in the working directory (or ENV_FILE) is applied first;
// variables already set in the process win.
func Load() (*AppConfig, error) {
	envFile := strings.TrimSpace(os.Getenv("ENV_FILE"))
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return FromEnv()
}

// FromEnv builds the configuration from process variables only.
func FromEnv() (*AppConfig, error) {
	cfg := &AppConfig{
		Owner:            "local",
		AnalysisDepth:    14,
		AnalysisLines:    3,
		AnalysisTimeout:  10 * time.Second,
		AnalysisCacheTTL: 24 * time.Hour,
		ChessComBaseURL:  "https://api.chess.com/pub",
		ChessComMonths:   3,
	}

	if v := strings.TrimSpace(os.Getenv("REVIEW_OWNER")); v != "" {
		cfg.Owner = v
	}
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	// Analysis
	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalysisDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_LINES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.AnalysisLines = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_TIMEOUT")); v != "" {
		if d, err := parseDuration(v); err == nil {
			cfg.AnalysisTimeout = d
		}
	}
	if v := strings.TrimSpace(os.Getenv("ANALYSIS_CACHE_TTL")); v != "" { // seconds or Go duration
		if d, err := parseDuration(v); err == nil {
			cfg.AnalysisCacheTTL = d
		}
	}

	// Import
	if v := strings.TrimSpace(os.Getenv("CHESSCOM_BASE_URL")); v != "" {
		cfg.ChessComBaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv("CHESSCOM_MONTHS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ChessComMonths = n
		}
	}

	cfg.RenderDir = strings.TrimSpace(os.Getenv("RENDER_DIR"))
	cfg.MessagesDir = strings.TrimSpace(os.Getenv("MESSAGES_DIR"))

	if cfg.AnalysisLines > 8 {
		return nil, errors.New("ANALYSIS_LINES must be at most 8")
	}
	return cfg, nil
}

func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return time.Duration(n) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}
