// Package config collects the environment knobs shared by the binaries.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	DefaultModel        = "gpt-4o-mini"
	DefaultTemperature  = 0.4
	DefaultStageTimeout = 2 * time.Minute
	DefaultOutputDir    = "output"
	DefaultPort         = "8080"
)

type Config struct {
	OpenAIKey    string
	AnthropicKey string
	NewsAPIKey   string
	FinnhubKey   string

	DefaultModel string
	Temperature  float64
	StageTimeout time.Duration
	OutputDir    string
	Port         string
}

func Load() Config {
	cfg := Config{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
		NewsAPIKey:   os.Getenv("NEWSAPI_API_KEY"),
		FinnhubKey:   os.Getenv("FINNHUB_API_KEY"),
		DefaultModel: getEnv("DEFAULT_MODEL", DefaultModel),
		Temperature:  getEnvFloat("MODEL_TEMPERATURE", DefaultTemperature),
		StageTimeout: getEnvDuration("STAGE_TIMEOUT", DefaultStageTimeout),
		OutputDir:    getEnv("OUTPUT_DIR", DefaultOutputDir),
		Port:         getEnv("PORT", DefaultPort),
	}
	return cfg
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getEnvFloat(name string, fallback float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid env value, using default", "name", name, "value", v, "error", err)
		return fallback
	}
	return parsed
}

func getEnvDuration(name string, fallback time.Duration) time.Duration {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("invalid env value, using default", "name", name, "value", v, "error", err)
		return fallback
	}
	return parsed
}
