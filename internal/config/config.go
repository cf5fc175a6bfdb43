// Package config loads runtime configuration in three layers: built-in
// defaults, an optional JSON config file, then ALLERSIM_* environment
// overrides. Later layers win.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config is the runtime configuration for the simulator.
type Config struct {
	// External LLM provider (OpenAI-compatible). An empty APIKey runs the
	// simulator fully offline on the deterministic fallbacks.
	LLMBaseURL    string `json:"llm_base_url" mapstructure:"llm_base_url"`
	LLMAPIKey     string `json:"llm_api_key" mapstructure:"llm_api_key"`
	LLMModel      string `json:"llm_model" mapstructure:"llm_model"`
	LLMTimeoutSec int    `json:"llm_timeout_seconds" mapstructure:"llm_timeout_seconds"`
	LLMMaxRetries int    `json:"llm_max_retries" mapstructure:"llm_max_retries"`

	// ScenarioPath points at the scenario menu JSON.
	ScenarioPath string `json:"scenario_path" mapstructure:"scenario_path"`

	// SessionDir is where finished sessions are persisted.
	SessionDir string `json:"session_dir" mapstructure:"session_dir"`

	// ServerAddr is the HTTP API listen address.
	ServerAddr string `json:"server_addr" mapstructure:"server_addr"`

	// LogLevel is debug, info, warn, or error.
	LogLevel string `json:"log_level" mapstructure:"log_level"`

	// Level is the default difficulty for new sessions.
	Level string `json:"level" mapstructure:"level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LLMBaseURL:    "https://api.openai.com/v1",
		LLMModel:      "gpt-4o-mini",
		LLMTimeoutSec: 20,
		LLMMaxRetries: 2,
		ScenarioPath:  "scenarios/trattoria.json",
		SessionDir:    "~/.allersim-sessions",
		ServerAddr:    ":8085",
		LogLevel:      "info",
		Level:         "beginner",
	}
}

// Load builds the layered configuration. path may be empty; a missing file
// at an explicit path is an error, the default path is optional.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setString("ALLERSIM_LLM_BASE_URL", &cfg.LLMBaseURL)
	setString("ALLERSIM_LLM_API_KEY", &cfg.LLMAPIKey)
	setString("ALLERSIM_LLM_MODEL", &cfg.LLMModel)
	setInt("ALLERSIM_LLM_TIMEOUT_SECONDS", &cfg.LLMTimeoutSec)
	setInt("ALLERSIM_LLM_MAX_RETRIES", &cfg.LLMMaxRetries)
	setString("ALLERSIM_SCENARIO_PATH", &cfg.ScenarioPath)
	setString("ALLERSIM_SESSION_DIR", &cfg.SessionDir)
	setString("ALLERSIM_SERVER_ADDR", &cfg.ServerAddr)
	setString("ALLERSIM_LOG_LEVEL", &cfg.LogLevel)
	setString("ALLERSIM_LEVEL", &cfg.Level)
}
