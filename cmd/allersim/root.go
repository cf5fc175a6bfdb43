package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"allersim/internal/config"
	"allersim/internal/errors"
	"allersim/internal/llm"
	"allersim/internal/logging"
	"allersim/internal/session"
)

const version = "0.3.0"

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// NewRootCommand builds the CLI tree.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "allersim",
		Short: "Restaurant allergy-disclosure training simulator",
		Long: `allersim runs role-play sessions where the player practices telling a
restaurant server about food allergies and ordering safely. Sessions are
scored per difficulty level and finish with personalized feedback.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("scenario", "", "Path to scenario menu JSON")
	rootCmd.PersistentFlags().String("level", "", "Difficulty: beginner, intermediate, advanced")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newPlayCommand())
	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newVersionCommand())

	viper.SetConfigName("allersim-config")
	viper.SetConfigType("json")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("allersim %s\n", version)
		},
	}
}

// loadConfig layers viper defaults, an optional config file, ALLERSIM_*
// environment variables, and the persistent flags. Later layers win.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	defaults := config.Default()
	viper.SetDefault("llm_base_url", defaults.LLMBaseURL)
	viper.SetDefault("llm_api_key", defaults.LLMAPIKey)
	viper.SetDefault("llm_model", defaults.LLMModel)
	viper.SetDefault("llm_timeout_seconds", defaults.LLMTimeoutSec)
	viper.SetDefault("llm_max_retries", defaults.LLMMaxRetries)
	viper.SetDefault("scenario_path", defaults.ScenarioPath)
	viper.SetDefault("session_dir", defaults.SessionDir)
	viper.SetDefault("server_addr", defaults.ServerAddr)
	viper.SetDefault("log_level", defaults.LogLevel)
	viper.SetDefault("level", defaults.Level)

	viper.SetEnvPrefix("ALLERSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return config.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return config.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg config.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return config.Config{}, fmt.Errorf("parse config: %w", err)
	}

	if scenario, _ := cmd.Flags().GetString("scenario"); scenario != "" {
		cfg.ScenarioPath = scenario
	}
	if level, _ := cmd.Flags().GetString("level"); level != "" {
		cfg.Level = level
	}
	if logLevel, _ := cmd.Flags().GetString("log-level"); logLevel != "" {
		cfg.LogLevel = logLevel
	}

	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// buildCollaborators wires the LLM-backed classifier and reply generator.
// Without an API key both are nil and the engine runs on its deterministic
// local paths.
func buildCollaborators(cfg config.Config) (session.SemanticAnalyzer, session.ReplyProducer, error) {
	if cfg.LLMAPIKey == "" {
		return nil, nil, nil
	}

	client, err := llm.NewOpenAIClient(llm.Config{
		APIKey:  cfg.LLMAPIKey,
		BaseURL: cfg.LLMBaseURL,
		Model:   cfg.LLMModel,
		Timeout: time.Duration(cfg.LLMTimeoutSec) * time.Second,
	})
	if err != nil {
		return nil, nil, err
	}

	retryCfg := errors.DefaultRetryConfig()
	if cfg.LLMMaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.LLMMaxRetries
	}
	client = llm.NewRetryClient(client, retryCfg)

	return llm.NewSemanticClassifier(client), llm.NewReplyGenerator(client), nil
}
