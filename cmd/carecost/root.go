package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carecost/carecost/analytics"
	"github.com/carecost/carecost/config"
	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/llm/claude"
	"github.com/carecost/carecost/llm/gemini"
	"github.com/carecost/carecost/llm/openai"
	"github.com/carecost/carecost/session"
	"github.com/carecost/carecost/session/store"
)

const version = "0.3.0"

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "carecost",
	Short:   "Estimate a patient's out-of-pocket cost for medical care",
	Long:    "carecost answers \"what will this cost me?\" for a described care need:\nit parses the patient's insurance plan (or falls back to standard Medicare\nrates), finds nearby providers, checks network status, and produces a\nplain-language cost estimate refined through a quality review loop.",
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (optional)")
}

// newLLMClient builds the reasoning client for the configured provider. The
// config validator has already constrained the provider name.
func newLLMClient(c *config.LLMConfig) llm.Client {
	switch c.Provider {
	case "claude":
		pc := claude.DefaultConfig(c.APIKey())
		if c.Model != "" {
			pc.Model = c.Model
		}
		if c.MaxTokens > 0 {
			pc.MaxTokens = int64(c.MaxTokens)
		}
		pc.Temperature = c.Temperature
		return claude.New(pc)
	case "gemini":
		pc := gemini.DefaultConfig(c.APIKey())
		if c.Model != "" {
			pc.Model = c.Model
		}
		if c.MaxTokens > 0 {
			pc.MaxTokens = c.MaxTokens
		}
		pc.Temperature = float32(c.Temperature)
		return gemini.New(pc)
	default:
		pc := openai.DefaultConfig(c.APIKey())
		if c.Model != "" {
			pc.Model = c.Model
		}
		if c.MaxTokens > 0 {
			pc.MaxTokens = int64(c.MaxTokens)
		}
		pc.Temperature = c.Temperature
		return openai.New(pc)
	}
}

// newSessionStore builds the configured session store and a close function.
func newSessionStore(c *config.SessionConfig) (session.Store, func(), error) {
	switch c.Backend {
	case "redis":
		rc := store.DefaultRedisConfig()
		rc.Addr = c.Redis.Addr
		rc.Password = c.Redis.Password
		rc.DB = c.Redis.DB
		s := store.NewRedisStore(rc)
		return s, func() { _ = s.Close() }, nil
	case "mongo":
		mc := store.DefaultMongoConfig()
		mc.URI = c.Mongo.URI
		if c.Mongo.Database != "" {
			mc.Database = c.Mongo.Database
		}
		if c.Mongo.Collection != "" {
			mc.Collection = c.Mongo.Collection
		}
		s, err := store.NewMongoStore(mc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close(context.Background()) }, nil
	case "postgres":
		pc := &store.PostgresConfig{
			Host:     c.Postgres.Host,
			Port:     c.Postgres.Port,
			User:     c.Postgres.User,
			Password: c.Postgres.Password,
			DBName:   c.Postgres.DBName,
			SSLMode:  c.Postgres.SSLMode,
		}
		s, err := store.NewPostgresStore(pc)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		return store.NewInMemoryStore(), func() {}, nil
	}
}

// newAnalyticsRecorder builds the configured query-analytics recorder; a nil
// recorder disables recording.
func newAnalyticsRecorder(c *config.AnalyticsConfig) (analytics.Recorder, func(), error) {
	switch c.Backend {
	case "postgres":
		pc := &analytics.PostgresConfig{
			Host:     c.Postgres.Host,
			Port:     c.Postgres.Port,
			User:     c.Postgres.User,
			Password: c.Postgres.Password,
			DBName:   c.Postgres.DBName,
			SSLMode:  c.Postgres.SSLMode,
		}
		r, err := analytics.NewPostgresRecorder(pc)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { _ = r.Close() }, nil
	case "memory":
		return analytics.NewInMemoryRecorder(), func() {}, nil
	default:
		return nil, func() {}, nil
	}
}
