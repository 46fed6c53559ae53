package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yourorg/shoot/internal/config"
	"github.com/yourorg/shoot/internal/llm"
	"github.com/yourorg/shoot/internal/metrics"
	"github.com/yourorg/shoot/internal/store"
)

const defaultConfigContent = `llm:
  provider: "openai"
  api_key: ""
  base_url: "https://api.openai.com/v1"
  model: "gpt-4"
  max_tokens: 4000
  temperature: 0.7
  timeout: 120s

database:
  driver: "sqlite"
  dsn: ""

proxy:
  timeout: 30s

fetch:
  timeout: 30s

redact:
  headers:
    - Authorization
    - Cookie
    - Set-Cookie
    - X-Api-Key
    - X-Auth-Token
  query_params:
    - api_key
    - apikey
    - key
    - token
    - access_token
  body_fields:
    - password
    - secret
    - token
    - access_token
    - api_key
    - apikey
  replacement: "***REDACTED***"

output:
  dir: "./output"

server:
  host: "127.0.0.1"
  port: 3000
  cors_origin: "*"

log:
  level: "info"
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	cfgPath string
	debug   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "shoot",
		Short:         "Turn API specs into apps through conversation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.cfgPath, "config", "", "config file path")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug output")

	root.AddCommand(newInitCmd())
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newListCmd(opts))
	root.AddCommand(newShowCmd(opts))
	root.AddCommand(newDeleteCmd(opts))
	root.AddCommand(newGenerateCmd(opts))
	root.AddCommand(newExportCmd(opts))
	root.AddCommand(newChatCmd(opts))

	return root
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize ~/.shoot directory and default config",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseDir, err := config.DefaultDir()
			if err != nil {
				return err
			}
			if err := os.MkdirAll(baseDir, 0o755); err != nil {
				return err
			}

			cfgFile := filepath.Join(baseDir, "config.yaml")
			if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
				if err := os.WriteFile(cfgFile, []byte(defaultConfigContent), 0o600); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "created", cfgFile)
			} else if err == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "exists", cfgFile)
			} else {
				return err
			}

			dbPath := filepath.Join(baseDir, "shoot.db")
			s, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return err
			}
			defer s.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "database ready", dbPath)
			fmt.Fprintln(cmd.OutOrStdout(), "set llm.api_key in", cfgFile, "or export OPENAI_API_KEY")
			return nil
		},
	}
}

// env is what every command that touches data needs.
type env struct {
	cfg     *config.Config
	store   *store.SQLStore
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func (e *env) completer() *llm.Client {
	return llm.New(e.cfg.LLM, e.logger, e.metrics)
}

func (e *env) Close() error {
	return e.store.Close()
}

func loadEnv(opts *rootOptions) (*env, error) {
	cfg, err := config.Load(opts.cfgPath)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Log.Level)
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, store: st, logger: logger, metrics: metrics.New()}, nil
}

func openStore(cfg *config.Config) (*store.SQLStore, error) {
	dsn, err := cfg.DatabaseDSN()
	if err != nil {
		return nil, err
	}
	if cfg.Database.Driver == "postgres" {
		return store.NewPostgresStore(dsn)
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}
	return store.NewSQLiteStore(dsn)
}

func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}
