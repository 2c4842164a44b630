// Package main is the entry point for the Check Later bot. The serve
// command runs the webhook server; the other commands operate on the same
// database and classifier from the shell.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"checklater/internal/classifier"
	"checklater/internal/config"
	"checklater/internal/database"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	configFile string
	verbose    bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "checklater",
		Short:         "Check Later: save links and text, get random reminders",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default $"+config.EnvConfigFile+")")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose logging")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newClassifyCommand(opts))
	cmd.AddCommand(newWebhookCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newSuggestCommand(opts))
	cmd.AddCommand(newShowCommand(opts))

	return cmd
}

// setup loads the configuration and installs the default logger. The server
// logs everything to stdout; the other commands keep stdout for their output
// and only log warnings to stderr unless --verbose is set.
func setup(cmd *cobra.Command, opts *rootOptions, server bool) (*config.Config, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	var w io.Writer = cmd.ErrOrStderr()
	level := slog.LevelWarn
	if server {
		w = cmd.OutOrStdout()
		level = slog.LevelInfo
		if cfg.IsDev() {
			level = slog.LevelDebug
		}
	}
	if opts.verbose {
		level = slog.LevelDebug
	}

	slog.SetDefault(newLogger(w, cfg, level))
	return cfg, nil
}

// newLogger outputs JSON in production and text elsewhere.
func newLogger(w io.Writer, cfg *config.Config, level slog.Level) *slog.Logger {
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Env == "production" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// openDatabase connects, migrates and seeds. The SQLite parent directory is
// created when missing.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	if cfg.DBDriver == database.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	return database.Open(ctx, cfg.DBDriver, cfg.DSN())
}

// loadClassifier returns the built-in classifier or one built from the
// configured rules file.
func loadClassifier(cfg *config.Config) (*classifier.Classifier, error) {
	if cfg.ClassifierRules == "" {
		return classifier.Default(), nil
	}
	data, err := os.ReadFile(cfg.ClassifierRules)
	if err != nil {
		return nil, fmt.Errorf("read classifier rules: %w", err)
	}
	c, err := classifier.LoadFile(data)
	if err != nil {
		return nil, fmt.Errorf("load classifier rules %s: %w", cfg.ClassifierRules, err)
	}
	slog.Info("classifier rules loaded", "path", cfg.ClassifierRules, "categories", c.Categories())
	return c, nil
}
