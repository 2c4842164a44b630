// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"checklater/internal/bot"
	"checklater/internal/cache"
	"checklater/internal/classifier"
	"checklater/internal/handlers"
	"checklater/internal/middleware"
	"checklater/internal/router"
	"checklater/internal/store"
	"checklater/internal/suggest"
	"checklater/internal/telegram"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	var registerWebhook bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, true)
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is required to serve")
			}

			slog.Info("configuration loaded",
				"env", cfg.Env,
				"addr", cfg.Addr(),
				"db_driver", cfg.DBDriver,
			)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := openDatabase(ctx, cfg)
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer db.Close()

			// Valkey is optional; without it categories are read from the
			// database and redelivered updates are not detected.
			var valkeyClient *redis.Client
			if cfg.ValkeyEnabled() {
				valkeyClient, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
				if err != nil {
					return fmt.Errorf("connect valkey: %w", err)
				}
				defer valkeyClient.Close()
			} else {
				slog.Warn("valkey not configured, caching and update de-duplication disabled")
			}

			cls, err := loadClassifier(cfg)
			if err != nil {
				return err
			}

			entryStore := store.NewEntryStore(db, cfg.StoreTimeout)
			categoryStore := store.NewCategoryStore(db, cfg.StoreTimeout)
			if err := checkCategories(ctx, cls, categoryStore); err != nil {
				return err
			}

			// Seeding may have added categories since the list was cached.
			categories := cache.NewCategoryCache(valkeyClient, categoryStore, cache.DefaultCategoryTTL)
			categories.Invalidate(ctx)

			engine := suggest.New(entryStore, cfg.SuggestionLimit)
			slog.Info("suggestions enabled", "limit", engine.Limit())

			client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL)
			dispatcher := bot.New(client, cls, entryStore, categories, engine)

			if registerWebhook {
				if cfg.WebhookURL == "" {
					return errors.New("TELEGRAM_WEBHOOK_URL is required with --register-webhook")
				}
				if err := client.SetWebhook(ctx, cfg.WebhookURL, cfg.WebhookSecret); err != nil {
					return fmt.Errorf("register webhook: %w", err)
				}
				slog.Info("webhook registered", "url", cfg.WebhookURL)
			}

			if cfg.WebhookSecret == "" {
				slog.Warn("TELEGRAM_WEBHOOK_SECRET not set, webhook requests are not authenticated")
			}

			limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow, cfg.TrustProxy)
			defer limiter.Stop()

			r := router.New(
				handlers.NewHealth(db),
				handlers.NewWebhook(dispatcher, cache.NewUpdateGuard(valkeyClient, cache.DefaultUpdateTTL)),
				router.Options{WebhookSecret: cfg.WebhookSecret, Limiter: limiter},
			)

			srv := &http.Server{
				Addr:         cfg.Addr(),
				Handler:      r,
				ReadTimeout:  5 * time.Second,
				WriteTimeout: 30 * time.Second,
				IdleTimeout:  120 * time.Second,
			}

			serveErr := make(chan error, 1)
			go func() {
				slog.Info("server starting", "addr", cfg.Addr())
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
				close(serveErr)
			}()

			select {
			case err := <-serveErr:
				return fmt.Errorf("server failed: %w", err)
			case <-ctx.Done():
				slog.Info("shutdown signal received")
			}

			// Give active requests up to 30 seconds to complete.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server forced to shutdown: %w", err)
			}

			slog.Info("server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().BoolVar(&registerWebhook, "register-webhook", false, "call setWebhook with TELEGRAM_WEBHOOK_URL before serving")
	return cmd
}

// categoryChecker reports whether a category name is known to the store.
type categoryChecker interface {
	Exists(ctx context.Context, name string) (bool, error)
}

// checkCategories compares classifier tags with the categories table.
// Entries classified into an unknown tag are rejected by the store, so a
// missing rule category is logged and a missing fallback is an error.
func checkCategories(ctx context.Context, cls *classifier.Classifier, categories categoryChecker) error {
	fallback := cls.Fallback()
	for _, name := range cls.Categories() {
		ok, err := categories.Exists(ctx, name)
		if err != nil {
			slog.Warn("could not verify classifier category", "category", name, "error", err)
			continue
		}
		if ok {
			continue
		}
		if name == fallback {
			return fmt.Errorf("classifier fallback %q is not a known category", name)
		}
		slog.Warn("classifier category is not a known category", "category", name)
	}
	return nil
}
