package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"checklater/internal/config"
	"checklater/internal/export"
	"checklater/internal/storage"
	"checklater/internal/store"
	"checklater/internal/suggest"
	"checklater/internal/telegram"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and seed the default categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			cats, err := store.NewCategoryStore(db, cfg.StoreTimeout).ListCategories(cmd.Context())
			if err != nil {
				return err
			}

			names := make([]string, len(cats))
			for i, c := range cats {
				names[i] = c.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "database ready (%s), categories: %s\n", cfg.DBDriver, strings.Join(names, ", "))
			return nil
		},
	}
}

func newClassifyCommand(opts *rootOptions) *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "classify [content]",
		Short: "Print the category the bot would assign to content",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			cls, err := loadClassifier(cfg)
			if err != nil {
				return err
			}

			m := cls.Explain(strings.Join(args, " "))
			if !explain {
				fmt.Fprintln(cmd.OutOrStdout(), m.Category)
				return nil
			}

			reason := m.Predicate
			if reason == "" {
				reason = "no rule matched"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s)\n", m.Category, reason)
			return nil
		},
	}

	cmd.Flags().BoolVar(&explain, "explain", false, "also print the predicate that decided")
	return cmd
}

func newWebhookCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook registration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set [url]",
		Short: "Register the webhook URL (default TELEGRAM_WEBHOOK_URL)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is required")
			}

			url := cfg.WebhookURL
			if len(args) == 1 {
				url = args[0]
			}
			if url == "" {
				return errors.New("no webhook URL given and TELEGRAM_WEBHOOK_URL is empty")
			}

			client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL)
			if err := client.SetWebhook(cmd.Context(), url, cfg.WebhookSecret); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "webhook set to %s\n", url)
			return nil
		},
	})

	var dropPending bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Remove the webhook registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			if cfg.TelegramToken == "" {
				return errors.New("TELEGRAM_BOT_TOKEN is required")
			}

			client := telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL)
			if err := client.DeleteWebhook(cmd.Context(), dropPending); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "webhook deleted")
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&dropPending, "drop-pending", false, "discard updates waiting for delivery")
	cmd.AddCommand(deleteCmd)

	return cmd
}

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		out            string
		category       string
		includeRetired bool
		upload         bool
		linkTTL        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved entries to an Excel workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			entries, err := store.NewEntryStore(db, cfg.StoreTimeout).List(cmd.Context(), store.ListFilter{
				Category:       category,
				IncludeRetired: includeRetired,
			})
			if err != nil {
				return err
			}

			if out == "" {
				out = "checklater-" + time.Now().Format("20060102") + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := export.Write(f, entries); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("close %s: %w", out, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "exported %d entries to %s\n", len(entries), out)
			if !upload {
				return nil
			}
			return uploadExport(cmd, cfg, out, linkTTL)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default checklater-YYYYMMDD.xlsx)")
	cmd.Flags().StringVar(&category, "category", "", "only export this category")
	cmd.Flags().BoolVar(&includeRetired, "include-retired", false, "include retired entries")
	cmd.Flags().BoolVar(&upload, "upload", false, "archive the workbook in the configured S3 bucket")
	cmd.Flags().DurationVar(&linkTTL, "link-ttl", 24*time.Hour, "validity of the printed download link")
	return cmd
}

// uploadExport copies the workbook at path to S3 and prints a presigned
// download link.
func uploadExport(cmd *cobra.Command, cfg *config.Config, path string, linkTTL time.Duration) error {
	client, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		return err
	}
	if client == nil {
		return errors.New("S3_ENDPOINT, S3_ACCESS_KEY, S3_SECRET_KEY and S3_BUCKET must be set to upload")
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	key := storage.ExportKey(path, time.Now())
	if err := client.Upload(cmd.Context(), key, storage.XLSXContentType, f, info.Size()); err != nil {
		return err
	}
	slog.Info("export archived", "bucket", client.Bucket(), "key", key)

	link, err := client.PresignedURL(cmd.Context(), key, linkTTL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "uploaded to s3://%s/%s\n%s\n", client.Bucket(), key, link)
	return nil
}

func newSuggestCommand(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "suggest <category>",
		Short: "Print random entries the bot would suggest for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.SuggestionLimit
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			s, err := suggest.New(store.NewEntryStore(db, cfg.StoreTimeout), limit).Suggest(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if s.Empty() {
				fmt.Fprintf(cmd.OutOrStdout(), "no entries in %s\n", s.Category)
				return nil
			}
			for _, e := range s.Entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", e.ID, e.CreatedAt.UTC().Format(time.DateOnly), e.Content)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of entries (default SUGGESTION_LIMIT)")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}

			cfg, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}

			db, err := openDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			e, err := store.NewEntryStore(db, cfg.StoreTimeout).FindByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			if e == nil {
				return fmt.Errorf("entry %d not found", id)
			}

			owner := "-"
			if e.OwnerID != nil {
				owner = strconv.FormatInt(*e.OwnerID, 10)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:       %d\n", e.ID)
			fmt.Fprintf(w, "Category: %s\n", e.Category)
			fmt.Fprintf(w, "Owner:    %s\n", owner)
			fmt.Fprintf(w, "Created:  %s\n", e.CreatedAt.UTC().Format(time.RFC3339))
			fmt.Fprintf(w, "Retired:  %t\n", e.Retired)
			fmt.Fprintf(w, "Content:  %s\n", e.Content)
			return nil
		},
	}
}
