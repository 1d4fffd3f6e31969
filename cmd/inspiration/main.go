package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"inspiration-batch/internal/config"
	"inspiration-batch/internal/httpclient"
	"inspiration-batch/internal/notify"
)

const userAgent = "inspiration-batch"

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "inspiration",
	Short: "Generate inspiration images from the prompt catalog",
	Long: `Generates one PNG per catalog prompt with Gemini and records the
results back into the catalog.

Only one generate or reconcile process may touch a catalog and its output
directory at a time.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
		logger = newLogger(cfg)
		return nil
	},
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.AddCommand(newGenerateCmd(), reconcileCmd)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
}

// newNotifier returns nil when Telegram is not configured or unreachable.
func newNotifier() *notify.Telegram {
	if !cfg.NotifyEnabled() {
		return nil
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  userAgent,
	})

	tg, err := notify.New(notify.Options{
		Token:      cfg.TelegramToken,
		ChatID:     cfg.TelegramChatID,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		logger.Warn("telegram notifier disabled", "err", err)
		return nil
	}
	return tg
}
