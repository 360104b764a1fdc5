package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"diarybot/internal/adapters/builder"
	"diarybot/internal/adapters/docker"
	adminhttp "diarybot/internal/adapters/http"
	"diarybot/internal/adapters/storage"
	"diarybot/internal/adapters/telegram"
	"diarybot/internal/bot"
	"diarybot/internal/config"
	"diarybot/internal/logging"
	"diarybot/internal/scheduler"
)

const version = "2.0.0"

var (
	cfgPath string
	verbose bool
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "diarybot",
	Short: "Telegram diary planner bot",
	Long: `diarybot is a personal diary planner for Telegram: weekly plans per day,
long-horizon goals, morning focus messages, timed reminders and a guided
evening review. The deploy subcommands build and ship the bot's own
container image.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runBot,
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if cfg.Telegram.Token == "" {
		return errors.New("telegram token is not configured (set TELEGRAM_BOT_TOKEN)")
	}

	store, err := storage.New(cfg.Storage.Dir)
	if err != nil {
		return err
	}
	tg, err := telegram.NewAdapter(cfg.Telegram.Token, cfg.Telegram.PollTimeout, logger)
	if err != nil {
		return err
	}
	engine := bot.New(store, tg, logger)
	sched := scheduler.New(store, tg, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("bot starting", zap.String("username", tg.Username()), zap.String("version", version))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return tg.Run(ctx, engine) })
	g.Go(func() error { return sched.Run(ctx) })

	if cfg.Admin.Enabled {
		containers, err := docker.NewAdapter(logger)
		if err != nil {
			return err
		}
		images, err := builder.NewAdapter(logger)
		if err != nil {
			return err
		}
		app := fiber.New(fiber.Config{DisableStartupMessage: true})
		adminhttp.NewDeployHandler(containers, images, cfg.Build.Recipe, logger).Router(app)

		g.Go(func() error {
			logger.Info("admin API listening", zap.String("addr", cfg.Admin.Listen))
			return app.Listen(cfg.Admin.Listen)
		})
		g.Go(func() error {
			<-ctx.Done()
			return app.Shutdown()
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("bot stopped")
	return nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to diarybot.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(buildCmd(), exportCmd(), layersCmd(), versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
