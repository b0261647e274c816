package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klipach/fixturebot"
	"github.com/klipach/fixturebot/config"
	"github.com/klipach/fixturebot/log"
	"github.com/klipach/fixturebot/logger"
	"github.com/klipach/fixturebot/telegram"
)

// long polling requests are held open for POLL_TIMEOUT
const pollSlack = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fixturebot: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	lg, closeLogger, err := logger.New(ctx, "fixturebot", cfg.LogLevel())
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer closeLogger()
	ctx = log.WithLogger(ctx, lg)

	if err := telegram.SetErrorLogger(lg); err != nil {
		return err
	}

	tg, err := telegram.New(cfg.TelegramToken,
		telegram.WithEndpoint(cfg.TelegramEndpoint),
		telegram.WithHTTPClient(&http.Client{Timeout: cfg.PollTimeout + pollSlack}),
		telegram.WithSendRate(cfg.SendRate),
	)
	if err != nil {
		return fmt.Errorf("connect to telegram: %w", err)
	}
	lg.Info(tg.Username() + " started")

	d, err := fixturebot.NewFromConfig(cfg, tg)
	if err != nil {
		return err
	}

	if err := tg.Run(ctx, cfg.PollTimeout, cfg.MaxConcurrent, d.Handle); err != nil {
		return err
	}
	lg.Info("stopped", slog.Bool("signalled", ctx.Err() != nil))
	return nil
}
