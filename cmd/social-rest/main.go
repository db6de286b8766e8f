package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/goliatone/go-print"

	"github.com/mikempala/social-rest/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	lgr := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if cfg.Debug {
		redacted := *cfg
		redacted.Secret = "***"
		redacted.OAuthStateKey = "***"
		redacted.SendGridAPIKey = "***"
		redacted.Twitter.ClientSecret = "***"
		fmt.Println(print.MaybePrettyJSON(redacted))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := NewApp(cfg, lgr)

	if err := WithPersistence(ctx, app); err != nil {
		return err
	}
	if err := WithServices(ctx, app); err != nil {
		return err
	}
	if err := WithHTTPServer(ctx, app); err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		lgr.Info("listening", "addr", cfg.Addr())
		errc <- app.srv.Listen(cfg.Addr())
	}()

	select {
	case err := <-errc:
		_ = app.Shutdown(context.Background())
		return err
	case <-ctx.Done():
	}

	lgr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
