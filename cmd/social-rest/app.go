package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/uptrace/bun"

	auth "github.com/mikempala/social-rest"
	"github.com/mikempala/social-rest/config"
	"github.com/mikempala/social-rest/mailer"
	"github.com/mikempala/social-rest/repository"
	"github.com/mikempala/social-rest/social"
	"github.com/mikempala/social-rest/social/providers/twitter"
	"github.com/mikempala/social-rest/storage"
)

type App struct {
	config    *config.Config
	logger    *auth.SlogLogger
	bunDB     *bun.DB
	repo      repository.Manager
	accounts  *auth.AccountManager
	auth      *auth.Authenticator
	delegated *social.DelegatedLogin
	presenter *auth.ErrorPresenter
	srv       *fiber.App
}

func NewApp(cfg *config.Config, l *slog.Logger) *App {
	return &App{
		config: cfg,
		logger: auth.NewSlogLogger(l),
	}
}

func (a *App) GetLogger(name string) auth.Logger {
	return a.logger.With("pkg", name)
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := storage.Config{
		Driver: app.config.Database.Driver,
		DSN:    app.config.Database.URL,
		Debug:  app.config.Database.Debug,
	}

	db, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}

	if err := storage.Migrate(ctx, db, cfg.Driver); err != nil {
		_ = db.Close()
		return err
	}

	app.bunDB = db
	app.repo = repository.NewManager(db)
	return app.repo.Validate()
}

func WithServices(ctx context.Context, app *App) error {
	cfg := app.config

	composer, err := auth.NewConfirmationComposer(cfg.ConfirmBaseURL)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(app)
	if err != nil {
		return err
	}

	users := app.repo.Users()

	app.accounts = auth.NewAccountManager(users, notifier, composer,
		auth.WithLinkedAccounts(app.repo.SocialAccounts()),
		auth.WithAccountLogger(app.GetLogger("accounts")),
	)

	tokens := auth.NewTokenService([]byte(cfg.Secret), cfg.TokenTTL,
		auth.WithTokenLogger(app.GetLogger("tokens")),
	)

	app.auth = auth.NewAuthenticator(users, tokens,
		auth.WithAuthenticatorLogger(app.GetLogger("auth")),
	)

	opts := []social.DelegatedLoginOption{
		social.WithLogger(app.GetLogger("social")),
		social.WithTransactor(app.repo),
	}

	if cfg.Twitter.Enabled() {
		states, err := social.NewStateManagerFromSecret([]byte(cfg.OAuthStateKey))
		if err != nil {
			return fmt.Errorf("oauth state: %w", err)
		}
		provider := twitter.New(twitter.Config{
			ClientID:     cfg.Twitter.ClientID,
			ClientSecret: cfg.Twitter.ClientSecret,
			CallbackURL:  cfg.Twitter.CallbackURL,
			Scopes:       cfg.Twitter.Scopes,
		})
		opts = append(opts, social.WithProvider(
			social.NewOAuth2IdentityProvider(provider, states, social.WithIdentityLogger(app.GetLogger("twitter"))),
		))
	} else {
		app.logger.Warn("twitter login disabled, TWITTER_CLIENT_ID not set")
	}

	app.delegated = social.NewDelegatedLogin(app.repo.SocialAccounts(), users, app.auth, opts...)
	app.presenter = auth.NewErrorPresenter(cfg.ExposeErrorDetails, app.GetLogger("http"))

	return nil
}

func newNotifier(app *App) (auth.Notifier, error) {
	cfg := app.config
	if cfg.SendGridAPIKey == "" {
		app.logger.Warn("SENDGRID_API_KEY not set, confirmation emails are only logged")
		return mailer.LogNotifier{Logger: app.GetLogger("mailer")}, nil
	}

	return mailer.NewSendGrid(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName,
		mailer.WithLogger(app.GetLogger("mailer")),
		mailer.WithCategory("account-confirmation"),
	)
}

func WithHTTPServer(ctx context.Context, app *App) error {
	cfg := app.config

	srv := fiber.New(fiber.Config{
		AppName:           "social-rest",
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		ErrorHandler:      app.presenter.Handler(),
		EnablePrintRoutes: cfg.Debug,
	})

	srv.Use(recover.New())
	srv.Use(logger.New())

	readiness := storage.NewReadiness(storage.DBChecker{DB: app.bunDB})

	srv.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}).Name("health")

	srv.Get("/ready", func(c *fiber.Ctx) error {
		if err := readiness.Ready(c.UserContext()); err != nil {
			app.logger.Error("readiness check failed", "error", err)
			var checkErr *storage.CheckError
			name := "unknown"
			if errors.As(err, &checkErr) {
				name = checkErr.Name
			}
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "unavailable",
				"failed": name,
			})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	}).Name("ready")

	controllerOpts := []auth.ControllerOption{
		auth.WithControllerAccounts(app.accounts),
		auth.WithControllerAuth(app.auth),
		auth.WithControllerPresenter(app.presenter),
		auth.WithControllerLogger(app.GetLogger("controller")),
		auth.WithControllerDebug(cfg.Debug),
	}

	auth.RegisterAccountRoutes(srv.Group("/account"), controllerOpts...)

	authGroup := srv.Group("/auth")
	auth.RegisterAuthRoutes(authGroup, controllerOpts...)

	social.NewHTTPController(app.delegated, social.HTTPConfig{
		FailureRedirect: cfg.OAuthFailureRedirect,
		Logger:          app.GetLogger("social"),
	}).RegisterRoutes(authGroup)

	app.srv = srv
	return nil
}

// Shutdown drains requests, then pending emails, then closes the database
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.srv != nil {
		if err := a.srv.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}

	if a.accounts != nil {
		done := make(chan struct{})
		go func() {
			a.accounts.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("pending emails: %w", ctx.Err()))
		}
	}

	if a.bunDB != nil {
		if err := a.bunDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
