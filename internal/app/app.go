package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"shiftdesk/internal/sweeper"
	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/config"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/models"
	"shiftdesk/pkg/store"
	"shiftdesk/pkg/utils"
)

// App encapsulates the server components and lifecycle.
type App struct {
	cfg     *config.Config
	addr    string
	dbPath  string
	version string

	st  *store.Store
	srv *http.Server

	sweepCancel context.CancelFunc
}

// New validates the config and opens resources that do not need a running
// context. Call Run to start the bot webhook, sweeper and HTTP server and
// block until shutdown.
func New(cfg *config.Config, addr, dbPath, version string) (*App, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", dbPath, err)
	}
	if err := seed(st); err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("failed to seed store: %w", err)
	}

	return &App{cfg: cfg, addr: addr, dbPath: dbPath, version: version, st: st}, nil
}

// Run starts the sweeper and the HTTP server and blocks until ctx is
// canceled or a fatal server error occurs.
func (a *App) Run(ctx context.Context) error {
	handler, err := a.buildHandler(ctx)
	if err != nil {
		return err
	}

	cancel, err := sweeper.Start(ctx, a.st, a.cfg.Sweep.Enabled, a.cfg.Sweep.Cron)
	if err != nil {
		return err
	}
	a.sweepCancel = cancel

	errCh := a.startHTTP(handler)

	select {
	case <-ctx.Done():
		a.shutdown()
		return nil
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			a.shutdown()
			return err
		}
		return nil
	}
}

func (a *App) shutdown() {
	logger.Info("server_shutting_down")
	if a.sweepCancel != nil {
		a.sweepCancel()
	}
	if a.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := a.srv.Shutdown(ctx); err != nil {
			logger.Warn("http_shutdown_error", zap.Error(err))
		}
	}
	if a.st != nil {
		if err := a.st.Close(); err != nil {
			logger.Warn("store_close_error", zap.Error(err))
		}
	}
}

// validateConfig fails fast on settings that would only break at request
// time.
func validateConfig(cfg *config.Config) error {
	if cfg.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (set SHIFTDESK_JWT_SECRET or auth.jwt_secret)")
	}
	if cfg.Bot.WebhookURL != "" && cfg.Bot.Token == "" {
		return fmt.Errorf("bot.webhook_url is set but bot.token is empty")
	}
	if cfg.Auth.TokenTTL != "" {
		if _, err := time.ParseDuration(cfg.Auth.TokenTTL); err != nil {
			return fmt.Errorf("invalid auth.token_ttl %q: %w", cfg.Auth.TokenTTL, err)
		}
	}
	return nil
}

// seed creates the default admin account and settings on first run so a
// fresh install is usable immediately.
func seed(st *store.Store) error {
	users, err := st.ListUsers()
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}

	hash, err := auth.HashPassword("admin123")
	if err != nil {
		return err
	}
	if err := st.SaveUser(defaultAdmin(hash)); err != nil {
		return err
	}

	settings, err := st.GetSettings()
	if err != nil {
		return err
	}
	if err := st.SaveSettings(settings); err != nil {
		return err
	}

	logger.Warn("default_admin_created", zap.String("username", "admin"))
	return nil
}

func defaultAdmin(passwordHash string) models.User {
	return models.User{
		ID:       utils.GenID(),
		Username: "admin",
		Password: passwordHash,
		Role:     models.RoleAdmin,
		Name:     "Administrator",
	}
}
