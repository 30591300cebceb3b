package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"shiftdesk/pkg/api"
	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/bot"
	"shiftdesk/pkg/calendar"
	"shiftdesk/pkg/logger"
	"shiftdesk/pkg/notify"
)

// buildHandler assembles the notifier, bot and router. The Telegram
// transport is optional: without a token the webhook route is absent and
// notifications go to the nop sender.
func (a *App) buildHandler(_ context.Context) (http.Handler, error) {
	var sender notify.Sender = notify.NopSender{}
	var webhook http.Handler

	if a.cfg.Bot.Token != "" {
		tg, err := bot.NewTelegram(a.cfg.Bot.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to telegram: %w", err)
		}
		sender = tg

		cal := calendar.New(a.st)
		disp := bot.NewDispatcher(a.st, cal)
		webhook = bot.WebhookHandler(disp, tg)

		if a.cfg.Bot.WebhookURL != "" {
			if err := tg.SetWebhook(a.cfg.Bot.WebhookURL); err != nil {
				return nil, fmt.Errorf("failed to register telegram webhook: %w", err)
			}
			logger.Info("bot_webhook_registered", zap.String("url", a.cfg.Bot.WebhookURL))
		} else {
			logger.Warn("bot_webhook_url_empty", zap.String("hint", "set bot.webhook_url or SHIFTDESK_BOT_WEBHOOK_URL"))
		}
	} else {
		logger.Info("bot_disabled")
	}

	notifier := notify.New(a.st, sender)

	rps := a.cfg.Auth.LoginRPS
	burst := a.cfg.Auth.LoginBurst

	return api.NewRouter(api.Deps{
		Store:          a.st,
		Notifier:       notifier,
		JWTSecret:      a.cfg.Auth.JWTSecret,
		TokenTTL:       a.cfg.TokenTTLDuration(),
		LoginLimiter:   auth.NewLimiterPool(rps, burst),
		AllowedOrigins: append([]string{}, a.cfg.Security.CORS.AllowedOrigins...),
		BotWebhook:     webhook,
	}), nil
}

// startHTTP starts the HTTP server in a goroutine and returns a channel
// that will receive any server error.
func (a *App) startHTTP(handler http.Handler) <-chan error {
	a.srv = &http.Server{Addr: a.addr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		cert := a.cfg.Server.TLS.CertFile
		key := a.cfg.Server.TLS.KeyFile
		logger.Info("server_listening",
			zap.String("addr", a.addr),
			zap.String("db", a.dbPath),
			zap.String("version", a.version),
			zap.Bool("tls", cert != "" && key != ""),
		)
		if cert != "" && key != "" {
			errCh <- a.srv.ListenAndServeTLS(cert, key)
		} else {
			errCh <- a.srv.ListenAndServe()
		}
	}()
	return errCh
}
