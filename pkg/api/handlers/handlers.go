package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"

	"shiftdesk/pkg/auth"
	"shiftdesk/pkg/notify"
	"shiftdesk/pkg/store"
)

// Handlers carries the injected collaborators for all API endpoints.
type Handlers struct {
	store    *store.Store
	notifier *notify.Notifier
	secret   string
	ttl      time.Duration
	limiter  *auth.LimiterPool
	validate *validator.Validate
}

func New(st *store.Store, n *notify.Notifier, secret string, ttl time.Duration, limiter *auth.LimiterPool) *Handlers {
	return &Handlers{
		store:    st,
		notifier: n,
		secret:   secret,
		ttl:      ttl,
		limiter:  limiter,
		validate: validator.New(),
	}
}
