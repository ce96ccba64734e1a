// Package app wires the roster service and runs its servers.
package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/dispatch"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/metrics"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage"
)

// Deps is the process-wide context built once at startup and passed to
// every adapter.
type Deps struct {
	Store      storage.Store
	Channel    channel.Channel
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
	Localizer  render.Localizer
	Service    *domain.Service
	Publisher  *render.Publisher
	Dispatcher *dispatch.Dispatcher
}

// DepsConfig holds the inputs for NewDeps.
type DepsConfig struct {
	Store     storage.Store
	Channel   channel.Channel
	Logger    *zap.Logger
	Metrics   *metrics.Metrics
	Localizer render.Localizer
	Clock     func() time.Time
	NewID     func() (string, error)
	// CharactersURL is linked from "no eligible characters" replies.
	CharactersURL string
}

// NewDeps builds the domain service, publisher and dispatcher over the
// given store and channel.
func NewDeps(cfg DepsConfig) *Deps {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	service := domain.NewService(cfg.Store, clock, cfg.NewID)
	publisher := render.NewPublisher(cfg.Store, cfg.Channel, cfg.Localizer,
		render.WithClock(clock),
		render.WithLogger(logger.Named("render")),
		render.WithMetrics(cfg.Metrics),
	)
	dispatcher := dispatch.New(service, publisher, cfg.Localizer,
		dispatch.Config{CharactersURL: cfg.CharactersURL},
		logger.Named("dispatch"), cfg.Metrics)
	return &Deps{
		Store:      cfg.Store,
		Channel:    cfg.Channel,
		Logger:     logger,
		Metrics:    cfg.Metrics,
		Localizer:  cfg.Localizer,
		Service:    service,
		Publisher:  publisher,
		Dispatcher: dispatcher,
	}
}
