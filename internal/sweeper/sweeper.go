// Package sweeper qualifies idle carts as abandoned. It replaces an
// in-process subscriber: the commerce engine is polled on a cadence and
// fresh snapshots are routed as abandonment events.
package sweeper

import (
	"context"
	"time"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

const jobName = "cart-sweep"

// Engine lists idle carts from the commerce engine.
type Engine interface {
	ListIdleCarts(ctx context.Context, idleSince time.Time, limit int) ([]commerce.RawCart, error)
}

// Normalizer decodes one raw payload.
type Normalizer interface {
	Normalize(ctx context.Context, raw []byte) (*types.CanonicalCart, error)
}

// Store snapshots canonical carts.
type Store interface {
	Save(ctx context.Context, cart *types.CanonicalCart) (bool, error)
}

// Router receives lifecycle events for qualified carts.
type Router interface {
	OnCartAbandoned(ctx context.Context, cart *types.CanonicalCart)
	OnAbandonedCartUpdated(ctx context.Context, cart *types.CanonicalCart)
}

// Job is one sweep pass, run under the cron service's lock.
type Job struct {
	engine     Engine
	normalizer Normalizer
	store      Store
	router     Router
	cfg        config.SweepConfig
	logg       *logger.Logger
	now        func() time.Time
}

func NewJob(engine Engine, normalizer Normalizer, store Store, router Router, cfg config.SweepConfig, logg *logger.Logger) *Job {
	return &Job{
		engine:     engine,
		normalizer: normalizer,
		store:      store,
		router:     router,
		cfg:        cfg,
		logg:       logg,
		now:        time.Now,
	}
}

func (j *Job) Name() string {
	return jobName
}

// Run lists idle carts, normalizes their payloads and snapshots the ones
// that qualify. New snapshots route an abandonment event; repeat passes over
// the same cart are a routed no-op. Undecodable payloads are skipped within
// the pass, never retried; a later pass sees them again only if the payload
// changed.
func (j *Job) Run(ctx context.Context) error {
	idleSince := j.now().Add(-j.cfg.MinIdleAge)
	rawCarts, err := j.engine.ListIdleCarts(ctx, idleSince, j.cfg.BatchSize)
	if err != nil {
		return err
	}

	var recorded, skipped int
	for _, raw := range rawCarts {
		cartCtx := j.logg.WithCartToken(ctx, raw.Token)

		cart, err := j.normalizer.Normalize(cartCtx, raw.Payload)
		if err != nil {
			skipped++
			continue
		}
		mergeRowIdentity(cart, raw)

		if !cart.Recoverable() {
			skipped++
			continue
		}

		created, err := j.store.Save(cartCtx, cart)
		if err != nil {
			j.logg.Error(cartCtx, "cart snapshot not stored", err)
			skipped++
			continue
		}
		recorded++

		if created {
			j.router.OnCartAbandoned(cartCtx, cart)
		} else {
			j.router.OnAbandonedCartUpdated(cartCtx, cart)
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"listed":   len(rawCarts),
		"recorded": recorded,
		"skipped":  skipped,
	})
	j.logg.Info(ctx, "sweep pass finished")
	return nil
}

// mergeRowIdentity backfills identifiers the engine stores in columns rather
// than in the serialized payload.
func mergeRowIdentity(cart *types.CanonicalCart, raw commerce.RawCart) {
	if cart.CartToken == "" {
		cart.CartToken = raw.Token
	}
	if cart.CustomerID == "" {
		cart.CustomerID = raw.CustomerID
	}
	if cart.SalesChannelID == "" {
		cart.SalesChannelID = raw.SalesChannelID
	}
}
