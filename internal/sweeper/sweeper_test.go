package sweeper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leadcollect/cart-recovery/internal/commerce"
	"github.com/leadcollect/cart-recovery/internal/normalizer"
	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("error"), Output: bytes.NewBuffer(nil)})
}

type fakeEngine struct {
	carts     []commerce.RawCart
	err       error
	idleSince time.Time
	limit     int
}

func (f *fakeEngine) ListIdleCarts(_ context.Context, idleSince time.Time, limit int) ([]commerce.RawCart, error) {
	f.idleSince = idleSince
	f.limit = limit
	return f.carts, f.err
}

type fakeStore struct {
	existing map[string]bool
	saved    []string
	err      error
}

func (f *fakeStore) Save(_ context.Context, cart *types.CanonicalCart) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	f.saved = append(f.saved, cart.CartToken)
	if f.existing[cart.CartToken] {
		return false, nil
	}
	if f.existing == nil {
		f.existing = map[string]bool{}
	}
	f.existing[cart.CartToken] = true
	return true, nil
}

type fakeRouter struct {
	abandoned []string
	updated   []string
}

func (f *fakeRouter) OnCartAbandoned(_ context.Context, cart *types.CanonicalCart) {
	f.abandoned = append(f.abandoned, cart.CartToken)
}

func (f *fakeRouter) OnAbandonedCartUpdated(_ context.Context, cart *types.CanonicalCart) {
	f.updated = append(f.updated, cart.CartToken)
}

func rawCart(t *testing.T, token, customerID string, recoverable bool) commerce.RawCart {
	t.Helper()
	doc := map[string]any{
		"token":      token,
		"customerId": customerID,
		"lineItems": []any{
			map[string]any{"type": "product", "referencedId": "P1", "quantity": 1},
		},
	}
	if recoverable {
		doc["customer"] = map[string]any{
			"firstName":            "Erika",
			"activeBillingAddress": map[string]any{"street": "Hauptstr. 1"},
		}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	return commerce.RawCart{Token: token, CustomerID: customerID, Payload: payload}
}

func newJob(engine *fakeEngine, store *fakeStore, router *fakeRouter) *Job {
	logg := testLogger()
	cfg := config.SweepConfig{MinIdleAge: time.Hour, BatchSize: 100}
	return NewJob(engine, normalizer.New(enums.SchemaModern, logg), store, router, cfg, logg)
}

func TestRunRoutesNewSnapshotsOnly(t *testing.T) {
	engine := &fakeEngine{carts: []commerce.RawCart{
		rawCart(t, "tok-new", "cust-1", true),
		rawCart(t, "tok-known", "cust-2", true),
	}}
	store := &fakeStore{existing: map[string]bool{"tok-known": true}}
	router := &fakeRouter{}

	job := newJob(engine, store, router)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(router.abandoned) != 1 || router.abandoned[0] != "tok-new" {
		t.Errorf("abandoned = %v", router.abandoned)
	}
	if len(router.updated) != 1 || router.updated[0] != "tok-known" {
		t.Errorf("updated = %v", router.updated)
	}
}

func TestRunUsesConfiguredWindow(t *testing.T) {
	engine := &fakeEngine{}
	job := newJob(engine, &fakeStore{}, &fakeRouter{})
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !engine.idleSince.Equal(now.Add(-time.Hour)) {
		t.Errorf("idleSince = %s", engine.idleSince)
	}
	if engine.limit != 100 {
		t.Errorf("limit = %d", engine.limit)
	}
}

func TestRunSkipsUndecodableAndNonRecoverable(t *testing.T) {
	engine := &fakeEngine{carts: []commerce.RawCart{
		{Token: "tok-bad", Payload: []byte{0x01, 0xff}},
		rawCart(t, "tok-nostreet", "cust-2", false),
		rawCart(t, "tok-good", "cust-3", true),
	}}
	store := &fakeStore{}
	router := &fakeRouter{}

	job := newJob(engine, store, router)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(store.saved) != 1 || store.saved[0] != "tok-good" {
		t.Errorf("saved = %v", store.saved)
	}
	if len(router.abandoned) != 1 {
		t.Errorf("abandoned = %v", router.abandoned)
	}
}

func TestRunStoreFailureIsolatedPerCart(t *testing.T) {
	engine := &fakeEngine{carts: []commerce.RawCart{rawCart(t, "tok-1", "cust-1", true)}}
	store := &fakeStore{err: errors.New("db down")}
	router := &fakeRouter{}

	job := newJob(engine, store, router)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("a per-cart store failure must not fail the pass: %v", err)
	}
	if len(router.abandoned) != 0 {
		t.Errorf("unstored carts must not be routed, abandoned = %v", router.abandoned)
	}
}

func TestRunListFailureFailsJob(t *testing.T) {
	engine := &fakeEngine{err: errors.New("engine unreachable")}
	job := newJob(engine, &fakeStore{}, &fakeRouter{})
	if err := job.Run(context.Background()); err == nil {
		t.Fatalf("expected error when the engine listing fails")
	}
}

func TestRunBackfillsRowIdentity(t *testing.T) {
	doc := map[string]any{
		"lineItems": []any{
			map[string]any{"type": "product", "referencedId": "P1", "quantity": 1},
		},
		"customer": map[string]any{
			"firstName":            "Erika",
			"activeBillingAddress": map[string]any{"street": "Hauptstr. 1"},
		},
	}
	payload, _ := json.Marshal(doc)
	engine := &fakeEngine{carts: []commerce.RawCart{{
		Token:          "tok-row",
		CustomerID:     "cust-row",
		SalesChannelID: "channel-row",
		Payload:        payload,
	}}}
	store := &fakeStore{}
	router := &fakeRouter{}

	job := newJob(engine, store, router)
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(store.saved) != 1 || store.saved[0] != "tok-row" {
		t.Errorf("row identity not backfilled, saved = %v", store.saved)
	}
}
