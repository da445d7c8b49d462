// Package webhook delivers outbound events to the configured endpoint with
// bounded linear-backoff retry.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/metrics"
)

const (
	maxAttempts = 3
	userAgent   = "LeadCollect-CartRecovery/1.0"

	headerEventType = "X-LeadCollect-Event"
)

// Endpoint is one resolved delivery target. Per-channel settings produce a
// different Endpoint per event; the zero value is an unreachable target.
type Endpoint struct {
	URL     string
	Secret  string
	Enabled bool
}

func (e Endpoint) reachable() bool {
	return e.Enabled && e.URL != ""
}

// url appends the shared secret as the final path segment.
func (e Endpoint) url() string {
	base := strings.TrimRight(e.URL, "/")
	if e.Secret == "" {
		return base
	}
	return base + "/" + e.Secret
}

// Result is the terminal outcome of one delivery.
type Result struct {
	Status   enums.DeliveryStatus
	Attempts int
	// LastStatusCode is the HTTP status of the final attempt, 0 when the
	// attempt never produced a response.
	LastStatusCode int
}

// Deliverer posts events to the configured endpoint. It never mutates cart
// or order state.
type Deliverer struct {
	cfg     config.WebhookConfig
	client  httpDoer
	logg    *logger.Logger
	metrics *metrics.DeliveryMetrics
	sleep   func(context.Context, time.Duration) error
	now     func() time.Time
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Option customizes a Deliverer, used by tests to pin time and sleep.
type Option func(*Deliverer)

func WithHTTPClient(client httpDoer) Option {
	return func(d *Deliverer) { d.client = client }
}

func WithSleep(sleep func(context.Context, time.Duration) error) Option {
	return func(d *Deliverer) { d.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(d *Deliverer) { d.now = now }
}

func New(cfg config.WebhookConfig, logg *logger.Logger, deliveryMetrics *metrics.DeliveryMetrics, opts ...Option) *Deliverer {
	d := &Deliverer{
		cfg:     cfg,
		logg:    logg,
		metrics: deliveryMetrics,
		sleep:   sleepContext,
		now:     time.Now,
	}
	d.client = &http.Client{
		Timeout: cfg.RequestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: cfg.ConnectTimeout}).DialContext,
		},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Enabled reports whether deliveries to the configured endpoint would leave
// the process at all.
func (d *Deliverer) Enabled() bool {
	return d.defaultEndpoint().reachable()
}

func (d *Deliverer) defaultEndpoint() Endpoint {
	return Endpoint{URL: d.cfg.URL, Secret: d.cfg.Secret, Enabled: d.cfg.Enabled}
}

// Deliver posts one event to the statically configured endpoint.
func (d *Deliverer) Deliver(ctx context.Context, event Event) (Result, error) {
	return d.DeliverTo(ctx, event, d.defaultEndpoint())
}

// DeliverTo posts one event to the given endpoint, retrying up to maxAttempts
// with linear backoff. A disabled or unconfigured endpoint short-circuits
// with NOT_ENABLED and zero network calls. The returned error is nil when
// the event was delivered.
func (d *Deliverer) DeliverTo(ctx context.Context, event Event, endpoint Endpoint) (Result, error) {
	if !endpoint.reachable() {
		d.logg.Debug(d.logg.WithEventType(ctx, string(event.Type)), "webhook delivery skipped, endpoint not enabled")
		return Result{Status: enums.DeliveryPending}, apperrors.New(apperrors.CodeNotEnabled, "webhook endpoint not enabled")
	}

	body, err := json.Marshal(event.Payload)
	if err != nil {
		return Result{Status: enums.DeliveryFailed}, apperrors.Wrap(apperrors.CodeInternal, err, "encoding webhook payload")
	}

	ctx = d.logg.WithEventType(ctx, string(event.Type))
	started := d.now()
	result := Result{Status: enums.DeliveryPending}

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		result.Status = enums.DeliverySending
		result.Attempts = attempt
		d.metrics.IncAttempt(string(event.Type))

		statusCode, attemptErr := d.post(ctx, body, event.Type, endpoint)
		result.LastStatusCode = statusCode

		if attemptErr == nil {
			result.Status = enums.DeliveryDelivered
			d.metrics.IncOutcome(string(event.Type), "delivered")
			d.metrics.ObserveDuration(string(event.Type), d.now().Sub(started))
			d.logg.Info(d.logg.WithField(ctx, "attempts", attempt), "webhook delivered")
			return result, nil
		}

		d.logg.Warn(d.logg.WithFields(ctx, map[string]any{
			"attempt": attempt,
			"status":  statusCode,
			"error":   attemptErr.Error(),
		}), "webhook attempt failed")

		if attempt == maxAttempts {
			break
		}
		result.Status = enums.DeliveryPending
		if err := d.sleep(ctx, d.backoff(attempt)); err != nil {
			break
		}
	}

	result.Status = enums.DeliveryFailed
	d.metrics.IncOutcome(string(event.Type), "failed")
	d.metrics.ObserveDuration(string(event.Type), d.now().Sub(started))
	d.logg.Error(ctx, "webhook delivery exhausted retries", fmt.Errorf("gave up after %d attempts", result.Attempts))
	return result, apperrors.New(apperrors.CodeDelivery, "webhook delivery failed after retries")
}

func (d *Deliverer) post(ctx context.Context, body []byte, eventType enums.WebhookEventType, endpoint Endpoint) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.url(), bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(headerEventType, string(eventType))

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}
	return resp.StatusCode, nil
}

// backoff is linear in the attempt number. Monotonically non-decreasing, no
// jitter.
func (d *Deliverer) backoff(attempt int) time.Duration {
	base := d.cfg.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	return time.Duration(attempt) * base
}

func sleepContext(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
