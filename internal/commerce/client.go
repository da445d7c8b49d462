// Package commerce is the HTTP client for the commerce engine's Admin API.
// The rest of the service consumes it through narrow consumer-side
// interfaces so tests can fake it.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/leadcollect/cart-recovery/pkg/config"
	"github.com/leadcollect/cart-recovery/pkg/enums"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
)

const (
	accessKeyHeader          = "sw-access-key"
	responseBodyReadLimit    = 1 << 20
	retryBaseDelay           = 100 * time.Millisecond
	schemaDistinguishingCol  = "payload"
	defaultIdleCartPageLimit = 100
)

var errAccessKeyRequired = errors.New("commerce access key is required")

// Client wraps the commerce engine Admin API endpoints used by the service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accessKey  string
	maxRetry   time.Duration
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds the commerce client from configuration.
func NewClient(cfg config.CommerceConfig, opts ...Option) (*Client, error) {
	key := strings.TrimSpace(cfg.AccessKey)
	if key == "" {
		return nil, errAccessKeyRequired
	}

	client := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		accessKey:  key,
		maxRetry:   cfg.MaxRetryWait,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// RawCart is one idle cart row as the engine stores it, payload undecoded.
type RawCart struct {
	Token          string    `json:"token"`
	CustomerID     string    `json:"customerId"`
	SalesChannelID string    `json:"salesChannelId"`
	Payload        []byte    `json:"payload"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Product is the subset of the engine's product entity the service needs.
type Product struct {
	ID   string `json:"id"`
	SKU  string `json:"productNumber"`
	Name string `json:"name"`
}

// Promotion mirrors the engine's promotion entity.
type Promotion struct {
	ID                    string `json:"id"`
	Name                  string `json:"name"`
	Code                  string `json:"code"`
	UseIndividualCodes    bool   `json:"useIndividualCodes"`
	IndividualCodePattern string `json:"individualCodePattern"`
}

// PromotionSpec describes the base promotion issued coupons hang off.
type PromotionSpec struct {
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	Value                 float64 `json:"value"`
	IndividualCodePattern string  `json:"individualCodePattern"`
	SalesChannelID        string  `json:"salesChannelId,omitempty"`
}

// CartItem is one product line added back during restore.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ListIdleCarts returns carts whose last activity predates idleSince.
func (c *Client) ListIdleCarts(ctx context.Context, idleSince time.Time, limit int) ([]RawCart, error) {
	if limit <= 0 {
		limit = defaultIdleCartPageLimit
	}
	query := url.Values{}
	query.Set("updated_before", idleSince.UTC().Format(time.RFC3339))
	query.Set("limit", strconv.Itoa(limit))

	var out struct {
		Carts []RawCart `json:"carts"`
	}
	if err := c.getJSON(ctx, "/api/carts/idle?"+query.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Carts, nil
}

// ProbeSchema detects the cart storage layout once at startup. The presence
// of the payload column marks the modern layout.
func (c *Client) ProbeSchema(ctx context.Context) (enums.SchemaVariant, error) {
	var out struct {
		Columns []string `json:"columns"`
	}
	if err := c.getJSON(ctx, "/api/carts/columns", &out); err != nil {
		return "", err
	}
	for _, column := range out.Columns {
		if column == schemaDistinguishingCol {
			return enums.SchemaModern, nil
		}
	}
	return enums.SchemaLegacy, nil
}

// FindProductBySKU resolves one product by its product number.
func (c *Client) FindProductBySKU(ctx context.Context, sku string) (*Product, error) {
	if strings.TrimSpace(sku) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "sku is required")
	}
	var out struct {
		Products []Product `json:"products"`
	}
	path := "/api/products?productNumber=" + url.QueryEscape(sku)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	if len(out.Products) == 0 {
		return nil, apperrors.New(apperrors.CodeLookup, fmt.Sprintf("no product with sku %q", sku))
	}
	return &out.Products[0], nil
}

// GetPromotion fetches one promotion by id.
func (c *Client) GetPromotion(ctx context.Context, promotionID string) (*Promotion, error) {
	if strings.TrimSpace(promotionID) == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "promotion id is required")
	}
	var out struct {
		Promotion *Promotion `json:"promotion"`
	}
	if err := c.getJSON(ctx, "/api/promotions/"+url.PathEscape(promotionID), &out); err != nil {
		return nil, err
	}
	if out.Promotion == nil {
		return nil, apperrors.New(apperrors.CodeLookup, fmt.Sprintf("promotion %q not found", promotionID))
	}
	return out.Promotion, nil
}

// EnsurePromotion returns the base promotion matching the spec's code
// pattern, creating it when absent.
func (c *Client) EnsurePromotion(ctx context.Context, spec PromotionSpec) (*Promotion, error) {
	var found struct {
		Promotions []Promotion `json:"promotions"`
	}
	path := "/api/promotions?individualCodePattern=" + url.QueryEscape(spec.IndividualCodePattern)
	if err := c.getJSON(ctx, path, &found); err != nil {
		return nil, err
	}
	if len(found.Promotions) > 0 {
		return &found.Promotions[0], nil
	}

	var created struct {
		Promotion *Promotion `json:"promotion"`
	}
	if err := c.postJSON(ctx, "/api/promotions", spec, &created); err != nil {
		return nil, err
	}
	if created.Promotion == nil {
		return nil, apperrors.New(apperrors.CodeDependency, "engine returned no promotion on create")
	}
	return created.Promotion, nil
}

// CreateIndividualCode attaches one individual code to a promotion and
// returns the engine's code id.
func (c *Client) CreateIndividualCode(ctx context.Context, promotionID, code string) (string, error) {
	body := map[string]string{"code": code}
	var out struct {
		ID string `json:"id"`
	}
	path := "/api/promotions/" + url.PathEscape(promotionID) + "/codes"
	if err := c.postJSON(ctx, path, body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", apperrors.New(apperrors.CodeDependency, "engine returned no code id")
	}
	return out.ID, nil
}

// AddCartItems pushes product lines into the shopper's live cart.
func (c *Client) AddCartItems(ctx context.Context, token string, items []CartItem) error {
	if len(items) == 0 {
		return nil
	}
	body := map[string]any{"items": items}
	return c.postJSON(ctx, "/api/carts/"+url.PathEscape(token)+"/items", body, nil)
}

// ApplyPromotionCode applies a promotion code to the shopper's live cart.
func (c *Client) ApplyPromotionCode(ctx context.Context, token, code string) error {
	body := map[string]string{"code": code}
	return c.postJSON(ctx, "/api/carts/"+url.PathEscape(token)+"/promotions", body, nil)
}

// getJSON performs an authenticated GET with fibonacci-backoff retry on
// transient failures.
func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	backoff := retry.WithMaxDuration(c.maxRetryWait(), retry.NewFibonacci(retryBaseDelay))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := c.doJSON(ctx, http.MethodGet, path, nil, out)
		if err != nil && apperrors.HasCode(err, apperrors.CodeDependency) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// postJSON performs an authenticated POST. Writes are not retried, the
// callers own their idempotency.
func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, err, "encoding request body")
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "building request")
	}
	req.Header.Set(accessKeyHeader, c.accessKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "commerce engine unreachable")
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "reading engine response")
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return apperrors.New(apperrors.CodeLookup, fmt.Sprintf("%s %s: not found", method, path))
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return apperrors.New(apperrors.CodeUnauthorized, "commerce engine rejected access key")
	case resp.StatusCode >= 500:
		return apperrors.New(apperrors.CodeDependency, fmt.Sprintf("%s %s: engine status %d", method, path, resp.StatusCode))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return apperrors.New(apperrors.CodeInternal, fmt.Sprintf("%s %s: unexpected status %d", method, path, resp.StatusCode))
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return apperrors.Wrap(apperrors.CodeDependency, err, "decoding engine response")
	}
	return nil
}

func (c *Client) maxRetryWait() time.Duration {
	if c.maxRetry <= 0 {
		return 5 * time.Second
	}
	return c.maxRetry
}
