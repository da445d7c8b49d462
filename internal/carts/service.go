// Package carts stores snapshots of abandoned carts and serves the polling
// API's view of them.
package carts

import (
	"context"
	"encoding/json"
	"time"

	"github.com/leadcollect/cart-recovery/pkg/db/models"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
	"github.com/leadcollect/cart-recovery/pkg/logger"
	"github.com/leadcollect/cart-recovery/pkg/types"
)

const (
	// MaxListLimit caps the polling API page size.
	MaxListLimit = 500

	DefaultListLimit = 100
	DefaultMinAge    = time.Hour
)

type Service struct {
	repo Repo
	logg *logger.Logger
	now  func() time.Time
}

func NewService(repo Repo, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg, now: time.Now}
}

// Save snapshots a canonical cart, reporting whether it is new. The caller
// decides whether to route a cart_abandoned event off that flag.
func (s *Service) Save(ctx context.Context, cart *types.CanonicalCart) (bool, error) {
	row, err := toModel(cart)
	if err != nil {
		return false, err
	}
	created, err := s.repo.Upsert(ctx, row)
	if err != nil {
		return false, err
	}
	if created {
		s.logg.Info(s.logg.WithCartToken(ctx, cart.CartToken), "abandoned cart recorded")
	}
	return created, nil
}

// FindByToken loads one snapshot as a canonical cart.
func (s *Service) FindByToken(ctx context.Context, token string) (*types.CanonicalCart, error) {
	row, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	return fromModel(row)
}

// ListRecoverable returns carts idle for at least minAge that still qualify
// for outreach. The limit is clamped to MaxListLimit.
func (s *Service) ListRecoverable(ctx context.Context, minAge time.Duration, limit int) ([]types.CanonicalCart, error) {
	if minAge <= 0 {
		minAge = DefaultMinAge
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.repo.ListIdle(ctx, s.now().Add(-minAge), limit)
	if err != nil {
		return nil, err
	}

	carts := make([]types.CanonicalCart, 0, len(rows))
	for i := range rows {
		cart, err := fromModel(&rows[i])
		if err != nil {
			s.logg.Warn(s.logg.WithCartToken(ctx, rows[i].CartToken), "skipping snapshot with unreadable payload")
			continue
		}
		if !cart.Recoverable() {
			continue
		}
		carts = append(carts, *cart)
	}
	return carts, nil
}

// DeleteByCustomer clears now-stale snapshots once the customer ordered.
func (s *Service) DeleteByCustomer(ctx context.Context, customerID string) error {
	removed, err := s.repo.DeleteByCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if removed > 0 {
		ctx = s.logg.WithCustomerID(ctx, customerID)
		s.logg.Info(s.logg.WithField(ctx, "removed", removed), "stale abandoned carts cleared")
	}
	return nil
}

// TouchByToken refreshes updated_at when a restore link is followed.
func (s *Service) TouchByToken(ctx context.Context, token string) error {
	return s.repo.TouchByToken(ctx, token, s.now())
}

func toModel(cart *types.CanonicalCart) (*models.AbandonedCart, error) {
	items, err := json.Marshal(cart.LineItems)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding line items")
	}
	var customer json.RawMessage
	if cart.Customer != nil {
		customer, err = json.Marshal(cart.Customer)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "encoding customer")
		}
	}
	row := &models.AbandonedCart{
		CartToken:     cart.CartToken,
		CustomerID:    cart.CustomerID,
		TotalPrice:    cart.TotalPrice,
		Currency:      cart.Currency,
		LineItems:     items,
		Customer:      customer,
		LineItemCount: len(cart.LineItems),
	}
	if cart.SalesChannelID != "" {
		channelID := cart.SalesChannelID
		row.SalesChannelID = &channelID
	}
	return row, nil
}

func fromModel(row *models.AbandonedCart) (*types.CanonicalCart, error) {
	cart := &types.CanonicalCart{
		CartToken:  row.CartToken,
		CustomerID: row.CustomerID,
		TotalPrice: row.TotalPrice,
		Currency:   row.Currency,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.SalesChannelID != nil {
		cart.SalesChannelID = *row.SalesChannelID
	}
	if len(row.LineItems) > 0 {
		if err := json.Unmarshal(row.LineItems, &cart.LineItems); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "decoding line items")
		}
	}
	if len(row.Customer) > 0 {
		cart.Customer = &types.CartCustomer{}
		if err := json.Unmarshal(row.Customer, cart.Customer); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeInternal, err, "decoding customer")
		}
	}
	return cart, nil
}
