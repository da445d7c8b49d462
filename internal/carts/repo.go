package carts

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leadcollect/cart-recovery/internal/repo"
	"github.com/leadcollect/cart-recovery/pkg/db/models"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
)

// Repo persists abandoned-cart snapshots.
type Repo interface {
	// Upsert writes a snapshot keyed by cart token and reports whether the
	// row was newly created.
	Upsert(ctx context.Context, cart *models.AbandonedCart) (bool, error)
	FindByToken(ctx context.Context, token string) (*models.AbandonedCart, error)
	ListIdle(ctx context.Context, idleSince time.Time, limit int) ([]models.AbandonedCart, error)
	DeleteByCustomer(ctx context.Context, customerID string) (int64, error)
	TouchByToken(ctx context.Context, token string, at time.Time) error
}

type gormRepo struct {
	repo.Base
}

func NewRepo(db *gorm.DB) Repo {
	return &gormRepo{Base: repo.NewBase(db)}
}

func (r *gormRepo) Upsert(ctx context.Context, cart *models.AbandonedCart) (bool, error) {
	var existing models.AbandonedCart
	err := r.DB(ctx).Where("cart_token = ?", cart.CartToken).First(&existing).Error
	switch {
	case err == nil:
		cart.ID = existing.ID
		cart.CreatedAt = existing.CreatedAt
		if updateErr := r.DB(ctx).Save(cart).Error; updateErr != nil {
			return false, apperrors.Wrap(apperrors.CodeInternal, updateErr, "updating cart snapshot")
		}
		return false, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if cart.ID == uuid.Nil {
			cart.ID = uuid.New()
		}
		if createErr := r.DB(ctx).Create(cart).Error; createErr != nil {
			return false, apperrors.Wrap(apperrors.CodeInternal, createErr, "storing cart snapshot")
		}
		return true, nil
	default:
		return false, apperrors.Wrap(apperrors.CodeInternal, err, "loading cart snapshot")
	}
}

func (r *gormRepo) FindByToken(ctx context.Context, token string) (*models.AbandonedCart, error) {
	var cart models.AbandonedCart
	if err := r.DB(ctx).Where("cart_token = ?", token).First(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "abandoned cart not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading abandoned cart")
	}
	return &cart, nil
}

func (r *gormRepo) ListIdle(ctx context.Context, idleSince time.Time, limit int) ([]models.AbandonedCart, error) {
	var rows []models.AbandonedCart
	err := r.DB(ctx).
		Where("updated_at <= ? AND line_item_count > 0", idleSince).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "listing abandoned carts")
	}
	return rows, nil
}

func (r *gormRepo) DeleteByCustomer(ctx context.Context, customerID string) (int64, error) {
	result := r.DB(ctx).Where("customer_id = ?", customerID).Delete(&models.AbandonedCart{})
	if result.Error != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, result.Error, "deleting abandoned carts")
	}
	return result.RowsAffected, nil
}

func (r *gormRepo) TouchByToken(ctx context.Context, token string, at time.Time) error {
	result := r.DB(ctx).Model(&models.AbandonedCart{}).
		Where("cart_token = ?", token).
		Update("updated_at", at)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, result.Error, "touching abandoned cart")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "abandoned cart not found")
	}
	return nil
}
