package coupons

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

// GrantRepo persists issued coupon grants for attribution and auditing.
type GrantRepo interface {
	Create(ctx context.Context, grant *models.CouponGrant) error
	FindByCode(ctx context.Context, code string) (*models.CouponGrant, error)
	MarkRedeemed(ctx context.Context, code string, at time.Time) error
}

type gormGrantRepo struct {
	repo.Base
}

func NewGrantRepo(db *gorm.DB) GrantRepo {
	return &gormGrantRepo{Base: repo.NewBase(db)}
}

func (r *gormGrantRepo) Create(ctx context.Context, grant *models.CouponGrant) error {
	if grant.ID == uuid.Nil {
		grant.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(grant).Error; err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, err, "storing coupon grant")
	}
	return nil
}

func (r *gormGrantRepo) FindByCode(ctx context.Context, code string) (*models.CouponGrant, error) {
	var grant models.CouponGrant
	if err := r.DB(ctx).Where("code = ?", code).First(&grant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "coupon grant not found")
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, err, "loading coupon grant")
	}
	return &grant, nil
}

func (r *gormGrantRepo) MarkRedeemed(ctx context.Context, code string, at time.Time) error {
	result := r.DB(ctx).Model(&models.CouponGrant{}).
		Where("code = ? AND redeemed_at IS NULL", code).
		Update("redeemed_at", at)
	if result.Error != nil {
		return apperrors.Wrap(apperrors.CodeInternal, result.Error, "marking coupon redeemed")
	}
	if result.RowsAffected == 0 {
		return apperrors.New(apperrors.CodeNotFound, "coupon grant not found or already redeemed")
	}
	return nil
}
