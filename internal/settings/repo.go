package settings

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/leadcollect/cart-recovery/internal/repo"
	"github.com/leadcollect/cart-recovery/pkg/db/models"
	apperrors "github.com/leadcollect/cart-recovery/pkg/errors"
)

// Repo persists channel-scoped configuration values.
type Repo interface {
	Get(ctx context.Context, salesChannelID *string, key string) (string, error)
	Upsert(ctx context.Context, salesChannelID *string, key, value string) error
}

type gormRepo struct {
	repo.Base
}

func NewRepo(db *gorm.DB) Repo {
	return &gormRepo{Base: repo.NewBase(db)}
}

func (r *gormRepo) Get(ctx context.Context, salesChannelID *string, key string) (string, error) {
	var row models.ChannelSetting
	query := r.DB(ctx).Where("key = ?", key)
	if salesChannelID == nil {
		query = query.Where("sales_channel_id IS NULL")
	} else {
		query = query.Where("sales_channel_id = ?", *salesChannelID)
	}
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", apperrors.New(apperrors.CodeNotFound, "setting not found")
		}
		return "", apperrors.Wrap(apperrors.CodeInternal, err, "loading setting")
	}
	return row.Value, nil
}

// Upsert is a find-then-write because the scope column is nullable; a plain
// ON CONFLICT clause cannot target the expression index backing uniqueness.
func (r *gormRepo) Upsert(ctx context.Context, salesChannelID *string, key, value string) error {
	var existing models.ChannelSetting
	query := r.DB(ctx).Where("key = ?", key)
	if salesChannelID == nil {
		query = query.Where("sales_channel_id IS NULL")
	} else {
		query = query.Where("sales_channel_id = ?", *salesChannelID)
	}

	err := query.First(&existing).Error
	switch {
	case err == nil:
		if updateErr := r.DB(ctx).Model(&existing).Update("value", value).Error; updateErr != nil {
			return apperrors.Wrap(apperrors.CodeInternal, updateErr, "updating setting")
		}
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		row := models.ChannelSetting{
			ID:             uuid.New(),
			SalesChannelID: salesChannelID,
			Key:            key,
			Value:          value,
		}
		if createErr := r.DB(ctx).Create(&row).Error; createErr != nil {
			return apperrors.Wrap(apperrors.CodeInternal, createErr, "storing setting")
		}
		return nil
	default:
		return apperrors.Wrap(apperrors.CodeInternal, err, "loading setting")
	}
}
