package repository

import (
	"context"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/xcontext"
)

type CoinTransactionRepository interface {
	Create(ctx context.Context, tx *entity.CoinTransaction) error
	GetLastByUserID(ctx context.Context, userID string) (*entity.CoinTransaction, error)
	GetByUserID(ctx context.Context, userID string) ([]entity.CoinTransaction, error)

	// SumByUserID returns sum(debit - credit) over all entries of the user.
	// It must always match the balance of the latest entry.
	SumByUserID(ctx context.Context, userID string) (int64, error)
}

type coinTransactionRepository struct{}

func NewCoinTransactionRepository() *coinTransactionRepository {
	return &coinTransactionRepository{}
}

func (r *coinTransactionRepository) Create(ctx context.Context, tx *entity.CoinTransaction) error {
	return xcontext.DB(ctx).Create(tx).Error
}

func (r *coinTransactionRepository) GetLastByUserID(
	ctx context.Context, userID string,
) (*entity.CoinTransaction, error) {
	var result entity.CoinTransaction
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("seq DESC").
		Take(&result).Error
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *coinTransactionRepository) GetByUserID(
	ctx context.Context, userID string,
) ([]entity.CoinTransaction, error) {
	var result []entity.CoinTransaction
	err := xcontext.DB(ctx).
		Where("user_id=?", userID).
		Order("seq DESC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *coinTransactionRepository) SumByUserID(ctx context.Context, userID string) (int64, error) {
	var result int64
	err := xcontext.DB(ctx).Model(&entity.CoinTransaction{}).
		Select("COALESCE(SUM(debit - credit), 0)").
		Where("user_id=?", userID).
		Scan(&result).Error
	if err != nil {
		return 0, err
	}

	return result, nil
}
