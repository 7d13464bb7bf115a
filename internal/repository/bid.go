package repository

import (
	"context"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/xcontext"
)

type BidRepository interface {
	Create(ctx context.Context, bid *entity.Bid) error
	GetByAuctionID(ctx context.Context, auctionID string) ([]entity.Bid, error)
	ExistAmount(ctx context.Context, auctionID string, amount int64) (bool, error)
	Count(ctx context.Context, auctionID string) (int64, error)
}

type bidRepository struct{}

func NewBidRepository() *bidRepository {
	return &bidRepository{}
}

func (r *bidRepository) Create(ctx context.Context, bid *entity.Bid) error {
	return xcontext.DB(ctx).Create(bid).Error
}

func (r *bidRepository) GetByAuctionID(ctx context.Context, auctionID string) ([]entity.Bid, error) {
	var result []entity.Bid
	err := xcontext.DB(ctx).
		Where("auction_id=?", auctionID).
		Order("amount ASC").
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *bidRepository) ExistAmount(ctx context.Context, auctionID string, amount int64) (bool, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Bid{}).
		Where("auction_id=? AND amount=?", auctionID, amount).
		Count(&count).Error
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *bidRepository) Count(ctx context.Context, auctionID string) (int64, error) {
	var count int64
	err := xcontext.DB(ctx).Model(&entity.Bid{}).
		Where("auction_id=?", auctionID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}
