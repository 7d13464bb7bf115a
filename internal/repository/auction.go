package repository

import (
	"context"
	"errors"
	"time"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AuctionRepository interface {
	Create(ctx context.Context, auction *entity.Auction) error
	GetByID(ctx context.Context, id string) (*entity.Auction, error)
	GetStartDue(ctx context.Context, now time.Time) ([]entity.Auction, error)
	GetEndDue(ctx context.Context, now time.Time) ([]entity.Auction, error)

	// CheckAndSetLastBid applies an accepted bid to the auction row. The
	// where-clause guard on bid_count makes the update fail with
	// gorm.ErrRecordNotFound if another bid slipped in since the caller read
	// its snapshot.
	CheckAndSetLastBid(
		ctx context.Context, auctionID string,
		prevBidCount int, amount int64, bidderID string, endTime time.Time,
	) error

	CheckAndStart(ctx context.Context, auctionID string, now time.Time) error
	CheckAndEnd(ctx context.Context, auctionID string) error
	CheckAndMarkPaid(ctx context.Context, auctionID string) error
	CheckAndCancel(ctx context.Context, auctionID string) error
}

type auctionRepository struct{}

func NewAuctionRepository() *auctionRepository {
	return &auctionRepository{}
}

func (r *auctionRepository) Create(ctx context.Context, auction *entity.Auction) error {
	return xcontext.DB(ctx).Create(auction).Error
}

func (r *auctionRepository) GetByID(ctx context.Context, id string) (*entity.Auction, error) {
	var result entity.Auction
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *auctionRepository) GetStartDue(ctx context.Context, now time.Time) ([]entity.Auction, error) {
	var result []entity.Auction
	err := xcontext.DB(ctx).
		Where("status=? AND start_time <= ?", entity.AuctionPreparing, now).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *auctionRepository) GetEndDue(ctx context.Context, now time.Time) ([]entity.Auction, error) {
	var result []entity.Auction
	err := xcontext.DB(ctx).
		Where("status=?", entity.AuctionOngoing).
		Where("end_time <= ? OR (closing_time IS NOT NULL AND closing_time <= ?)", now, now).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *auctionRepository) CheckAndSetLastBid(
	ctx context.Context, auctionID string,
	prevBidCount int, amount int64, bidderID string, endTime time.Time,
) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status=? AND bid_count=?",
			auctionID, entity.AuctionOngoing, prevBidCount).
		Updates(map[string]any{
			"last_bid_amount": amount,
			"last_bidder_id":  bidderID,
			"bid_count":       gorm.Expr("bid_count+1"),
			"end_time":        endTime,
		})

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected > 1 {
		return errors.New("the number of affected rows is invalid")
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) CheckAndStart(ctx context.Context, auctionID string, now time.Time) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status=? AND start_time <= ?",
			auctionID, entity.AuctionPreparing, now).
		Update("status", entity.AuctionOngoing)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) CheckAndEnd(ctx context.Context, auctionID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status=?", auctionID, entity.AuctionOngoing).
		Update("status", entity.AuctionEnded)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) CheckAndMarkPaid(ctx context.Context, auctionID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status=?", auctionID, entity.AuctionEnded).
		Update("status", entity.AuctionPaid)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

func (r *auctionRepository) CheckAndCancel(ctx context.Context, auctionID string) error {
	tx := xcontext.DB(ctx).Model(&entity.Auction{}).
		Where("id=? AND status IN ?", auctionID,
			[]entity.AuctionStatus{entity.AuctionPreparing, entity.AuctionOngoing}).
		Update("status", entity.AuctionCancelled)

	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}
