package repository

import (
	"context"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/xcontext"
)

type PackRepository interface {
	Create(ctx context.Context, pack *entity.Pack) error
	GetByID(ctx context.Context, id string) (*entity.Pack, error)
	AddAuction(ctx context.Context, packID, auctionID string) error
	GetByAuctionID(ctx context.Context, auctionID string) ([]entity.Pack, error)

	// RecomputeClosed re-aggregates the closed count from the member
	// auctions in a single statement. Re-aggregation instead of increment
	// keeps the count correct when settlement replays.
	RecomputeClosed(ctx context.Context, packID string) error
}

type packRepository struct{}

func NewPackRepository() *packRepository {
	return &packRepository{}
}

func (r *packRepository) Create(ctx context.Context, pack *entity.Pack) error {
	return xcontext.DB(ctx).Create(pack).Error
}

func (r *packRepository) GetByID(ctx context.Context, id string) (*entity.Pack, error) {
	var result entity.Pack
	if err := xcontext.DB(ctx).Take(&result, "id=?", id).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *packRepository) AddAuction(ctx context.Context, packID, auctionID string) error {
	return xcontext.DB(ctx).Create(&entity.PackAuction{
		PackID:    packID,
		AuctionID: auctionID,
	}).Error
}

func (r *packRepository) GetByAuctionID(ctx context.Context, auctionID string) ([]entity.Pack, error) {
	var result []entity.Pack
	err := xcontext.DB(ctx).Model(&entity.Pack{}).
		Joins("join pack_auctions on pack_auctions.pack_id=packs.id").
		Where("pack_auctions.auction_id=?", auctionID).
		Find(&result).Error
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *packRepository) RecomputeClosed(ctx context.Context, packID string) error {
	closed := xcontext.DB(ctx).Model(&entity.Auction{}).
		Select("COUNT(*)").
		Joins("join pack_auctions on pack_auctions.auction_id=auctions.id").
		Where("pack_auctions.pack_id=?", packID).
		Where("auctions.status IN ?",
			[]entity.AuctionStatus{entity.AuctionEnded, entity.AuctionPaid})

	return xcontext.DB(ctx).Model(&entity.Pack{}).
		Where("id=?", packID).
		Update("closed", closed).Error
}
