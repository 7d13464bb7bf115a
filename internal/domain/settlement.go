package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/packbid/backend/internal/common"
	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/model"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/errorx"
	"github.com/packbid/backend/pkg/pubsub"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/packbid/backend/pkg/xredis"
	"gorm.io/gorm"
)

const AuctionWonTopic = "auction_won"

// SettlementDomain finalizes ended auctions. Settle is idempotent, the
// external scheduler may invoke it more than once for the same auction.
type SettlementDomain interface {
	Settle(ctx context.Context, auctionID string) error
}

type settlementDomain struct {
	auctionRepo repository.AuctionRepository
	packRepo    repository.PackRepository
	ledger      LedgerDomain
	publisher   pubsub.Publisher
	redisClient xredis.Client
}

func NewSettlementDomain(
	auctionRepo repository.AuctionRepository,
	packRepo repository.PackRepository,
	ledger LedgerDomain,
	publisher pubsub.Publisher,
	redisClient xredis.Client,
) *settlementDomain {
	return &settlementDomain{
		auctionRepo: auctionRepo,
		packRepo:    packRepo,
		ledger:      ledger,
		publisher:   publisher,
		redisClient: redisClient,
	}
}

func (d *settlementDomain) Settle(ctx context.Context, auctionID string) error {
	auction, err := d.auctionRepo.GetByID(ctx, auctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return errorx.Unknown
	}

	// endedNow tracks whether this call won the terminal transition. Ledger
	// effects hang off it so a settlement replay never applies them twice.
	endedNow := false

	switch auction.Status {
	case entity.AuctionOngoing:
		if time.Now().Before(auction.Deadline()) {
			return errorx.New(errorx.BadRequest, "The auction is still open")
		}

		// The terminal transition commits on its own, so a later fan-out
		// failure never loses it.
		if err := d.auctionRepo.CheckAndEnd(ctx, auctionID); err != nil {
			// Another settlement won the transition, keep going with the
			// idempotent part.
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				xcontext.Logger(ctx).Errorf("Cannot end auction: %v", err)
				return errorx.Unknown
			}
		} else {
			endedNow = true
		}

		auction.Status = entity.AuctionEnded

	case entity.AuctionEnded, entity.AuctionPaid:
		// Already terminal, replay the fan-out.

	default:
		return errorx.New(errorx.BadRequest, "Auction in status %s cannot be settled", auction.Status)
	}

	if err := d.redisClient.Del(ctx, common.RedisKeyAuction(auctionID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate auction cache: %v", err)
	}

	if err := d.recomputePacks(ctx, auctionID); err != nil {
		return err
	}

	if auction.Status != entity.AuctionEnded {
		return nil
	}

	return d.finalizeWinner(ctx, auction, endedNow)
}

func (d *settlementDomain) recomputePacks(ctx context.Context, auctionID string) error {
	packs, err := d.packRepo.GetByAuctionID(ctx, auctionID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get packs of auction: %v", err)
		return errorx.Unknown
	}

	for _, pack := range packs {
		if err := d.packRepo.RecomputeClosed(ctx, pack.ID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot recompute closed count of pack %s: %v", pack.ID, err)
			return errorx.Unknown
		}
	}

	return nil
}

func (d *settlementDomain) finalizeWinner(ctx context.Context, auction *entity.Auction, endedNow bool) error {
	if !auction.LastBidderID.Valid {
		// No bids, nothing to finalize.
		return nil
	}

	if auction.ReservePrice.Valid && auction.LastBidAmount < auction.ReservePrice.Int64 {
		xcontext.Logger(ctx).Infof(
			"Auction %s ended below reserve price, no winner", auction.ID)

		// There is no winner to pay out, so the standing bidder's escrow is
		// returned here. The transition guard keeps it to a single refund.
		if endedNow {
			refundEscrow(ctx, d.ledger, auction)
		}

		return nil
	}

	event := model.AuctionWonEvent{
		AuctionID: auction.ID,
		WinnerID:  auction.LastBidderID.String,
		Amount:    auction.LastBidAmount,
	}

	msg, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal won event: %v", err)
		return errorx.Unknown
	}

	// The won fact is delivered at least once, the payment consumer keys on
	// the auction id.
	err = d.publisher.Publish(ctx, AuctionWonTopic, &pubsub.Pack{
		Key: []byte(auction.ID),
		Msg: msg,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot publish won event: %v", err)
		return errorx.Unknown
	}

	return nil
}
