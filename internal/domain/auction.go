package domain

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/packbid/backend/internal/common"
	"github.com/packbid/backend/internal/domain/bidlogic"
	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/model"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/errorx"
	"github.com/packbid/backend/pkg/pubsub"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/packbid/backend/pkg/xredis"
	"gorm.io/gorm"
)

const (
	OutbidTopic = "outbid"

	auctionCacheTTL = 10 * time.Second
)

type AuctionDomain interface {
	Create(context.Context, *model.CreateAuctionRequest) (*model.CreateAuctionResponse, error)
	PlaceBid(context.Context, *model.PlaceBidRequest) (*model.PlaceBidResponse, error)
	GetAuction(context.Context, *model.GetAuctionRequest) (*model.GetAuctionResponse, error)
	MarkEnded(context.Context, *model.MarkAuctionEndedRequest) (*model.MarkAuctionEndedResponse, error)
	MarkPaid(context.Context, *model.MarkAuctionPaidRequest) (*model.MarkAuctionPaidResponse, error)
	Cancel(context.Context, *model.CancelAuctionRequest) (*model.CancelAuctionResponse, error)
}

type auctionDomain struct {
	auctionRepo repository.AuctionRepository
	bidRepo     repository.BidRepository
	userRepo    repository.UserRepository
	settlement  SettlementDomain
	ledger      LedgerDomain
	publisher   pubsub.Publisher
	redisClient xredis.Client

	// auctionLocks serializes the read-validate-mutate-append sequence per
	// auction. Bids on different auctions never block each other.
	auctionLocks *common.KeyLocker
}

func NewAuctionDomain(
	auctionRepo repository.AuctionRepository,
	bidRepo repository.BidRepository,
	userRepo repository.UserRepository,
	settlement SettlementDomain,
	ledger LedgerDomain,
	publisher pubsub.Publisher,
	redisClient xredis.Client,
) *auctionDomain {
	return &auctionDomain{
		auctionRepo:  auctionRepo,
		bidRepo:      bidRepo,
		userRepo:     userRepo,
		settlement:   settlement,
		ledger:       ledger,
		publisher:    publisher,
		redisClient:  redisClient,
		auctionLocks: common.NewKeyLocker(),
	}
}

func (d *auctionDomain) Create(
	ctx context.Context, req *model.CreateAuctionRequest,
) (*model.CreateAuctionResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not found title")
	}

	if !req.EndTime.After(req.StartTime) {
		return nil, errorx.New(errorx.BadRequest, "End time must be after start time")
	}

	if !req.ClosingTime.IsZero() && req.ClosingTime.Before(req.EndTime) {
		return nil, errorx.New(errorx.BadRequest, "Closing time must not be before end time")
	}

	if req.BidIncrement <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Bid increment must be a positive number")
	}

	if req.StartingPrice < 0 {
		return nil, errorx.New(errorx.BadRequest, "Starting price must not be negative")
	}

	status := entity.AuctionPreparing
	if !req.StartTime.After(time.Now()) {
		status = entity.AuctionOngoing
	}

	auction := &entity.Auction{
		Base:          entity.Base{ID: uuid.NewString()},
		Title:         req.Title,
		CreatedBy:     xcontext.RequestUserID(ctx),
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		BidExtMins:    req.BidExtMins,
		BidIncrement:  req.BidIncrement,
		StartingPrice: req.StartingPrice,
		Status:        status,
	}

	if !req.ClosingTime.IsZero() {
		auction.ClosingTime = sql.NullTime{Valid: true, Time: req.ClosingTime}
	}

	if req.ReservePrice > 0 {
		auction.ReservePrice = sql.NullInt64{Valid: true, Int64: req.ReservePrice}
	}

	if err := d.auctionRepo.Create(ctx, auction); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot create auction: %v", err)
		return nil, errorx.Unknown
	}

	resp := convertAuction(auction)
	return &model.CreateAuctionResponse{Auction: resp}, nil
}

// PlaceBid runs the critical read-validate-mutate-append sequence under the
// per-auction lock. The bid_count guard inside CheckAndSetLastBid is the
// storage-level backstop: even if another process mutated the auction behind
// our back, the update fails instead of losing a bid.
func (d *auctionDomain) PlaceBid(
	ctx context.Context, req *model.PlaceBidRequest,
) (*model.PlaceBidResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	if userID == "" {
		return nil, errorx.New(errorx.Unauthenticated, "Not found user id")
	}

	if req.Amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Amount must be a positive number")
	}

	cfg := xcontext.Configs(ctx).Auction
	if err := d.auctionLocks.Acquire(ctx, req.AuctionID, cfg.LockWaitTimeout); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot acquire bid lock of auction %s: %v", req.AuctionID, err)
		return nil, errorx.New(errorx.Contention, "Too many concurrent bids, try again")
	}
	defer d.auctionLocks.Release(req.AuctionID)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	now := time.Now()

	// Lazily open an auction whose start time already passed but which the
	// sweep has not visited yet.
	if auction.Status == entity.AuctionPreparing && !auction.StartTime.After(now) {
		if err := d.auctionRepo.CheckAndStart(ctx, auction.ID, now); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot lazily start auction: %v", err)
			return nil, errorx.Unknown
		}

		auction.Status = entity.AuctionOngoing
	}

	amountTaken, err := d.bidRepo.ExistAmount(ctx, req.AuctionID, req.Amount)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot check bid amount: %v", err)
		return nil, errorx.Unknown
	}
	err = bidlogic.Validate(
		auction,
		bidlogic.Candidate{UserID: userID, Amount: req.Amount, AmountTaken: amountTaken},
		now,
		bidlogic.Options{AllowConsecutive: cfg.AllowConsecutiveBids},
	)
	if err != nil {
		return nil, err
	}

	newEndTime := bidlogic.NextEndTime(auction, now)

	err = d.auctionRepo.CheckAndSetLastBid(
		ctx, req.AuctionID, auction.BidCount, req.Amount, userID, newEndTime)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.Contention, "The auction changed underneath, try again")
		}

		xcontext.Logger(ctx).Errorf("Cannot set last bid: %v", err)
		return nil, errorx.Unknown
	}

	bid := &entity.Bid{
		Base:      entity.Base{ID: uuid.NewString(), CreatedAt: now},
		AuctionID: req.AuctionID,
		UserID:    userID,
		Amount:    req.Amount,
	}

	if err := d.bidRepo.Create(ctx, bid); err != nil {
		if common.IsUniqueViolation(err) {
			return nil, errorx.New(errorx.DuplicateBid, "A bid of this amount already exists")
		}

		xcontext.Logger(ctx).Errorf("Cannot create bid: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	prevBidder := auction.LastBidderID

	auction.LastBidAmount = req.Amount
	auction.LastBidderID = sql.NullString{Valid: true, String: userID}
	auction.BidCount++
	auction.EndTime = newEndTime

	// Everything below is best effort. The bid is final once the commit
	// above succeeded.
	d.notifyOutbid(ctx, auction, prevBidder)
	d.applyEscrow(ctx, auction, prevBidder)

	if err := d.redisClient.Del(ctx, common.RedisKeyAuction(auction.ID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate auction cache: %v", err)
	}

	return &model.PlaceBidResponse{
		Bid:     convertBid(bid),
		Auction: convertAuction(auction),
	}, nil
}

func (d *auctionDomain) notifyOutbid(
	ctx context.Context, auction *entity.Auction, prevBidder sql.NullString,
) {
	if !prevBidder.Valid || prevBidder.String == auction.LastBidderID.String {
		return
	}

	event := model.OutbidEvent{
		AuctionID: auction.ID,
		UserID:    prevBidder.String,
		NewAmount: auction.LastBidAmount,
	}

	msg, err := json.Marshal(event)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot marshal outbid event: %v", err)
		return
	}

	err = d.publisher.Publish(ctx, OutbidTopic, &pubsub.Pack{
		Key: []byte(auction.ID),
		Msg: msg,
	})
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot publish outbid event: %v", err)
	}
}

// applyEscrow charges the new highest bidder and refunds the previous one.
// Failures are logged, never propagated to the accepted bid.
func (d *auctionDomain) applyEscrow(
	ctx context.Context, auction *entity.Auction, prevBidder sql.NullString,
) {
	if !xcontext.Configs(ctx).Auction.EscrowEnabled {
		return
	}

	_, err := d.ledger.Append(ctx, &model.AppendCoinTransactionRequest{
		UserID:    auction.LastBidderID.String,
		Type:      string(entity.CoinEscrow),
		Amount:    auction.LastBidAmount,
		Direction: model.DirectionCredit,
		Note:      "escrow of auction " + auction.ID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append escrow entry: %v", err)
	}

	if !prevBidder.Valid || prevBidder.String == auction.LastBidderID.String {
		return
	}

	// The refunded amount is the previous high bid, which the new bid
	// replaced.
	refund := auction.LastBidAmount - auction.BidIncrement
	bids, err := d.bidRepo.GetByAuctionID(ctx, auction.ID)
	if err == nil && len(bids) >= 2 {
		refund = bids[len(bids)-2].Amount
	}

	_, err = d.ledger.Append(ctx, &model.AppendCoinTransactionRequest{
		UserID:    prevBidder.String,
		Type:      string(entity.CoinRefund),
		Amount:    refund,
		Direction: model.DirectionDebit,
		Note:      "outbid refund of auction " + auction.ID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append refund entry: %v", err)
	}
}

// refundEscrow returns the standing bidder's escrowed coins when the auction
// reaches a terminal outcome with no payout. Callers gate it behind a
// once-only status transition so the refund cannot be granted twice.
func refundEscrow(ctx context.Context, ledger LedgerDomain, auction *entity.Auction) {
	if !xcontext.Configs(ctx).Auction.EscrowEnabled || !auction.LastBidderID.Valid {
		return
	}

	_, err := ledger.Append(ctx, &model.AppendCoinTransactionRequest{
		UserID:    auction.LastBidderID.String,
		Type:      string(entity.CoinRefund),
		Amount:    auction.LastBidAmount,
		Direction: model.DirectionDebit,
		Note:      "escrow refund of auction " + auction.ID,
	})
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot append escrow refund entry: %v", err)
	}
}

func (d *auctionDomain) GetAuction(
	ctx context.Context, req *model.GetAuctionRequest,
) (*model.GetAuctionResponse, error) {
	var cached model.Auction
	err := d.redisClient.GetObj(ctx, common.RedisKeyAuction(req.AuctionID), &cached)
	if err == nil {
		return &model.GetAuctionResponse{Auction: cached}, nil
	}

	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	view := convertAuction(auction)
	err = d.redisClient.SetObj(ctx, common.RedisKeyAuction(req.AuctionID), view, auctionCacheTTL)
	if err != nil {
		xcontext.Logger(ctx).Warnf("Cannot cache auction view: %v", err)
	}

	return &model.GetAuctionResponse{Auction: view}, nil
}

func (d *auctionDomain) MarkEnded(
	ctx context.Context, req *model.MarkAuctionEndedRequest,
) (*model.MarkAuctionEndedResponse, error) {
	if err := d.settlement.Settle(ctx, req.AuctionID); err != nil {
		return nil, err
	}

	return &model.MarkAuctionEndedResponse{}, nil
}

func (d *auctionDomain) MarkPaid(
	ctx context.Context, req *model.MarkAuctionPaidRequest,
) (*model.MarkAuctionPaidResponse, error) {
	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.auctionRepo.CheckAndMarkPaid(ctx, req.AuctionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest,
				"Auction in status %s cannot be marked paid", auction.Status)
		}

		xcontext.Logger(ctx).Errorf("Cannot mark auction paid: %v", err)
		return nil, errorx.Unknown
	}

	// The status guard above fired exactly once, so the payout cannot be
	// granted twice.
	if xcontext.Configs(ctx).Auction.EscrowEnabled && auction.LastBidderID.Valid {
		_, err := d.ledger.Append(ctx, &model.AppendCoinTransactionRequest{
			UserID:    auction.CreatedBy,
			Type:      string(entity.CoinPayout),
			Amount:    auction.LastBidAmount,
			Direction: model.DirectionDebit,
			Note:      "payout of auction " + auction.ID,
		})
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot append payout entry: %v", err)
		}
	}

	if err := d.redisClient.Del(ctx, common.RedisKeyAuction(req.AuctionID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate auction cache: %v", err)
	}

	return &model.MarkAuctionPaidResponse{}, nil
}

func (d *auctionDomain) Cancel(
	ctx context.Context, req *model.CancelAuctionRequest,
) (*model.CancelAuctionResponse, error) {
	auction, err := d.auctionRepo.GetByID(ctx, req.AuctionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found auction")
		}

		xcontext.Logger(ctx).Errorf("Cannot get auction: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.auctionRepo.CheckAndCancel(ctx, req.AuctionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.BadRequest,
				"Auction in status %s cannot be cancelled", auction.Status)
		}

		xcontext.Logger(ctx).Errorf("Cannot cancel auction: %v", err)
		return nil, errorx.Unknown
	}

	// The status guard above fired exactly once, so the standing bidder's
	// escrow is returned exactly once.
	refundEscrow(ctx, d.ledger, auction)

	if err := d.redisClient.Del(ctx, common.RedisKeyAuction(req.AuctionID)); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot invalidate auction cache: %v", err)
	}

	return &model.CancelAuctionResponse{}, nil
}
