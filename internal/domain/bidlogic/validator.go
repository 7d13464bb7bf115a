package bidlogic

import (
	"time"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/errorx"
)

// Candidate is a proposed bid checked against an auction snapshot.
type Candidate struct {
	UserID string
	Amount int64

	// AmountTaken reports whether some bid on this auction already used the
	// same amount. The caller resolves it against storage before validating.
	AmountTaken bool
}

// Options tunes validation policy.
type Options struct {
	// AllowConsecutive permits the current highest bidder to raise their own
	// bid.
	AllowConsecutive bool
}

// Validate decides whether the candidate is acceptable against the given
// auction snapshot at the given moment. It has no side effects and is
// deterministic in its inputs. A nil return means the bid is accepted.
func Validate(auction *entity.Auction, candidate Candidate, now time.Time, opts Options) error {
	if auction.Status != entity.AuctionOngoing {
		return errorx.New(errorx.AuctionNotOpen, "This auction is not open for bidding")
	}

	if !now.Before(auction.Deadline()) {
		return errorx.New(errorx.AuctionClosed, "This auction has closed")
	}

	if !opts.AllowConsecutive &&
		auction.LastBidderID.Valid && auction.LastBidderID.String == candidate.UserID {
		return errorx.New(errorx.SameBidder, "You already hold the highest bid")
	}

	minAmount := auction.StartingPrice
	if auction.BidCount > 0 {
		minAmount = auction.LastBidAmount + auction.BidIncrement
	}

	if candidate.Amount < minAmount {
		return errorx.New(errorx.BidTooLow, "Bid must be at least %d", minAmount)
	}

	if candidate.AmountTaken {
		return errorx.New(errorx.DuplicateBid, "A bid of this amount already exists")
	}

	return nil
}

// NextEndTime computes the deadline after accepting a bid at now. A bid
// landing within the extension window pushes the end time forward, clamped
// by the closing time; the end time never moves backward.
func NextEndTime(auction *entity.Auction, now time.Time) time.Time {
	if auction.BidExtMins <= 0 {
		return auction.EndTime
	}

	window := time.Duration(auction.BidExtMins) * time.Minute
	if auction.EndTime.Sub(now) >= window {
		return auction.EndTime
	}

	extended := now.Add(window)
	if auction.ClosingTime.Valid && extended.After(auction.ClosingTime.Time) {
		extended = auction.ClosingTime.Time
	}

	if extended.Before(auction.EndTime) {
		return auction.EndTime
	}

	return extended
}
