package entity

import (
	"database/sql"
	"time"

	"github.com/packbid/backend/pkg/enum"
)

type AuctionStatus string

var (
	AuctionPreparing = enum.New(AuctionStatus("preparing"))
	AuctionOngoing   = enum.New(AuctionStatus("ongoing"))
	AuctionEnded     = enum.New(AuctionStatus("ended"))
	AuctionPaid      = enum.New(AuctionStatus("paid"))
	AuctionCancelled = enum.New(AuctionStatus("cancelled"))
)

// Auction is a single-item, single-winner ascending auction. A soft close is
// expressed purely as an EndTime that moves forward, never as a separate
// status value.
type Auction struct {
	Base

	Title     string
	CreatedBy string
	Creator   User `gorm:"foreignKey:CreatedBy"`

	StartTime time.Time
	EndTime   time.Time

	// ClosingTime is the hard deadline. No extension may push EndTime past
	// it.
	ClosingTime sql.NullTime

	// BidExtMins is the soft-close window in minutes. A bid landing within
	// this window of EndTime pushes EndTime forward by the same amount.
	BidExtMins int

	BidIncrement  int64
	StartingPrice int64
	ReservePrice  sql.NullInt64

	LastBidAmount int64
	LastBidderID  sql.NullString
	LastBidder    User `gorm:"foreignKey:LastBidderID"`
	BidCount      int

	Status AuctionStatus
}

// Deadline returns the effective moment bidding stops, EndTime capped by
// ClosingTime if one is set.
func (a *Auction) Deadline() time.Time {
	if a.ClosingTime.Valid && a.ClosingTime.Time.Before(a.EndTime) {
		return a.ClosingTime.Time
	}

	return a.EndTime
}
