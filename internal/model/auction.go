package model

import "time"

type Auction struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ClosingTime   string `json:"closing_time,omitempty"`
	BidExtMins    int    `json:"bid_ext_mins"`
	BidIncrement  int64  `json:"bid_increment"`
	StartingPrice int64  `json:"starting_price"`
	LastBidAmount int64  `json:"last_bid_amount"`
	LastBidderID  string `json:"last_bidder_id,omitempty"`
	BidCount      int    `json:"bid_count"`
}

type Bid struct {
	ID        string `json:"id"`
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	Amount    int64  `json:"amount"`
	CreatedAt string `json:"created_at"`
}

type CreateAuctionRequest struct {
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	ClosingTime   time.Time `json:"closing_time,omitempty"`
	BidExtMins    int       `json:"bid_ext_mins"`
	BidIncrement  int64     `json:"bid_increment"`
	StartingPrice int64     `json:"starting_price"`
	ReservePrice  int64     `json:"reserve_price,omitempty"`
}

type CreateAuctionResponse struct {
	Auction Auction `json:"auction"`
}

type PlaceBidRequest struct {
	AuctionID string `json:"auction_id"`
	Amount    int64  `json:"amount"`
}

type PlaceBidResponse struct {
	Bid     Bid     `json:"bid"`
	Auction Auction `json:"auction"`
}

type GetAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type GetAuctionResponse struct {
	Auction Auction `json:"auction"`
}

type MarkAuctionEndedRequest struct {
	AuctionID string `json:"auction_id"`
}

type MarkAuctionEndedResponse struct{}

type MarkAuctionPaidRequest struct {
	AuctionID string `json:"auction_id"`
}

type MarkAuctionPaidResponse struct{}

type CancelAuctionRequest struct {
	AuctionID string `json:"auction_id"`
}

type CancelAuctionResponse struct{}

// OutbidEvent is published to the outbid topic when a bidder loses the top
// spot. Delivery is best effort.
type OutbidEvent struct {
	AuctionID string `json:"auction_id"`
	UserID    string `json:"user_id"`
	NewAmount int64  `json:"new_amount"`
}

// AuctionWonEvent is the settlement fact consumed by the downstream payment
// collaborator.
type AuctionWonEvent struct {
	AuctionID string `json:"auction_id"`
	WinnerID  string `json:"winner_id"`
	Amount    int64  `json:"amount"`
}
