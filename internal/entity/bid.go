package entity

// Bid is append-only. The unique (auction_id, amount) index keeps two racing
// submissions from ever producing an ambiguous highest bid.
type Bid struct {
	Base

	AuctionID string  `gorm:"uniqueIndex:idx_bids_auction_amount"`
	Auction   Auction `gorm:"foreignKey:AuctionID"`

	UserID string
	User   User `gorm:"foreignKey:UserID"`

	Amount int64 `gorm:"uniqueIndex:idx_bids_auction_amount"`
}
