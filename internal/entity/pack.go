package entity

import (
	"time"

	"gorm.io/gorm"
)

// Pack groups auctions. Closed counts the member auctions that reached a
// terminal ended state; it is always recomputed from the members, never
// incremented.
type Pack struct {
	Base

	Title     string
	CreatedBy string
	Creator   User `gorm:"foreignKey:CreatedBy"`

	Closed int
}

type PackAuction struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	PackID string `gorm:"primaryKey"`
	Pack   Pack   `gorm:"foreignKey:PackID"`

	AuctionID string  `gorm:"primaryKey"`
	Auction   Auction `gorm:"foreignKey:AuctionID"`
}
