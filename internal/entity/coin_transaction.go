package entity

import (
	"github.com/packbid/backend/pkg/enum"
)

type CoinTransactionType string

var (
	CoinReward   = enum.New(CoinTransactionType("reward"))
	CoinPurchase = enum.New(CoinTransactionType("purchase"))
	CoinSpend    = enum.New(CoinTransactionType("spend"))
	CoinRefund   = enum.New(CoinTransactionType("refund"))
	CoinEscrow   = enum.New(CoinTransactionType("escrow"))
	CoinPayout   = enum.New(CoinTransactionType("payout"))
)

// CoinTransaction is one append-only ledger entry. Exactly one of Debit and
// Credit is nonzero. Balance is the user's running total after this entry.
// Seq is a per-user sequence number; the unique (user_id, seq) index is what
// makes a lost update impossible under concurrent appends.
type CoinTransaction struct {
	Base

	UserID string `gorm:"uniqueIndex:idx_coin_transactions_user_seq"`
	User   User   `gorm:"foreignKey:UserID"`

	Seq int64 `gorm:"uniqueIndex:idx_coin_transactions_user_seq"`

	Type    CoinTransactionType
	Debit   int64
	Credit  int64
	Balance int64

	// Note contains the reason of this transaction, e.g. which auction the
	// escrow belongs to.
	Note string
}
