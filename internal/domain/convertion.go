package domain

import (
	"time"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/model"
)

const defaultTimeLayout = time.RFC3339Nano

func convertAuction(auction *entity.Auction) model.Auction {
	if auction == nil {
		return model.Auction{}
	}

	closingTime := ""
	if auction.ClosingTime.Valid {
		closingTime = auction.ClosingTime.Time.Format(defaultTimeLayout)
	}

	return model.Auction{
		ID:            auction.ID,
		Title:         auction.Title,
		Status:        string(auction.Status),
		StartTime:     auction.StartTime.Format(defaultTimeLayout),
		EndTime:       auction.EndTime.Format(defaultTimeLayout),
		ClosingTime:   closingTime,
		BidExtMins:    auction.BidExtMins,
		BidIncrement:  auction.BidIncrement,
		StartingPrice: auction.StartingPrice,
		LastBidAmount: auction.LastBidAmount,
		LastBidderID:  auction.LastBidderID.String,
		BidCount:      auction.BidCount,
	}
}

func convertBid(bid *entity.Bid) model.Bid {
	if bid == nil {
		return model.Bid{}
	}

	return model.Bid{
		ID:        bid.ID,
		AuctionID: bid.AuctionID,
		UserID:    bid.UserID,
		Amount:    bid.Amount,
		CreatedAt: bid.CreatedAt.Format(defaultTimeLayout),
	}
}

func convertCoinTransaction(tx *entity.CoinTransaction) model.CoinTransaction {
	if tx == nil {
		return model.CoinTransaction{}
	}

	return model.CoinTransaction{
		ID:        tx.ID,
		CreatedAt: tx.CreatedAt.Format(defaultTimeLayout),
		Type:      string(tx.Type),
		Debit:     tx.Debit,
		Credit:    tx.Credit,
		Balance:   tx.Balance,
		Note:      tx.Note,
	}
}
