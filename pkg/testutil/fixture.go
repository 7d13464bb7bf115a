package testutil

import (
	"context"
	"time"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/repository"
)

var (
	User1 = entity.User{Base: entity.Base{ID: "user1"}, Name: "user1"}
	User2 = entity.User{Base: entity.Base{ID: "user2"}, Name: "user2"}
	User3 = entity.User{Base: entity.Base{ID: "user3"}, Name: "user3"}

	Auction1 = entity.Auction{
		Base:          entity.Base{ID: "auction1"},
		Title:         "Auction 1",
		CreatedBy:     User1.ID,
		StartTime:     time.Now().Add(-time.Hour),
		EndTime:       time.Now().Add(time.Hour),
		BidExtMins:    5,
		BidIncrement:  100,
		StartingPrice: 1000,
		Status:        entity.AuctionOngoing,
	}

	Pack1 = entity.Pack{
		Base:      entity.Base{ID: "pack1"},
		Title:     "Pack 1",
		CreatedBy: User1.ID,
	}
)

// CreateFixtureDb inserts the sample users, an open auction, and a pack
// containing it.
func CreateFixtureDb(ctx context.Context) {
	InsertUsers(ctx)
	InsertAuctions(ctx)
	InsertPacks(ctx)
}

func InsertUsers(ctx context.Context) {
	userRepo := repository.NewUserRepository()

	for _, user := range []entity.User{User1, User2, User3} {
		user := user
		if err := userRepo.Create(ctx, &user); err != nil {
			panic(err)
		}
	}
}

func InsertAuctions(ctx context.Context) {
	auctionRepo := repository.NewAuctionRepository()

	auction := Auction1
	if err := auctionRepo.Create(ctx, &auction); err != nil {
		panic(err)
	}
}

func InsertPacks(ctx context.Context) {
	packRepo := repository.NewPackRepository()

	pack := Pack1
	if err := packRepo.Create(ctx, &pack); err != nil {
		panic(err)
	}

	if err := packRepo.AddAuction(ctx, Pack1.ID, Auction1.ID); err != nil {
		panic(err)
	}
}
