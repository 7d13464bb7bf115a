package cron

import (
	"testing"
	"time"

	"github.com/packbid/backend/internal/domain"
	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
)

func Test_StartAuctionsCronJob_Do(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	auctionRepo := repository.NewAuctionRepository()

	due := &entity.Auction{
		Base:          entity.Base{ID: "due"},
		Title:         "due auction",
		CreatedBy:     testutil.User1.ID,
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
		BidIncrement:  100,
		StartingPrice: 500,
		Status:        entity.AuctionPreparing,
	}
	notYet := &entity.Auction{
		Base:          entity.Base{ID: "not-yet"},
		Title:         "future auction",
		CreatedBy:     testutil.User1.ID,
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(2 * time.Hour),
		BidIncrement:  100,
		StartingPrice: 500,
		Status:        entity.AuctionPreparing,
	}
	require.NoError(t, auctionRepo.Create(ctx, due))
	require.NoError(t, auctionRepo.Create(ctx, notYet))

	NewStartAuctionsCronJob(auctionRepo, time.Minute).Do(ctx)

	stored, err := auctionRepo.GetByID(ctx, due.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionOngoing, stored.Status)

	stored, err = auctionRepo.GetByID(ctx, notYet.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionPreparing, stored.Status)
}

func Test_CloseAuctionsCronJob_Do(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	auctionRepo := repository.NewAuctionRepository()

	expired := &entity.Auction{
		Base:          entity.Base{ID: "expired"},
		Title:         "expired auction",
		CreatedBy:     testutil.User1.ID,
		StartTime:     time.Now().Add(-2 * time.Hour),
		EndTime:       time.Now().Add(-time.Minute),
		BidIncrement:  100,
		StartingPrice: 500,
		Status:        entity.AuctionOngoing,
	}
	require.NoError(t, auctionRepo.Create(ctx, expired))

	settlement := domain.NewSettlementDomain(
		auctionRepo,
		repository.NewPackRepository(),
		domain.NewLedgerDomain(
			repository.NewCoinTransactionRepository(), repository.NewUserRepository()),
		&testutil.MockPublisher{},
		&testutil.MockRedisClient{},
	)

	job := NewCloseAuctionsCronJob(auctionRepo, settlement, time.Minute)
	job.Do(ctx)
	// A second sweep finds nothing left to do.
	job.Do(ctx)

	stored, err := auctionRepo.GetByID(ctx, expired.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionEnded, stored.Status)

	// The still-running fixture auction is untouched.
	stored, err = auctionRepo.GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionOngoing, stored.Status)
}
