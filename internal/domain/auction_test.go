package domain

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/model"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/errorx"
	"github.com/packbid/backend/pkg/pubsub"
	"github.com/packbid/backend/pkg/testutil"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type publishedPack struct {
	Topic string
	Pack  *pubsub.Pack
}

// capturePublisher records every published pack, safe for concurrent bids.
func capturePublisher() (*testutil.MockPublisher, func() []publishedPack) {
	var mutex sync.Mutex
	var published []publishedPack

	publisher := &testutil.MockPublisher{
		PublishFunc: func(ctx context.Context, topic string, pack *pubsub.Pack) error {
			mutex.Lock()
			defer mutex.Unlock()
			published = append(published, publishedPack{Topic: topic, Pack: pack})
			return nil
		},
	}

	return publisher, func() []publishedPack {
		mutex.Lock()
		defer mutex.Unlock()
		return published
	}
}

func newTestAuctionDomain(
	publisher pubsub.Publisher, redisClient *testutil.MockRedisClient,
) *auctionDomain {
	auctionRepo := repository.NewAuctionRepository()
	ledger := newTestLedgerDomain()
	settlement := NewSettlementDomain(
		auctionRepo, repository.NewPackRepository(), ledger, publisher, redisClient)

	return NewAuctionDomain(
		auctionRepo,
		repository.NewBidRepository(),
		repository.NewUserRepository(),
		settlement,
		ledger,
		publisher,
		redisClient,
	)
}

func Test_auctionDomain_Create(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	ctx = testutil.MockContextWithUserID(ctx, testutil.User1.ID)
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})

	_, err := domain.Create(ctx, &model.CreateAuctionRequest{
		StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		BidIncrement: 100, StartingPrice: 1000,
	})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.Create(ctx, &model.CreateAuctionRequest{
		Title: "backwards", StartTime: time.Now().Add(time.Hour), EndTime: time.Now(),
		BidIncrement: 100, StartingPrice: 1000,
	})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.Create(ctx, &model.CreateAuctionRequest{
		Title: "no increment", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour),
		BidIncrement: 0, StartingPrice: 1000,
	})
	requireErrorCode(t, err, errorx.BadRequest)

	// A start time in the past opens the auction immediately.
	resp, err := domain.Create(ctx, &model.CreateAuctionRequest{
		Title:         "vintage pack",
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
		BidIncrement:  100,
		StartingPrice: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AuctionOngoing), resp.Auction.Status)
	require.NotEmpty(t, resp.Auction.ID)

	// A future start time leaves it preparing.
	resp, err = domain.Create(ctx, &model.CreateAuctionRequest{
		Title:         "future pack",
		StartTime:     time.Now().Add(time.Hour),
		EndTime:       time.Now().Add(2 * time.Hour),
		BidIncrement:  100,
		StartingPrice: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AuctionPreparing), resp.Auction.Status)
}

func Test_auctionDomain_PlaceBid(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	publisher, published := capturePublisher()
	domain := newTestAuctionDomain(publisher, &testutil.MockRedisClient{})

	// Unauthenticated request.
	_, err := domain.PlaceBid(ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1000,
	})
	requireErrorCode(t, err, errorx.Unauthenticated)

	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	user3Ctx := testutil.MockContextWithUserID(ctx, testutil.User3.ID)

	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 0,
	})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: "no-such-auction", Amount: 1000,
	})
	requireErrorCode(t, err, errorx.NotFound)

	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 999,
	})
	requireErrorCode(t, err, errorx.BidTooLow)

	resp, err := domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1000,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1000), resp.Bid.Amount)
	require.Equal(t, 1, resp.Auction.BidCount)
	require.Equal(t, testutil.User2.ID, resp.Auction.LastBidderID)

	// The first accepted bid outbids nobody.
	require.Empty(t, published())

	// The highest bidder cannot immediately raise their own bid.
	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1100,
	})
	requireErrorCode(t, err, errorx.SameBidder)

	_, err = domain.PlaceBid(user3Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1099,
	})
	requireErrorCode(t, err, errorx.BidTooLow)

	resp, err = domain.PlaceBid(user3Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1100,
	})
	require.NoError(t, err)
	require.Equal(t, 2, resp.Auction.BidCount)
	require.Equal(t, testutil.User3.ID, resp.Auction.LastBidderID)

	// The previous bidder is told they lost the top spot.
	packs := published()
	require.Len(t, packs, 1)
	require.Equal(t, OutbidTopic, packs[0].Topic)

	var event model.OutbidEvent
	require.NoError(t, json.Unmarshal(packs[0].Pack.Msg, &event))
	require.Equal(t, testutil.Auction1.ID, event.AuctionID)
	require.Equal(t, testutil.User2.ID, event.UserID)
	require.Equal(t, int64(1100), event.NewAmount)

	// The full history survives in the bid table, ascending.
	bids, err := repository.NewBidRepository().GetByAuctionID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Len(t, bids, 2)
	require.Equal(t, int64(1000), bids[0].Amount)
	require.Equal(t, int64(1100), bids[1].Amount)
}

func Test_auctionDomain_PlaceBid_lazyStart(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})

	// The sweep has not visited this auction yet, but its start time passed.
	auction := &entity.Auction{
		Base:          entity.Base{ID: "sleepy"},
		Title:         "sleepy auction",
		CreatedBy:     testutil.User1.ID,
		StartTime:     time.Now().Add(-time.Minute),
		EndTime:       time.Now().Add(time.Hour),
		BidIncrement:  100,
		StartingPrice: 500,
		Status:        entity.AuctionPreparing,
	}
	require.NoError(t, repository.NewAuctionRepository().Create(ctx, auction))

	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	resp, err := domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: auction.ID, Amount: 500,
	})
	require.NoError(t, err)
	require.Equal(t, string(entity.AuctionOngoing), resp.Auction.Status)

	stored, err := repository.NewAuctionRepository().GetByID(ctx, auction.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionOngoing, stored.Status)
	require.Equal(t, 1, stored.BidCount)
}

func Test_auctionDomain_PlaceBid_softClose(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})

	auction := &entity.Auction{
		Base:          entity.Base{ID: "closing-soon"},
		Title:         "closing soon",
		CreatedBy:     testutil.User1.ID,
		StartTime:     time.Now().Add(-time.Hour),
		EndTime:       time.Now().Add(2 * time.Minute),
		BidExtMins:    5,
		BidIncrement:  100,
		StartingPrice: 500,
		Status:        entity.AuctionOngoing,
	}
	require.NoError(t, repository.NewAuctionRepository().Create(ctx, auction))

	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	resp, err := domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: auction.ID, Amount: 500,
	})
	require.NoError(t, err)

	endTime, err := time.Parse(time.RFC3339Nano, resp.Auction.EndTime)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), endTime, 10*time.Second)

	stored, err := repository.NewAuctionRepository().GetByID(ctx, auction.ID)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(5*time.Minute), stored.EndTime, 10*time.Second)
}

func Test_auctionDomain_PlaceBid_concurrent(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})

	userRepo := repository.NewUserRepository()
	const n = 5
	users := make([]string, n)
	for i := range users {
		user := &entity.User{Base: entity.Base{ID: "bidder" + string(rune('a'+i))}}
		user.Name = user.ID
		require.NoError(t, userRepo.Create(ctx, user))
		users[i] = user.ID
	}

	// Everyone goes for the same amount at once. Exactly one can win it.
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			userCtx := testutil.MockContextWithUserID(ctx, users[i])
			_, errs[i] = domain.PlaceBid(userCtx, &model.PlaceBidRequest{
				AuctionID: testutil.Auction1.ID, Amount: 1000,
			})
		}(i)
	}
	wg.Wait()

	accepted := 0
	for _, err := range errs {
		if err == nil {
			accepted++
		}
	}
	require.Equal(t, 1, accepted)

	auction, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, 1, auction.BidCount)
	require.Equal(t, int64(1000), auction.LastBidAmount)

	count, err := repository.NewBidRepository().Count(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)
}

func Test_auctionDomain_GetAuction_cache(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	cached := map[string]model.Auction{}
	redisClient := &testutil.MockRedisClient{
		SetObjFunc: func(ctx context.Context, key string, obj any, ttl time.Duration) error {
			cached[key] = obj.(model.Auction)
			return nil
		},
		GetObjFunc: func(ctx context.Context, key string, v any) error {
			view, ok := cached[key]
			if !ok {
				return errorx.New(errorx.NotFound, "not found")
			}

			*(v.(*model.Auction)) = view
			return nil
		},
	}
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, redisClient)

	// First read misses the cache and fills it from the database.
	resp, err := domain.GetAuction(ctx, &model.GetAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.Auction1.Title, resp.Auction.Title)
	require.Len(t, cached, 1)

	// Second read is served from the cache even if the row disappears.
	require.NoError(t, dropAuction(ctx, testutil.Auction1.ID))
	resp, err = domain.GetAuction(ctx, &model.GetAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	require.Equal(t, testutil.Auction1.Title, resp.Auction.Title)

	_, err = domain.GetAuction(ctx, &model.GetAuctionRequest{AuctionID: "no-such-auction"})
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_auctionDomain_MarkPaid(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	publisher, _ := capturePublisher()
	domain := newTestAuctionDomain(publisher, &testutil.MockRedisClient{})

	// Paying an auction that is still open must fail.
	_, err := domain.MarkPaid(ctx, &model.MarkAuctionPaidRequest{AuctionID: testutil.Auction1.ID})
	requireErrorCode(t, err, errorx.BadRequest)

	endedAuction(t, ctx, domain, testutil.Auction1.ID, testutil.User2.ID)

	_, err = domain.MarkPaid(ctx, &model.MarkAuctionPaidRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	stored, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionPaid, stored.Status)

	// The ENDED to PAID transition fires once.
	_, err = domain.MarkPaid(ctx, &model.MarkAuctionPaidRequest{AuctionID: testutil.Auction1.ID})
	requireErrorCode(t, err, errorx.BadRequest)
}

func Test_auctionDomain_Cancel(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)
	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})

	_, err := domain.Cancel(ctx, &model.CancelAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)

	stored, err := repository.NewAuctionRepository().GetByID(ctx, testutil.Auction1.ID)
	require.NoError(t, err)
	require.Equal(t, entity.AuctionCancelled, stored.Status)

	// A cancelled auction stays cancelled.
	_, err = domain.Cancel(ctx, &model.CancelAuctionRequest{AuctionID: testutil.Auction1.ID})
	requireErrorCode(t, err, errorx.BadRequest)

	// And rejects bids.
	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1000,
	})
	requireErrorCode(t, err, errorx.AuctionNotOpen)
}

func Test_auctionDomain_escrow(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	cfg := xcontext.Configs(ctx)
	cfg.Auction.EscrowEnabled = true
	ctx = testutil.MockContextWithConfigs(ctx, cfg)

	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})
	ledger := newTestLedgerDomain()

	for _, userID := range []string{testutil.User2.ID, testutil.User3.ID} {
		_, err := ledger.Append(ctx, &model.AppendCoinTransactionRequest{
			UserID: userID, Type: "purchase", Amount: 5000, Direction: model.DirectionDebit,
		})
		require.NoError(t, err)
	}

	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	user3Ctx := testutil.MockContextWithUserID(ctx, testutil.User3.ID)

	// User2 takes the top spot, their coins move to escrow.
	_, err := domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1000,
	})
	require.NoError(t, err)
	requireBalance(t, ctx, ledger, testutil.User2.ID, 4000)

	// User3 outbids, user2 gets their escrow back.
	_, err = domain.PlaceBid(user3Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1100,
	})
	require.NoError(t, err)
	requireBalance(t, ctx, ledger, testutil.User2.ID, 5000)
	requireBalance(t, ctx, ledger, testutil.User3.ID, 3900)

	// Settlement plus payment hands the escrowed coins to the seller.
	endedAuction(t, ctx, domain, testutil.Auction1.ID, "")
	_, err = domain.MarkPaid(ctx, &model.MarkAuctionPaidRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	requireBalance(t, ctx, ledger, testutil.User1.ID, 1100)
}

func Test_auctionDomain_Cancel_returnsEscrow(t *testing.T) {
	ctx := testutil.MockContext()
	testutil.CreateFixtureDb(ctx)

	cfg := xcontext.Configs(ctx)
	cfg.Auction.EscrowEnabled = true
	ctx = testutil.MockContextWithConfigs(ctx, cfg)

	domain := newTestAuctionDomain(&testutil.MockPublisher{}, &testutil.MockRedisClient{})
	ledger := newTestLedgerDomain()

	_, err := ledger.Append(ctx, &model.AppendCoinTransactionRequest{
		UserID: testutil.User2.ID, Type: "purchase", Amount: 5000, Direction: model.DirectionDebit,
	})
	require.NoError(t, err)

	user2Ctx := testutil.MockContextWithUserID(ctx, testutil.User2.ID)
	_, err = domain.PlaceBid(user2Ctx, &model.PlaceBidRequest{
		AuctionID: testutil.Auction1.ID, Amount: 1000,
	})
	require.NoError(t, err)
	requireBalance(t, ctx, ledger, testutil.User2.ID, 4000)

	// Cancelling with a standing bid hands the escrowed coins back.
	_, err = domain.Cancel(ctx, &model.CancelAuctionRequest{AuctionID: testutil.Auction1.ID})
	require.NoError(t, err)
	requireBalance(t, ctx, ledger, testutil.User2.ID, 5000)

	// A repeated cancel fails on the status guard and cannot refund twice.
	_, err = domain.Cancel(ctx, &model.CancelAuctionRequest{AuctionID: testutil.Auction1.ID})
	requireErrorCode(t, err, errorx.BadRequest)
	requireBalance(t, ctx, ledger, testutil.User2.ID, 5000)
}

func requireBalance(
	t *testing.T, ctx context.Context, ledger LedgerDomain, userID string, expected int64,
) {
	t.Helper()

	resp, err := ledger.GetBalance(ctx, &model.GetCoinBalanceRequest{UserID: userID})
	require.NoError(t, err)
	require.Equal(t, expected, resp.Balance)
}

// endedAuction forces the auction past its deadline and settles it. bidderID
// places a last-minute bid first when not empty.
func endedAuction(
	t *testing.T, ctx context.Context, domain *auctionDomain, auctionID, bidderID string,
) {
	t.Helper()

	if bidderID != "" {
		bidderCtx := testutil.MockContextWithUserID(ctx, bidderID)
		_, err := domain.PlaceBid(bidderCtx, &model.PlaceBidRequest{
			AuctionID: auctionID, Amount: 1000,
		})
		require.NoError(t, err)
	}

	expireAuction(t, ctx, auctionID)

	_, err := domain.MarkEnded(ctx, &model.MarkAuctionEndedRequest{AuctionID: auctionID})
	require.NoError(t, err)
}
