package cron

import (
	"context"
	"time"

	"github.com/packbid/backend/internal/domain"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/xcontext"
)

// CloseAuctionsCronJob sweeps ongoing auctions past their deadline and runs
// settlement for each. Settlement is idempotent, so an auction picked up by
// two overlapping sweeps settles once.
type CloseAuctionsCronJob struct {
	auctionRepo repository.AuctionRepository
	settlement  domain.SettlementDomain
	interval    time.Duration
}

func NewCloseAuctionsCronJob(
	auctionRepo repository.AuctionRepository,
	settlement domain.SettlementDomain,
	interval time.Duration,
) *CloseAuctionsCronJob {
	return &CloseAuctionsCronJob{
		auctionRepo: auctionRepo,
		settlement:  settlement,
		interval:    interval,
	}
}

func (job *CloseAuctionsCronJob) Do(ctx context.Context) {
	auctions, err := job.auctionRepo.GetEndDue(ctx, time.Now())
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get end due auctions: %v", err)
		return
	}

	for _, auction := range auctions {
		if err := job.settlement.Settle(ctx, auction.ID); err != nil {
			// The next sweep retries, settlement is idempotent.
			xcontext.Logger(ctx).Errorf("Cannot settle auction %s: %v", auction.ID, err)
		}
	}
}

func (job *CloseAuctionsCronJob) RunNow() bool {
	return true
}

func (job *CloseAuctionsCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
