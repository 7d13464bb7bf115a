package cron

import (
	"context"
	"errors"
	"time"

	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

// StartAuctionsCronJob opens every auction whose start time has passed.
type StartAuctionsCronJob struct {
	auctionRepo repository.AuctionRepository
	interval    time.Duration
}

func NewStartAuctionsCronJob(
	auctionRepo repository.AuctionRepository, interval time.Duration,
) *StartAuctionsCronJob {
	return &StartAuctionsCronJob{auctionRepo: auctionRepo, interval: interval}
}

func (job *StartAuctionsCronJob) Do(ctx context.Context) {
	now := time.Now()
	auctions, err := job.auctionRepo.GetStartDue(ctx, now)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get start due auctions: %v", err)
		return
	}

	for _, auction := range auctions {
		err := job.auctionRepo.CheckAndStart(ctx, auction.ID, now)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot start auction %s: %v", auction.ID, err)
		}
	}
}

func (job *StartAuctionsCronJob) RunNow() bool {
	return true
}

func (job *StartAuctionsCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
