package main

import (
	"github.com/packbid/backend/internal/domain/cron"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

func (s *srv) startCron(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadDatabase()
	s.loadRedisClient()
	s.loadPublisher()
	s.loadRepos()
	s.loadDomains()

	interval := xcontext.Configs(s.ctx).Auction.SweepInterval
	cron.NewCronJobManager().Start(s.ctx,
		cron.NewStartAuctionsCronJob(s.auctionRepo, interval),
		cron.NewCloseAuctionsCronJob(s.auctionRepo, s.settlementDomain, interval),
	)

	return nil
}
