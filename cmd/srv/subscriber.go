package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/packbid/backend/internal/common"
	"github.com/packbid/backend/internal/domain"
	"github.com/packbid/backend/internal/model"
	"github.com/packbid/backend/pkg/kafka"
	"github.com/packbid/backend/pkg/pubsub"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
)

// startSubscriber consumes won facts. Payment capture lives in another
// service, this worker only records the fact and drops the stale snapshot of
// the auction from the cache.
func (s *srv) startSubscriber(*cli.Context) error {
	s.loadConfig()
	s.loadLogger()
	s.loadRedisClient()

	cfg := xcontext.Configs(s.ctx)
	subscriber := kafka.NewSubscriber(
		"srv-subscriber",
		[]string{cfg.Kafka.Addr},
		[]string{domain.AuctionWonTopic},
		s.handleWonFact,
	)
	subscriber.Subscribe(s.ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return subscriber.Stop(s.ctx)
}

func (s *srv) handleWonFact(
	ctx context.Context, topic string, pack *pubsub.Pack, tm time.Time,
) {
	var event model.AuctionWonEvent
	if err := json.Unmarshal(pack.Msg, &event); err != nil {
		xcontext.Logger(s.ctx).Errorf("Cannot unmarshal won fact: %v", err)
		return
	}

	xcontext.Logger(s.ctx).Infof(
		"Auction %s won by %s at %d", event.AuctionID, event.WinnerID, event.Amount)

	if err := s.redisClient.Del(ctx, common.RedisKeyAuction(event.AuctionID)); err != nil {
		xcontext.Logger(s.ctx).Warnf("Cannot invalidate auction cache: %v", err)
	}
}
