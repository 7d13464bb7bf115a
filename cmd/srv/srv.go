package main

import (
	"context"
	"os"
	"strconv"
	"time"

	"github.com/packbid/backend/config"
	"github.com/packbid/backend/internal/domain"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/kafka"
	"github.com/packbid/backend/pkg/logger"
	"github.com/packbid/backend/pkg/pubsub"
	"github.com/packbid/backend/pkg/xcontext"
	"github.com/packbid/backend/pkg/xredis"
	"github.com/urfave/cli/v2"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

type srv struct {
	app *cli.App

	ctx context.Context

	userRepo            repository.UserRepository
	auctionRepo         repository.AuctionRepository
	bidRepo             repository.BidRepository
	packRepo            repository.PackRepository
	coinTransactionRepo repository.CoinTransactionRepository

	auctionDomain    domain.AuctionDomain
	settlementDomain domain.SettlementDomain
	ledgerDomain     domain.LedgerDomain

	publisher   pubsub.Publisher
	redisClient xredis.Client
}

func (s *srv) loadConfig() {
	cfg := config.Configs{
		Env:      getEnv("ENV", "local"),
		LogLevel: parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Database: config.DatabaseConfigs{
			Host:     getEnv("MYSQL_HOST", "localhost"),
			Port:     getEnv("MYSQL_PORT", "3306"),
			User:     getEnv("MYSQL_USER", "packbid"),
			Password: getEnv("MYSQL_PASSWORD", "packbid"),
			Database: getEnv("MYSQL_DATABASE", "packbid"),
		},
		Auction: config.AuctionConfigs{
			LockWaitTimeout:      parseDuration(getEnv("AUCTION_LOCK_WAIT_TIMEOUT", "3s")),
			AllowConsecutiveBids: parseBool(getEnv("AUCTION_ALLOW_CONSECUTIVE_BIDS", "false")),
			EscrowEnabled:        parseBool(getEnv("AUCTION_ESCROW_ENABLED", "false")),
			SweepInterval:        parseDuration(getEnv("AUCTION_SWEEP_INTERVAL", "30s")),
		},
		Redis: config.RedisConfigs{
			Addr: getEnv("REDIS_ADDR", "localhost:6379"),
		},
		Kafka: config.KafkaConfigs{
			Addr: getEnv("KAFKA_ADDR", "localhost:9092"),
		},
	}

	s.ctx = xcontext.WithConfigs(context.Background(), cfg)
}

func (s *srv) loadLogger() {
	level := xcontext.Configs(s.ctx).LogLevel
	s.ctx = xcontext.WithLogger(s.ctx, logger.NewLogger(level))
}

func (s *srv) loadDatabase() {
	cfg := xcontext.Configs(s.ctx)
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.Database.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
}

func (s *srv) loadRedisClient() {
	var err error
	s.redisClient, err = xredis.NewClient(s.ctx)
	if err != nil {
		panic(err)
	}
}

func (s *srv) loadPublisher() {
	cfg := xcontext.Configs(s.ctx)
	s.publisher = kafka.NewPublisher("srv", []string{cfg.Kafka.Addr})
}

func (s *srv) loadRepos() {
	s.userRepo = repository.NewUserRepository()
	s.auctionRepo = repository.NewAuctionRepository()
	s.bidRepo = repository.NewBidRepository()
	s.packRepo = repository.NewPackRepository()
	s.coinTransactionRepo = repository.NewCoinTransactionRepository()
}

func (s *srv) loadDomains() {
	s.ledgerDomain = domain.NewLedgerDomain(s.coinTransactionRepo, s.userRepo)
	s.settlementDomain = domain.NewSettlementDomain(
		s.auctionRepo, s.packRepo, s.ledgerDomain, s.publisher, s.redisClient)
	s.auctionDomain = domain.NewAuctionDomain(
		s.auctionRepo,
		s.bidRepo,
		s.userRepo,
		s.settlementDomain,
		s.ledgerDomain,
		s.publisher,
		s.redisClient,
	)
}

func getEnv(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return def
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		panic(err)
	}

	return d
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		panic(err)
	}

	return b
}

func parseLogLevel(s string) int {
	switch s {
	case "debug":
		return logger.DEBUG
	case "info":
		return logger.INFO
	case "warning":
		return logger.WARNING
	case "error":
		return logger.ERROR
	case "silence":
		return logger.SILENCE
	default:
		panic("invalid log level " + s)
	}
}
