package config

import (
	"fmt"
	"time"
)

type Configs struct {
	Env string

	// LogLevel takes the values of pkg/logger.
	LogLevel int

	Database DatabaseConfigs
	Auction  AuctionConfigs
	Redis    RedisConfigs
	Kafka    KafkaConfigs
}

type DatabaseConfigs struct {
	Host     string
	Port     string
	Database string
	User     string
	Password string
}

func (d *DatabaseConfigs) ConnectionString() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		d.User,
		d.Password,
		d.Host,
		d.Port,
		d.Database,
	)
}

type AuctionConfigs struct {
	// LockWaitTimeout bounds how long a bid waits for the per-auction lock
	// before failing with a retryable contention error.
	LockWaitTimeout time.Duration

	// AllowConsecutiveBids lets the current highest bidder outbid themselves.
	AllowConsecutiveBids bool

	// EscrowEnabled makes every accepted bid debit the bidder's coin balance
	// and refund the previously escrowed bidder.
	EscrowEnabled bool

	// SweepInterval is the period of the start/close cron sweeps.
	SweepInterval time.Duration
}

type RedisConfigs struct {
	Addr string
}

type KafkaConfigs struct {
	Addr string
}
