package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/packbid/backend/config"
	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/pkg/logger"
	"github.com/packbid/backend/pkg/xcontext"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// MockContext returns a context carrying a fresh in-memory database and test
// configurations. The database is named so every connection of the pool sees
// the same tables.
func MockContext() context.Context {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		panic(err)
	}

	// A single connection keeps concurrent tests away from sqlite table
	// locks. Statements queue at the pool instead of failing with a locked
	// database.
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	cfg := config.Configs{
		Env: "testing",
		Auction: config.AuctionConfigs{
			LockWaitTimeout:      time.Second,
			AllowConsecutiveBids: false,
			EscrowEnabled:        false,
			SweepInterval:        time.Minute,
		},
	}

	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, cfg)
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.ERROR))
	ctx = xcontext.WithDB(ctx, db)

	if err := entity.MigrateTable(ctx); err != nil {
		panic(err)
	}

	return ctx
}

func MockContextWithUserID(ctx context.Context, userID string) context.Context {
	return xcontext.WithRequestUserID(ctx, userID)
}

func MockContextWithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return xcontext.WithConfigs(ctx, cfg)
}
