package entity

import (
	"context"

	"github.com/packbid/backend/pkg/xcontext"
)

func MigrateTable(ctx context.Context) error {
	return xcontext.DB(ctx).AutoMigrate(
		&User{},
		&Auction{},
		&Bid{},
		&Pack{},
		&PackAuction{},
		&CoinTransaction{},
	)
}
