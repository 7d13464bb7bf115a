package common

import "fmt"

func RedisKeyAuction(auctionID string) string {
	return fmt.Sprintf("auction:%s", auctionID)
}
