package entity

type User struct {
	Base
	Name string `gorm:"unique"`

	// CoinBalance mirrors the balance of the latest coin transaction. The
	// ledger is the source of truth, this column is a derived projection.
	CoinBalance int64
}
