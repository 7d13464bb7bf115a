package model

type CoinTransaction struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	Type      string `json:"type"`
	Debit     int64  `json:"debit"`
	Credit    int64  `json:"credit"`
	Balance   int64  `json:"balance"`
	Note      string `json:"note"`
}

const (
	DirectionDebit  = "debit"
	DirectionCredit = "credit"
)

type AppendCoinTransactionRequest struct {
	UserID    string `json:"user_id"`
	Type      string `json:"type"`
	Amount    int64  `json:"amount"`
	Direction string `json:"direction"`
	Note      string `json:"note"`
}

type AppendCoinTransactionResponse struct {
	Transaction CoinTransaction `json:"transaction"`
}

type GetCoinBalanceRequest struct {
	UserID string `json:"user_id"`
}

type GetCoinBalanceResponse struct {
	Balance int64 `json:"balance"`
}

type GetMyCoinTransactionsRequest struct{}

type GetMyCoinTransactionsResponse struct {
	Transactions []CoinTransaction `json:"transactions"`
}
