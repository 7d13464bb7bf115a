package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/packbid/backend/internal/common"
	"github.com/packbid/backend/internal/entity"
	"github.com/packbid/backend/internal/model"
	"github.com/packbid/backend/internal/repository"
	"github.com/packbid/backend/pkg/enum"
	"github.com/packbid/backend/pkg/errorx"
	"github.com/packbid/backend/pkg/xcontext"
	"gorm.io/gorm"
)

const ledgerLockTimeout = 5 * time.Second

type LedgerDomain interface {
	Append(context.Context, *model.AppendCoinTransactionRequest) (*model.AppendCoinTransactionResponse, error)
	GetBalance(context.Context, *model.GetCoinBalanceRequest) (*model.GetCoinBalanceResponse, error)
	GetMyTransactions(context.Context, *model.GetMyCoinTransactionsRequest) (*model.GetMyCoinTransactionsResponse, error)
}

type ledgerDomain struct {
	coinTransactionRepo repository.CoinTransactionRepository
	userRepo            repository.UserRepository
	userLocks           *common.KeyLocker
}

func NewLedgerDomain(
	coinTransactionRepo repository.CoinTransactionRepository,
	userRepo repository.UserRepository,
) *ledgerDomain {
	return &ledgerDomain{
		coinTransactionRepo: coinTransactionRepo,
		userRepo:            userRepo,
		userLocks:           common.NewKeyLocker(),
	}
}

// Append writes one ledger entry and the derived balance projection in a
// single transaction. Appends for the same user are serialized, so the new
// balance is never computed from a stale prior balance.
func (d *ledgerDomain) Append(
	ctx context.Context, req *model.AppendCoinTransactionRequest,
) (*model.AppendCoinTransactionResponse, error) {
	if req.UserID == "" {
		return nil, errorx.New(errorx.BadRequest, "Not found user id")
	}

	if req.Amount <= 0 {
		return nil, errorx.New(errorx.BadRequest, "Amount must be a positive number")
	}

	if req.Direction != model.DirectionDebit && req.Direction != model.DirectionCredit {
		return nil, errorx.New(errorx.BadRequest, "Invalid direction %s", req.Direction)
	}

	txType, err := enum.ToEnum[entity.CoinTransactionType](req.Type)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Invalid coin transaction type: %v", err)
		return nil, errorx.New(errorx.BadRequest, "Invalid transaction type %s", req.Type)
	}

	if _, err := d.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		xcontext.Logger(ctx).Errorf("Cannot get user: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userLocks.Acquire(ctx, req.UserID, ledgerLockTimeout); err != nil {
		xcontext.Logger(ctx).Warnf("Cannot acquire ledger lock of user %s: %v", req.UserID, err)
		return nil, errorx.New(errorx.Contention, "Too many concurrent balance changes, try again")
	}
	defer d.userLocks.Release(req.UserID)

	ctx = xcontext.WithDBTransaction(ctx)
	defer xcontext.WithRollbackDBTransaction(ctx)

	lastSeq := int64(0)
	lastBalance := int64(0)
	last, err := d.coinTransactionRepo.GetLastByUserID(ctx, req.UserID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get last coin transaction: %v", err)
		return nil, errorx.Unknown
	}

	if err == nil {
		lastSeq = last.Seq
		lastBalance = last.Balance
	}

	debit, credit := int64(0), int64(0)
	if req.Direction == model.DirectionDebit {
		debit = req.Amount
	} else {
		credit = req.Amount
	}

	newBalance := lastBalance + debit - credit
	if newBalance < 0 {
		return nil, errorx.New(errorx.Unavailable, "Not enough coins")
	}

	coinTx := &entity.CoinTransaction{
		Base:    entity.Base{ID: uuid.NewString()},
		UserID:  req.UserID,
		Seq:     lastSeq + 1,
		Type:    txType,
		Debit:   debit,
		Credit:  credit,
		Balance: newBalance,
		Note:    req.Note,
	}

	if err := d.coinTransactionRepo.Create(ctx, coinTx); err != nil {
		if common.IsUniqueViolation(err) {
			return nil, errorx.New(errorx.Contention, "Concurrent balance change, try again")
		}

		xcontext.Logger(ctx).Errorf("Cannot create coin transaction: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.userRepo.UpdateCoinBalance(ctx, req.UserID, newBalance); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update coin balance projection: %v", err)
		return nil, errorx.Unknown
	}

	ctx = xcontext.WithCommitDBTransaction(ctx)

	tx := convertCoinTransaction(coinTx)
	return &model.AppendCoinTransactionResponse{Transaction: tx}, nil
}

func (d *ledgerDomain) GetBalance(
	ctx context.Context, req *model.GetCoinBalanceRequest,
) (*model.GetCoinBalanceResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = xcontext.RequestUserID(ctx)
	}

	last, err := d.coinTransactionRepo.GetLastByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &model.GetCoinBalanceResponse{Balance: 0}, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get last coin transaction: %v", err)
		return nil, errorx.Unknown
	}

	return &model.GetCoinBalanceResponse{Balance: last.Balance}, nil
}

func (d *ledgerDomain) GetMyTransactions(
	ctx context.Context, req *model.GetMyCoinTransactionsRequest,
) (*model.GetMyCoinTransactionsResponse, error) {
	txs, err := d.coinTransactionRepo.GetByUserID(ctx, xcontext.RequestUserID(ctx))
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get coin transactions by user id: %v", err)
		return nil, errorx.Unknown
	}

	clientTxs := []model.CoinTransaction{}
	for _, tx := range txs {
		clientTxs = append(clientTxs, convertCoinTransaction(&tx))
	}

	return &model.GetMyCoinTransactionsResponse{Transactions: clientTxs}, nil
}
