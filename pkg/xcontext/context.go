package xcontext

import (
	"context"

	"github.com/packbid/backend/config"
	"github.com/packbid/backend/pkg/logger"
	"gorm.io/gorm"
)

type (
	dbKey      struct{}
	txKey      struct{}
	loggerKey  struct{}
	configsKey struct{}
	userIDKey  struct{}
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DB returns the database transaction in the context if one began, otherwise
// the root database handle.
func DB(ctx context.Context) *gorm.DB {
	if tx := ctx.Value(txKey{}); tx != nil {
		return tx.(*gorm.DB)
	}

	db := ctx.Value(dbKey{})
	if db == nil {
		panic("no database in context")
	}

	return db.(*gorm.DB)
}

// WithDBTransaction begins a transaction and replaces the returned value of
// DB() by it. Nested calls keep the outer transaction.
func WithDBTransaction(ctx context.Context) context.Context {
	if ctx.Value(txKey{}) != nil {
		return ctx
	}

	return context.WithValue(ctx, txKey{}, DB(ctx).Begin())
}

// WithCommitDBTransaction commits the current transaction if it exists.
func WithCommitDBTransaction(ctx context.Context) context.Context {
	tx := ctx.Value(txKey{})
	if tx == nil {
		return ctx
	}

	tx.(*gorm.DB).Commit()
	return context.WithValue(ctx, txKey{}, nil)
}

// WithRollbackDBTransaction rollbacks the current transaction if it exists.
// It is a no-op after a commit.
func WithRollbackDBTransaction(ctx context.Context) context.Context {
	tx := ctx.Value(txKey{})
	if tx == nil {
		return ctx
	}

	tx.(*gorm.DB).Rollback()
	return context.WithValue(ctx, txKey{}, nil)
}

func WithLogger(ctx context.Context, l logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

func Logger(ctx context.Context) logger.Logger {
	l := ctx.Value(loggerKey{})
	if l == nil {
		panic("no logger in context")
	}

	return l.(logger.Logger)
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg := ctx.Value(configsKey{})
	if cfg == nil {
		panic("no configs in context")
	}

	return cfg.(config.Configs)
}

func WithRequestUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, id)
}

func RequestUserID(ctx context.Context) string {
	id := ctx.Value(userIDKey{})
	if id == nil {
		return ""
	}

	return id.(string)
}
