package aggregates

import (
	"context"

	"gorm.io/gorm"

	"github.com/yungbote/learnpath-backend/internal/domain/learningpath"
	"github.com/yungbote/learnpath-backend/internal/platform/dbctx"
)

// TxRunner provides a shared transaction boundary primitive for path writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db *gorm.DB
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
// A non-nil error from fn rolls the transaction back before it is returned.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return learningpath.NewError(learningpath.ClassInternal, learningpath.KindPersistenceFailed, "tx", "transaction runner has nil db", nil)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
