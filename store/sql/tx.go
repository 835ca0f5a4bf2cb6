package sqlstore

import (
	"context"

	"github.com/uptrace/bun"
)

type txContextKey struct{}

// ContextWithTx makes store writes join tx instead of opening their own
// transaction. The caller owns commit and rollback.
func ContextWithTx(ctx context.Context, tx bun.Tx) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, txContextKey{}, tx)
}

func txFromContext(ctx context.Context) (bun.Tx, bool) {
	if ctx == nil {
		return bun.Tx{}, false
	}
	tx, ok := ctx.Value(txContextKey{}).(bun.Tx)
	return tx, ok
}
