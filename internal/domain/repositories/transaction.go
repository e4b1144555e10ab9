// Package repositories holds the storage contracts shared by every backend.
package repositories

import "context"

// TxFn runs with a context that carries the transaction.
// Repository calls made with that context take part in it.
type TxFn func(ctx context.Context) error

// TransactionManager groups repository calls into one atomic unit.
// Nested ExecTx calls join the outer transaction; fn's error rolls everything back.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
