package biz

import (
	"context"
	"database/sql"

	"github.com/orphancare/charity-service/pkg/txretry"
)

// Transaction is the interface for managing database transactions.
// Defined in biz layer, implemented by data/infra layer.
//
// InTx runs fn inside one isolated transaction and runs it again, on a fresh
// transaction, when it fails with a transient store error. fn must have no
// effects outside the transaction because failed attempts are rolled back.
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error, opts ...TxOption) error
}

// TxOptions controls a single InTx call.
type TxOptions struct {
	Isolation sql.IsolationLevel
	Retry     txretry.Policy
}

// TxOption overrides a field of TxOptions.
type TxOption func(*TxOptions)

// WithIsolation sets the transaction isolation level.
func WithIsolation(level sql.IsolationLevel) TxOption {
	return func(o *TxOptions) { o.Isolation = level }
}

// WithRetryPolicy replaces the retry policy.
func WithRetryPolicy(p txretry.Policy) TxOption {
	return func(o *TxOptions) { o.Retry = p }
}

// NewTxOptions applies opts on top of base.
func NewTxOptions(base TxOptions, opts ...TxOption) TxOptions {
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// DefaultTxOptions is READ COMMITTED with txretry.DefaultPolicy.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		Isolation: sql.LevelReadCommitted,
		Retry:     txretry.DefaultPolicy(),
	}
}
