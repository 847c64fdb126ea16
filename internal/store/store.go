// Package store defines the narrow persistence contracts consumed by the
// ingestion pipeline, plus a local CSV-file implementation for the CLI. The
// pipeline itself never persists anything; it only talks to these
// interfaces.
package store

import (
	"context"

	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// SignatureReader supplies the content signatures of already-stored
// transactions for duplicate suppression.
type SignatureReader interface {
	ExistingSignatures(ctx context.Context) (map[string]struct{}, error)
}

// TransactionWriter accepts the final normalized, classified list.
type TransactionWriter interface {
	SaveTransactions(ctx context.Context, txs []model.ClassifiedTransaction) error
}

// TransactionReader loads the full stored transaction set for reporting.
type TransactionReader interface {
	LoadTransactions(ctx context.Context) ([]model.ClassifiedTransaction, error)
}

// Store combines the read and write sides.
type Store interface {
	SignatureReader
	TransactionWriter
	TransactionReader
}
