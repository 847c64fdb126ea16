package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bankfeed-dev/bankfeed/internal/dedupe"
	"github.com/bankfeed-dev/bankfeed/internal/model"
)

// Header is the CSV header for transactions.csv.
const Header = "date,description,merchant,account,amount,raw_sign,category,subcategory,budget_group,income,expense,transfer,reversal,ignored,confidence,month_year,signature"

const (
	numFields   = 17
	dateFormat  = "2006-01-02"
	colDate     = 0
	colDesc     = 1
	colMerchant = 2
	colAccount  = 3
	colAmount   = 4
	colRawSign  = 5
	colCategory = 6
	colSubcat   = 7
	colBudget   = 8
	colIncome   = 9
	colExpense  = 10
	colTransfer = 11
	colReversal = 12
	colIgnored  = 13
	colConf     = 14
	colMonth    = 15
	colSig      = 16
)

// transactionsFile is the store file relative to the data directory root.
const transactionsFile = "data/transactions.csv"

// CSVStore persists classified transactions in a single CSV file under a
// data directory. It implements Store.
type CSVStore struct {
	root string
}

// NewCSVStore creates a store rooted at dir.
func NewCSVStore(dir string) *CSVStore {
	return &CSVStore{root: dir}
}

// Path returns the absolute transactions file path.
func (s *CSVStore) Path() string {
	return filepath.Join(s.root, transactionsFile)
}

// LoadTransactions reads all stored transactions. A missing file is an
// empty store.
func (s *CSVStore) LoadTransactions(ctx context.Context) ([]model.ClassifiedTransaction, error) {
	f, err := os.Open(s.Path())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	return ReadTransactions(f)
}

// ExistingSignatures returns the signature set of all stored transactions.
func (s *CSVStore) ExistingSignatures(ctx context.Context) (map[string]struct{}, error) {
	txs, err := s.LoadTransactions(ctx)
	if err != nil {
		return nil, err
	}

	sigs := make(map[string]struct{}, len(txs))
	for _, tx := range txs {
		sigs[dedupe.Signature(tx.Transaction)] = struct{}{}
	}
	return sigs, nil
}

// SaveTransactions appends transactions to the store file, writing the
// header first when the file is new.
func (s *CSVStore) SaveTransactions(ctx context.Context, txs []model.ClassifiedTransaction) error {
	if len(txs) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	_, statErr := os.Stat(s.Path())
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer f.Close()

	if isNew {
		return WriteTransactions(f, txs)
	}
	return AppendTransactions(f, txs)
}

// ReadTransactions reads all transactions from a transactions.csv reader.
func ReadTransactions(r io.Reader) ([]model.ClassifiedTransaction, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading transactions CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	// Skip header row.
	var txs []model.ClassifiedTransaction
	for i, rec := range records[1:] {
		tx, err := UnmarshalTransaction(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// WriteTransactions writes transactions (including header).
func WriteTransactions(w io.Writer, txs []model.ClassifiedTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	return cw.Error()
}

// AppendTransactions appends transactions without a header.
func AppendTransactions(w io.Writer, txs []model.ClassifiedTransaction) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	for i, tx := range txs {
		if err := cw.Write(MarshalTransaction(tx)); err != nil {
			return fmt.Errorf("writing row %d: %w", i, err)
		}
	}
	return cw.Error()
}

// MarshalTransaction converts a transaction to a CSV row.
func MarshalTransaction(tx model.ClassifiedTransaction) []string {
	row := make([]string, numFields)
	row[colDate] = tx.Date.Format(dateFormat)
	row[colDesc] = tx.Description
	row[colMerchant] = tx.Merchant
	row[colAccount] = tx.Account
	row[colAmount] = tx.Amount.StringFixed(2)
	row[colRawSign] = tx.RawSign.StringFixed(2)
	row[colCategory] = string(tx.Category)
	row[colSubcat] = tx.Subcategory
	row[colBudget] = tx.BudgetGroup
	row[colIncome] = marshalBool(tx.IsIncome)
	row[colExpense] = marshalBool(tx.IsExpense)
	row[colTransfer] = marshalBool(tx.IsTransfer)
	row[colReversal] = marshalBool(tx.IsReversal)
	row[colIgnored] = marshalBool(tx.IsIgnored)
	row[colConf] = strconv.FormatFloat(tx.Confidence, 'f', -1, 64)
	row[colMonth] = tx.MonthYear
	row[colSig] = dedupe.Signature(tx.Transaction)
	return row
}

// UnmarshalTransaction converts a CSV row to a transaction.
func UnmarshalTransaction(record []string) (model.ClassifiedTransaction, error) {
	if len(record) != numFields {
		return model.ClassifiedTransaction{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	date, err := time.Parse(dateFormat, record[colDate])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing date %q: %w", record[colDate], err)
	}

	amount, err := decimal.NewFromString(record[colAmount])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing amount %q: %w", record[colAmount], err)
	}

	rawSign, err := decimal.NewFromString(record[colRawSign])
	if err != nil {
		return model.ClassifiedTransaction{}, fmt.Errorf("parsing raw_sign %q: %w", record[colRawSign], err)
	}

	confidence := 0.0
	if record[colConf] != "" {
		confidence, err = strconv.ParseFloat(record[colConf], 64)
		if err != nil {
			return model.ClassifiedTransaction{}, fmt.Errorf("parsing confidence %q: %w", record[colConf], err)
		}
	}

	return model.ClassifiedTransaction{
		Transaction: model.Transaction{
			Date:        date,
			Description: record[colDesc],
			Merchant:    record[colMerchant],
			Account:     record[colAccount],
			Amount:      amount,
			RawSign:     rawSign,
		},
		Category:    model.Category(record[colCategory]),
		Subcategory: record[colSubcat],
		BudgetGroup: record[colBudget],
		IsIncome:    record[colIncome] == "true",
		IsExpense:   record[colExpense] == "true",
		IsTransfer:  record[colTransfer] == "true",
		IsReversal:  record[colReversal] == "true",
		IsIgnored:   record[colIgnored] == "true",
		Confidence:  confidence,
		MonthYear:   record[colMonth],
	}, nil
}

func marshalBool(b bool) string {
	if b {
		return "true"
	}
	return ""
}
