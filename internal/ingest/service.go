// Package ingest runs the import pipeline: parse each feed file, map its
// columns, normalize and classify every row, then reconcile the merged
// batch (reversal pairs, duplicates) against the transaction store.
package ingest

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bankfeed-dev/bankfeed/internal/categorizer"
	"github.com/bankfeed-dev/bankfeed/internal/classify"
	"github.com/bankfeed-dev/bankfeed/internal/columns"
	"github.com/bankfeed-dev/bankfeed/internal/csvparse"
	"github.com/bankfeed-dev/bankfeed/internal/dedupe"
	"github.com/bankfeed-dev/bankfeed/internal/logger"
	"github.com/bankfeed-dev/bankfeed/internal/model"
	"github.com/bankfeed-dev/bankfeed/internal/normalize"
	"github.com/bankfeed-dev/bankfeed/internal/reversal"
	"github.com/bankfeed-dev/bankfeed/internal/store"
)

// mappingSampleSize is how many body rows feed the positional column
// fallback.
const mappingSampleSize = 5

// Service wires the pipeline stages together for one workspace.
type Service struct {
	Store      store.Store
	Classifier *classify.Classifier
	Detector   *reversal.Detector
	Dates      *normalize.DateNormalizer
	Refiner    *categorizer.Engine // nil disables the model pass

	// BankHint forces a bank column profile for every file. Empty means
	// infer from each file name.
	BankHint string
}

// NewService builds a Service with default pipeline stages.
func NewService(st store.Store) *Service {
	return &Service{
		Store:      st,
		Classifier: classify.NewDefault(),
		Detector:   reversal.NewDetector(),
		Dates:      normalize.NewDateNormalizer(),
	}
}

// FileResult is the per-file outcome of one import run. Imported and
// Duplicates are filled in after batch-level reconciliation; in-batch
// duplicates are attributed to the file that saw the transaction first.
type FileResult struct {
	File         string
	Transactions []model.ClassifiedTransaction
	Warnings     []model.Warning
	Parsed       int
	Skipped      int
	Imported     int
	Duplicates   int
	Err          error
}

// BatchResult is the outcome of importing a set of feed files as one batch.
type BatchResult struct {
	BatchID    string
	Files      []FileResult
	Imported   []model.ClassifiedTransaction
	Duplicates []model.ClassifiedTransaction
	Pairs      []model.ReversalPair
	Refined    int
}

// Warnings counts row-level warnings across all files in the batch.
func (b BatchResult) Warnings() int {
	n := 0
	for _, f := range b.Files {
		n += len(f.Warnings)
	}
	return n
}

// ProcessFile runs the per-file stages on one CSV blob. Row-level problems
// become warnings and defaults; only whole-file conditions (unparseable,
// unmappable) fail.
func (s *Service) ProcessFile(name, content string) FileResult {
	res := FileResult{File: name}

	doc, err := csvparse.Parse(content)
	if err != nil {
		res.Err = fmt.Errorf("parsing %s: %w", name, err)
		return res
	}
	res.Parsed = doc.Report.DataRows
	res.Skipped = len(doc.Report.Skipped)
	for _, w := range doc.Warnings {
		res.Warnings = append(res.Warnings, model.Warning{Line: w.Line, Field: "row", Message: w.Message})
	}

	hint := s.BankHint
	if hint == "" {
		hint = name
	}
	mapping, err := columns.Map(doc.Headers, sampleRows(doc.Rows, mappingSampleSize), hint)
	if err != nil {
		res.Err = fmt.Errorf("mapping columns in %s: %w", name, err)
		return res
	}

	merchantCol := findColumn(doc.Headers, mapping, "merchant", "payee", "other party", "card holder")
	accountCol := findColumn(doc.Headers, mapping, "account", "account number")
	typeCol := findColumn(doc.Headers, mapping, "type", "tran type", "transaction type", "code")

	for i, row := range doc.Rows {
		line := i + 1

		date, warn := s.Dates.Normalize(cell(row, mapping[columns.FieldDate].Index), line)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}
		amount, warn := normalize.NormalizeAmount(cell(row, mapping[columns.FieldAmount].Index), line)
		if warn != nil {
			res.Warnings = append(res.Warnings, *warn)
		}

		tx := model.Transaction{
			Date:        date,
			Description: strings.TrimSpace(cell(row, mapping[columns.FieldDescription].Index)),
			Merchant:    strings.TrimSpace(cell(row, merchantCol)),
			Account:     strings.TrimSpace(cell(row, accountCol)),
			RawSign:     amount,
		}
		meta := classify.Metadata{TypeCode: strings.TrimSpace(cell(row, typeCol))}

		res.Transactions = append(res.Transactions, s.Classifier.Classify(tx, meta))
	}
	return res
}

// Run imports a set of feed files as one batch. Files are parsed
// concurrently and merged in input order, so results are deterministic
// regardless of scheduling.
func (s *Service) Run(ctx context.Context, files []FileInfo) (BatchResult, error) {
	log := logger.FromContext(ctx)
	batch := BatchResult{
		BatchID: uuid.NewString(),
		Files:   make([]FileResult, len(files)),
	}

	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := os.ReadFile(f.Path)
			if err != nil {
				batch.Files[i] = FileResult{File: f.Name, Err: fmt.Errorf("reading %s: %w", f.Name, err)}
				return
			}
			batch.Files[i] = s.ProcessFile(f.Name, string(data))
		}()
	}
	wg.Wait()

	var txs []model.ClassifiedTransaction
	for _, fr := range batch.Files {
		if fr.Err != nil {
			log.Warn().Err(fr.Err).Str("file", fr.File).Msg("skipping file")
			continue
		}
		txs = append(txs, fr.Transactions...)
	}
	if len(txs) == 0 {
		return batch, nil
	}

	if s.Refiner != nil {
		batch.Refined = s.Refiner.Refine(ctx, txs)
	}

	survivors, pairs := s.Detector.Detect(txs)
	batch.Pairs = pairs
	for _, p := range pairs {
		survivors = append(survivors, markReversal(p.Debit), markReversal(p.Credit))
	}

	existing, err := s.Store.ExistingSignatures(ctx)
	if err != nil {
		return batch, fmt.Errorf("loading signatures: %w", err)
	}
	batch.Imported, batch.Duplicates = dedupe.Filter(survivors, existing)
	s.attribute(&batch)

	if errs := classify.Validate(batch.Imported); len(errs) > 0 {
		return batch, fmt.Errorf("classification invariants violated: %v", errs[0])
	}

	if len(batch.Imported) > 0 {
		if err := s.Store.SaveTransactions(ctx, batch.Imported); err != nil {
			return batch, fmt.Errorf("saving batch %s: %w", batch.BatchID, err)
		}
	}

	log.Info().
		Str("batch_id", batch.BatchID).
		Int("files", len(files)).
		Int("imported", len(batch.Imported)).
		Int("duplicates", len(batch.Duplicates)).
		Int("reversal_pairs", len(pairs)).
		Int("refined", batch.Refined).
		Msg("import complete")
	return batch, nil
}

// attribute maps reconciled transactions back to their source files by
// signature so the audit log can report per-file counts.
func (s *Service) attribute(batch *BatchResult) {
	sigToFile := make(map[string]int)
	for idx, fr := range batch.Files {
		for _, tx := range fr.Transactions {
			sig := dedupe.Signature(tx.Transaction)
			if _, ok := sigToFile[sig]; !ok {
				sigToFile[sig] = idx
			}
		}
	}
	for _, tx := range batch.Imported {
		if idx, ok := sigToFile[dedupe.Signature(tx.Transaction)]; ok {
			batch.Files[idx].Imported++
		}
	}
	for _, tx := range batch.Duplicates {
		if idx, ok := sigToFile[dedupe.Signature(tx.Transaction)]; ok {
			batch.Files[idx].Duplicates++
		}
	}
}

// markReversal flags one side of a detected pair so it is stored but
// excluded from aggregation.
func markReversal(tx model.ClassifiedTransaction) model.ClassifiedTransaction {
	tx.Category = model.CategoryReversal
	tx.Subcategory = ""
	tx.BudgetGroup = ""
	tx.IsIncome = false
	tx.IsExpense = false
	tx.IsTransfer = false
	tx.IsReversal = true
	tx.IsIgnored = true
	return tx
}

// cell returns row[idx], tolerating idx -1 (column absent) and ragged rows.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// findColumn locates an optional column by exact normalized header name,
// skipping columns already claimed by the mapping. Returns -1 when absent.
func findColumn(headers []string, mapping columns.Mapping, names ...string) int {
	claimed := make(map[int]bool, len(mapping))
	for _, m := range mapping {
		claimed[m.Index] = true
	}
	for i, h := range headers {
		if claimed[i] {
			continue
		}
		norm := strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if norm == name {
				return i
			}
		}
	}
	return -1
}

func sampleRows(rows [][]string, n int) [][]string {
	if len(rows) < n {
		return rows
	}
	return rows[:n]
}
