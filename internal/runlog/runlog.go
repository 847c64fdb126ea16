// Package runlog keeps an append-only CSV audit log of import runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Entry is one row in the import log.
type Entry struct {
	Timestamp  time.Time
	BatchID    string
	File       string
	Parsed     int
	Imported   int
	Duplicates int
	Skipped    int
	Warnings   int
}

// Header is the CSV header for import-log.csv.
const Header = "timestamp,batch_id,file,parsed,imported,duplicates,skipped,warnings"

const (
	numFields     = 8
	logFile       = "logs/import-log.csv"
	colTimestamp  = 0
	colBatchID    = 1
	colFile       = 2
	colParsed     = 3
	colImported   = 4
	colDuplicates = 5
	colSkipped    = 6
	colWarnings   = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colBatchID] = e.BatchID
	row[colFile] = e.File
	row[colParsed] = strconv.Itoa(e.Parsed)
	row[colImported] = strconv.Itoa(e.Imported)
	row[colDuplicates] = strconv.Itoa(e.Duplicates)
	row[colSkipped] = strconv.Itoa(e.Skipped)
	row[colWarnings] = strconv.Itoa(e.Warnings)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	ints := make([]int, 5)
	for i, col := range []int{colParsed, colImported, colDuplicates, colSkipped, colWarnings} {
		ints[i], err = strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
	}

	return Entry{
		Timestamp:  ts,
		BatchID:    record[colBatchID],
		File:       record[colFile],
		Parsed:     ints[0],
		Imported:   ints[1],
		Duplicates: ints[2],
		Skipped:    ints[3],
		Warnings:   ints[4],
	}, nil
}

// Append adds entries to <root>/logs/import-log.csv, creating the file with
// a header if needed.
func Append(root string, entries []Entry) error {
	path := filepath.Join(root, logFile)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if isNew {
		if err := cw.Write(headerFields()); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for _, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
	}
	return cw.Error()
}

// Read loads all entries from <root>/logs/import-log.csv. A missing file is
// an empty log.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening import log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading import log: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func headerFields() []string {
	return []string{"timestamp", "batch_id", "file", "parsed", "imported", "duplicates", "skipped", "warnings"}
}
