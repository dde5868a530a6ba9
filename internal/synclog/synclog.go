// Package synclog keeps an append-only CSV history of sync runs next to the
// database, one row per run. It is the audit trail behind the status command.
package synclog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the sync log.
type Entry struct {
	Timestamp       time.Time
	Connection      string
	AccountsCreated int
	AccountsUpdated int
	Imported        int
	Failed          int
	Error           string
}

// Header is the CSV header for sync-log.csv.
const Header = "timestamp,connection,accounts_created,accounts_updated,imported,failed,error"

const (
	numFields          = 7
	logFile            = "sync-log.csv"
	colTimestamp       = 0
	colConnection      = 1
	colAccountsCreated = 2
	colAccountsUpdated = 3
	colImported        = 4
	colFailed          = 5
	colError           = 6
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colConnection] = e.Connection
	row[colAccountsCreated] = strconv.Itoa(e.AccountsCreated)
	row[colAccountsUpdated] = strconv.Itoa(e.AccountsUpdated)
	row[colImported] = strconv.Itoa(e.Imported)
	row[colFailed] = strconv.Itoa(e.Failed)
	row[colError] = e.Error
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

	e := Entry{
		Timestamp:  ts,
		Connection: record[colConnection],
		Error:      record[colError],
	}
	for _, field := range []struct {
		col  int
		dest *int
	}{
		{colAccountsCreated, &e.AccountsCreated},
		{colAccountsUpdated, &e.AccountsUpdated},
		{colImported, &e.Imported},
		{colFailed, &e.Failed},
	} {
		n, err := strconv.Atoi(record[field.col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[field.col], err)
		}
		*field.dest = n
	}
	return e, nil
}

// Append writes entries to <dataDir>/sync-log.csv, creating the file and
// header if needed.
func Append(dataDir string, entries []Entry) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(dataDir, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <dataDir>/sync-log.csv.
// Returns an empty slice if the file does not exist.
func Read(dataDir string) ([]Entry, error) {
	path := filepath.Join(dataDir, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening sync log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading sync log CSV: %w", err)
	}

	if len(records) <= 1 {
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
