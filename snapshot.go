package holdings

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// TimestampLayout is the ISO 8601 basic format used in snapshot file names.
const TimestampLayout = "20060102T150405"

// Snapshot is the reconciled holdings of one account at one point in time.
type Snapshot struct {
	AccountID string
	Time      time.Time
	Holdings  []Holding
}

// FileName returns the snapshot's base file name, without extension:
// "{accountID}-{timestamp}".
func (s Snapshot) FileName() string {
	return s.AccountID + "-" + s.Time.Format(TimestampLayout)
}

// EncodeJSON writes holdings as a JSON array.
func EncodeJSON(w io.Writer, holdings []Holding) error {
	if holdings == nil {
		holdings = []Holding{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(holdings)
}

// DecodeJSON reads holdings written by EncodeJSON.
func DecodeJSON(r io.Reader) ([]Holding, error) {
	var holdings []Holding
	if err := json.NewDecoder(r).Decode(&holdings); err != nil {
		return nil, fmt.Errorf("cannot decode holdings: %w", err)
	}
	return holdings, nil
}

// EncodeCSV writes holdings as CSV, with a header row made of Columns.
// Absent fields are written as empty cells.
func EncodeCSV(w io.Writer, holdings []Holding) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	record := make([]string, len(Columns))
	for _, h := range holdings {
		for i, col := range Columns {
			record[i] = valueOf(h.Field(col))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SnapshotWriter persists snapshots.
type SnapshotWriter interface {
	WriteSnapshot(s Snapshot) (files []string, err error)
}

// DirWriter writes snapshots under Dir, as
//
//	{Dir}/{accountID}/json/{accountID}-{timestamp}.json
//	{Dir}/{accountID}/csv/{accountID}-{timestamp}.csv
type DirWriter struct {
	Dir string
}

// WriteSnapshot creates the account directories if needed and writes both
// files. It returns the paths written.
func (d DirWriter) WriteSnapshot(s Snapshot) ([]string, error) {
	if s.AccountID == "" {
		return nil, errors.New("snapshot has no account id")
	}
	name := s.FileName()
	jsonPath := filepath.Join(d.Dir, s.AccountID, "json", name+".json")
	csvPath := filepath.Join(d.Dir, s.AccountID, "csv", name+".csv")

	if err := writeFile(jsonPath, func(w io.Writer) error { return EncodeJSON(w, s.Holdings) }); err != nil {
		return nil, err
	}
	if err := writeFile(csvPath, func(w io.Writer) error { return EncodeCSV(w, s.Holdings) }); err != nil {
		return []string{jsonPath}, err
	}
	return []string{jsonPath, csvPath}, nil
}

// writeFile creates (or truncates) path, and its parent directory, and fills it with encode.
func writeFile(path string, encode func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory for %q: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("cannot create %q: %w", path, err)
	}
	if err := encode(f); err != nil {
		f.Close()
		return fmt.Errorf("cannot write %q: %w", path, err)
	}
	return f.Close()
}

// LatestSnapshot reads back the most recent JSON snapshot of accountID stored
// under dir.
func LatestSnapshot(dir, accountID string) (Snapshot, error) {
	jsonDir := filepath.Join(dir, accountID, "json")
	entries, err := os.ReadDir(jsonDir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("cannot list snapshots of account %q: %w", accountID, err)
	}

	prefix := accountID + "-"
	var stamps []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || filepath.Ext(name) != ".json" {
			continue
		}
		stamps = append(stamps, strings.TrimSuffix(strings.TrimPrefix(name, prefix), ".json"))
	}
	if len(stamps) == 0 {
		return Snapshot{}, fmt.Errorf("no snapshot for account %q: %w", accountID, fs.ErrNotExist)
	}
	// the layout sorts chronologically.
	latest := slices.Max(stamps)
	at, err := time.ParseInLocation(TimestampLayout, latest, time.Local)
	if err != nil {
		return Snapshot{}, fmt.Errorf("invalid snapshot timestamp %q: %w", latest, err)
	}

	f, err := os.Open(filepath.Join(jsonDir, prefix+latest+".json"))
	if err != nil {
		return Snapshot{}, err
	}
	defer f.Close()
	holdings, err := DecodeJSON(f)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{AccountID: accountID, Time: at, Holdings: holdings}, nil
}
