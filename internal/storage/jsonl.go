// Package storage persists the built publisher directory as a JSONL
// snapshot and mirrors it into a SQLite cache for search.
package storage

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/pubdash/internal/directory"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading one snapshot
// line. An identity line carries all of its publications.
const MaxJSONLLineCapacity = 16 * 1024 * 1024

// ErrNoSnapshot is returned when the workspace has not been loaded yet.
var ErrNoSnapshot = errors.New("no directory snapshot (run \"pubdash load\" first)")

// SnapshotHeader is the first line of a snapshot.
type SnapshotHeader struct {
	RunID      string    `json:"run_id"`
	LoadedAt   time.Time `json:"loaded_at"`
	Source     string    `json:"source,omitempty"` // Workbook path or gs:// URL
	Publishers int       `json:"publishers"`
	Corpus     int       `json:"corpus"` // Rows in the publication sheet
}

// WriteSnapshot writes the header and one identity per line. The file is
// written beside path and renamed into place, so readers never see a
// partial snapshot.
func WriteSnapshot(path string, header SnapshotHeader, ids []*directory.Identity) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".directory-*.jsonl")
	if err != nil {
		return fmt.Errorf("creating snapshot file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	enc := json.NewEncoder(w)
	if err := enc.Encode(header); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding snapshot header: %w", err)
	}
	for i, id := range ids {
		if err := enc.Encode(id); err != nil {
			tmp.Close()
			return fmt.Errorf("encoding identity %d: %w", i, err)
		}
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing snapshot: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replacing snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot reads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (SnapshotHeader, []*directory.Identity, error) {
	var header SnapshotHeader

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return header, nil, ErrNoSnapshot
		}
		return header, nil, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), MaxJSONLLineCapacity)

	var ids []*directory.Identity
	lineNum := 0
	sawHeader := false
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		if !sawHeader {
			if err := json.Unmarshal(line, &header); err != nil {
				return header, nil, fmt.Errorf("parsing snapshot header: %w", err)
			}
			sawHeader = true
			continue
		}

		var id directory.Identity
		if err := json.Unmarshal(line, &id); err != nil {
			return header, nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		ids = append(ids, &id)
	}

	if err := scanner.Err(); err != nil {
		return header, nil, fmt.Errorf("reading snapshot: %w", err)
	}
	if !sawHeader {
		return header, nil, ErrNoSnapshot
	}

	return header, ids, nil
}

// LoadDirectory reads a snapshot and assembles the directory from it.
func LoadDirectory(path string) (*directory.Directory, SnapshotHeader, error) {
	header, ids, err := ReadSnapshot(path)
	if err != nil {
		return nil, header, err
	}
	d, err := directory.New(ids)
	if err != nil {
		return nil, header, fmt.Errorf("restoring directory: %w", err)
	}
	return d, header, nil
}
