// Package jsonl provides a dataset source backed by a newline-delimited JSON
// file. Each non-empty line is one record; line order is record order.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caselode/caselode/pkg/dataset"
)

// Source reads records from a JSONL file on disk.
type Source struct {
	path string
}

// NewSource creates a JSONL dataset source for the given file path.
func NewSource(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("jsonl dataset path is required")
	}
	return &Source{path: path}, nil
}

// Load reads and decodes every line of the file.
func (s *Source) Load(ctx context.Context) ([]dataset.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening dataset %s: %w", s.path, err)
	}
	defer f.Close()

	var records []dataset.Record

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}

		var rec dataset.Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("decoding dataset %s line %d: %w", s.path, line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading dataset %s: %w", s.path, err)
	}

	return records, nil
}

// Name returns the backing file path.
func (s *Source) Name() string {
	return s.path
}

// Close is a no-op; the file is opened and closed per Load.
func (s *Source) Close() error {
	return nil
}

var _ dataset.Source = (*Source)(nil)
