// Package hub provides a dataset source backed by the Hugging Face
// datasets-server REST API. Rows are fetched page by page in row_idx order so
// the loaded sequence matches the dataset's stable ordering.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/caselode/caselode/pkg/dataset"
)

const (
	// DefaultBaseURL is the public datasets-server endpoint.
	DefaultBaseURL = "https://datasets-server.huggingface.co"

	// DefaultSplit is the dataset split fetched when none is configured.
	DefaultSplit = "train"

	// pageSize is the datasets-server maximum page length.
	pageSize = 100
)

// Config holds configuration for the hub dataset source.
type Config struct {
	// BaseURL overrides the datasets-server endpoint. Defaults to
	// DefaultBaseURL if empty.
	BaseURL string

	// Dataset is the hub dataset name (e.g. "owner/corpus"). Required.
	Dataset string

	// Config is the dataset configuration name. Defaults to "default".
	Config string

	// Split is the dataset split. Defaults to DefaultSplit.
	Split string
}

// Source fetches records from the datasets-server rows API.
type Source struct {
	baseURL    string
	dataset    string
	config     string
	split      string
	httpClient *http.Client
}

// rowsResponse is the subset of the /rows payload the source consumes.
type rowsResponse struct {
	Rows []struct {
		RowIdx int            `json:"row_idx"`
		Row    dataset.Record `json:"row"`
	} `json:"rows"`
	NumRowsTotal int `json:"num_rows_total"`
}

// NewSource creates a hub dataset source.
func NewSource(cfg Config) (*Source, error) {
	if cfg.Dataset == "" {
		return nil, fmt.Errorf("hub dataset name is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	configName := cfg.Config
	if configName == "" {
		configName = "default"
	}

	split := cfg.Split
	if split == "" {
		split = DefaultSplit
	}

	return &Source{
		baseURL: baseURL,
		dataset: cfg.Dataset,
		config:  configName,
		split:   split,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// Load fetches every row of the configured split, page by page.
func (s *Source) Load(ctx context.Context) ([]dataset.Record, error) {
	var records []dataset.Record

	offset := 0
	for {
		page, total, err := s.fetchPage(ctx, offset)
		if err != nil {
			return nil, err
		}

		records = append(records, page...)

		offset += len(page)
		if offset >= total || len(page) == 0 {
			break
		}
	}

	return records, nil
}

// fetchPage requests one page of rows starting at offset.
func (s *Source) fetchPage(ctx context.Context, offset int) ([]dataset.Record, int, error) {
	q := url.Values{}
	q.Set("dataset", s.dataset)
	q.Set("config", s.config)
	q.Set("split", s.split)
	q.Set("offset", strconv.Itoa(offset))
	q.Set("length", strconv.Itoa(pageSize))

	reqURL := fmt.Sprintf("%s/rows?%s", s.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating rows request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("fetching rows for %s: %w", s.dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, 0, fmt.Errorf("datasets-server returned status %d: %s", resp.StatusCode, string(body))
	}

	var page rowsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, 0, fmt.Errorf("decoding rows response: %w", err)
	}

	records := make([]dataset.Record, len(page.Rows))
	for i, row := range page.Rows {
		records[i] = row.Row
	}

	return records, page.NumRowsTotal, nil
}

// Name returns the hub dataset name.
func (s *Source) Name() string {
	return s.dataset
}

// Close releases resources held by the source.
func (s *Source) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ dataset.Source = (*Source)(nil)
