// Package datasource fetches tabular data for pipeline steps from
// uploads, HTTP APIs, S3 objects and Athena queries.
package datasource

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hvirtan/reportpipe/internal/store"
)

// Result is a normalized table regardless of where the data came from.
type Result struct {
	Columns  []string
	Rows     []map[string]any
	RowCount int
	Metadata map[string]string
}

// NotFoundError indicates the configured object, file or query target
// does not exist.
type NotFoundError struct {
	Kind string
	Ref  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Ref)
}

// FetchError wraps a retrieval failure with the source that caused it.
type FetchError struct {
	SourceType store.SourceType
	Err        error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s data source: %v", e.SourceType, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

type Fetcher interface {
	Fetch(ctx context.Context, ds *store.DataSource) (*Result, error)
}

type fetcher struct {
	http *http.Client
	aws  *awsClients
}

func NewFetcher() Fetcher {
	return &fetcher{
		http: &http.Client{Timeout: 2 * time.Minute},
		aws:  &awsClients{},
	}
}

func (f *fetcher) Fetch(ctx context.Context, ds *store.DataSource) (*Result, error) {
	var (
		res *Result
		err error
	)
	switch ds.SourceType {
	case store.SourceUpload:
		res, err = f.fetchUpload(ds.ConfigJSON)
	case store.SourceAPI:
		res, err = f.fetchAPI(ctx, ds.ConfigJSON)
	case store.SourceS3:
		res, err = f.aws.fetchS3(ctx, ds.ConfigJSON)
	case store.SourceAthena:
		res, err = f.aws.fetchAthena(ctx, ds.ConfigJSON)
	default:
		return nil, fmt.Errorf("unknown source type %q", ds.SourceType)
	}
	if err != nil {
		var nf *NotFoundError
		if errors.As(err, &nf) {
			return nil, err
		}
		return nil, &FetchError{SourceType: ds.SourceType, Err: err}
	}
	if res.Metadata == nil {
		res.Metadata = map[string]string{}
	}
	res.Metadata["sourceName"] = ds.Name
	res.Metadata["sourceType"] = string(ds.SourceType)
	return res, nil
}

type uploadConfig struct {
	Path   string `json:"path"`
	Format string `json:"format"`
}

func (f *fetcher) fetchUpload(configJSON string) (*Result, error) {
	var conf uploadConfig
	if err := json.Unmarshal([]byte(configJSON), &conf); err != nil {
		return nil, fmt.Errorf("invalid upload config: %w", err)
	}
	file, err := os.Open(conf.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Kind: "upload file", Ref: conf.Path}
		}
		return nil, err
	}
	defer file.Close()

	format := conf.Format
	if format == "" {
		format = strings.TrimPrefix(filepath.Ext(conf.Path), ".")
	}
	switch format {
	case "csv":
		return parseCSV(file)
	case "json":
		return parseJSON(file)
	default:
		return nil, fmt.Errorf("unsupported upload format %q", format)
	}
}

type apiConfig struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

func (f *fetcher) fetchAPI(ctx context.Context, configJSON string) (*Result, error) {
	var conf apiConfig
	if err := json.Unmarshal([]byte(configJSON), &conf); err != nil {
		return nil, fmt.Errorf("invalid api config: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, conf.URL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range conf.Headers {
		req.Header.Set(k, v)
	}
	res, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, &NotFoundError{Kind: "api resource", Ref: conf.URL}
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("api returned %d: %s", res.StatusCode, string(body))
	}
	return parseJSON(res.Body)
}

func parseCSV(r io.Reader) (*Result, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) == 0 {
		return &Result{Columns: []string{}, Rows: []map[string]any{}}, nil
	}
	columns := records[0]
	rows := make([]map[string]any, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return &Result{Columns: columns, Rows: rows, RowCount: len(rows)}, nil
}

// parseJSON accepts either a top-level array of objects or a single
// object, which becomes a one-row table.
func parseJSON(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(data, &rows); err != nil {
		var row map[string]any
		if err := json.Unmarshal(data, &row); err != nil {
			return nil, fmt.Errorf("parsing json: %w", err)
		}
		rows = []map[string]any{row}
	}
	columns := make([]string, 0)
	seen := map[string]bool{}
	for _, row := range rows {
		for col := range row {
			if !seen[col] {
				seen[col] = true
				columns = append(columns, col)
			}
		}
	}
	slices.Sort(columns)
	return &Result{Columns: columns, Rows: rows, RowCount: len(rows)}, nil
}
