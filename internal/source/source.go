package source

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"salesdash/internal/config"
	"salesdash/internal/engine"
)

// Formats understood by Load.
const (
	FormatCSV    = "csv"
	FormatXLSX   = "xlsx"
	FormatDuckDB = "duckdb"
)

// Loader turns the configured dataset into the immutable base table.
type Loader struct {
	Config  config.DataConfig
	Options engine.LoadOptions
	Client  *http.Client
}

// Load fetches the dataset if it is remote and loads it. Any failure
// here is fatal for the caller: there is no table to serve without it.
func (l *Loader) Load(ctx context.Context) (*engine.Table, error) {
	logger := zerolog.Ctx(ctx)
	t0 := time.Now()

	// 1. Acquire
	path := l.Config.Source
	if isURL(path) {
		if err := l.download(ctx, path); err != nil {
			return nil, err
		}
		path = l.Config.Cache
	}

	// 2. Parse
	format := DetectFormat(path, l.Config.Format)
	var (
		t   *engine.Table
		err error
	)
	switch format {
	case FormatXLSX:
		t, err = l.loadXLSX(path)
	case FormatDuckDB:
		t, err = l.loadDuckDB(ctx, path)
	default:
		t, err = l.loadCSV(path)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Str("format", format).
		Int("rows", t.Len()).
		Int("columns", len(t.Columns())).
		Dur("took", time.Since(t0)).
		Msg("dataset loaded")
	return t, nil
}

func (l *Loader) download(ctx context.Context, url string) error {
	if l.Config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Config.Timeout)
		defer cancel()
	}
	return Download(ctx, l.Client, url, l.Config.Cache)
}

func (l *Loader) loadCSV(path string) (*engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return engine.LoadCSV(f, l.Options)
}

func (l *Loader) loadXLSX(path string) (*engine.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadXLSX(f, l.Config.Sheet, l.Options)
}

func (l *Loader) loadDuckDB(ctx context.Context, path string) (*engine.Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	db, err := OpenDuckDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB instance: %w", err)
	}
	defer db.Close()

	query := l.Config.Query
	if query == "" {
		query = DefaultQuery
	}
	return LoadSQL(ctx, db, query, l.Options)
}

// DetectFormat returns format when set, otherwise guesses from the file
// extension. Unknown extensions are read as CSV.
func DetectFormat(path, format string) string {
	if format != "" {
		return strings.ToLower(format)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
