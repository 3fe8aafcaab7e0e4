package source

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/marcboeker/go-duckdb"
)

// SalesView is the view OpenDuckDB creates over the dataset file.
const SalesView = "sales"

// DefaultQuery reads the whole dataset.
const DefaultQuery = "SELECT * FROM " + SalesView

// OpenDuckDB opens an in-memory DuckDB whose connections all see the
// dataset at path as the view "sales".
func OpenDuckDB(path string) (*sql.DB, error) {
	bootQueries := []string{
		fmt.Sprintf("CREATE OR REPLACE VIEW %s AS SELECT * FROM read_csv_auto(%s, header = true)", SalesView, quote(path)),
	}
	c, err := duckdb.NewConnector("?threads=4", func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			if _, err := exec.ExecContext(context.Background(), query, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sql.OpenDB(c), nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
