package source

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"salesdash/internal/engine"
)

// QueryRecords runs query on db and returns the result as text records,
// the way the CSV loader sees them. NULL becomes an empty cell.
func QueryRecords(ctx context.Context, db *sql.DB, query string) ([]string, [][]string, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("query columns: %w", err)
	}

	var records [][]string
	vals := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("query scan: %w", err)
		}
		rec := make([]string, len(vals))
		for i, v := range vals {
			rec[i] = text(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("query rows: %w", err)
	}
	return header, records, nil
}

// LoadSQL loads the result of query into a table.
func LoadSQL(ctx context.Context, db *sql.DB, query string, opts engine.LoadOptions) (*engine.Table, error) {
	header, records, err := QueryRecords(ctx, db, query)
	if err != nil {
		return nil, err
	}
	return engine.FromRecords(header, records, opts)
}

func text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format(time.DateOnly)
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
