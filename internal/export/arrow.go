package export

import (
	"fmt"
	"io"
	"math"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"salesdash/internal/engine"
)

var pool = memory.NewGoAllocator()

// Schema maps table fields onto Arrow types. Numeric columns are
// nullable so missing pivot cells can be sent as nulls.
func Schema(t *engine.Table) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Columns()))
	for _, f := range t.Fields() {
		var dt arrow.DataType
		switch f.Kind {
		case engine.Integer:
			dt = arrow.PrimitiveTypes.Int64
		case engine.Numeric:
			dt = arrow.PrimitiveTypes.Float64
		default:
			dt = arrow.BinaryTypes.String
		}
		fields = append(fields, arrow.Field{Name: f.Name, Type: dt, Nullable: f.Kind == engine.Numeric})
	}
	return arrow.NewSchema(fields, nil)
}

// WriteArrow writes t as an Arrow IPC stream holding one record batch.
func WriteArrow(w io.Writer, t *engine.Table) error {
	schema := Schema(t)
	b := array.NewRecordBuilder(pool, schema)
	defer b.Release()

	for i, name := range t.Columns() {
		vals, err := t.Values(name)
		if err != nil {
			return err
		}
		switch fb := b.Field(i).(type) {
		case *array.StringBuilder:
			for _, v := range vals {
				fb.Append(v.(string))
			}
		case *array.Int64Builder:
			for _, v := range vals {
				fb.Append(v.(int64))
			}
		case *array.Float64Builder:
			for _, v := range vals {
				if f := v.(float64); math.IsNaN(f) {
					fb.AppendNull()
				} else {
					fb.Append(f)
				}
			}
		default:
			return fmt.Errorf("arrow: unsupported builder %T for %q", fb, name)
		}
	}

	rec := b.NewRecord()
	defer rec.Release()

	wr := ipc.NewWriter(w, ipc.WithSchema(schema), ipc.WithAllocator(pool))
	if err := wr.Write(rec); err != nil {
		wr.Close()
		return fmt.Errorf("arrow: %w", err)
	}
	return wr.Close()
}
