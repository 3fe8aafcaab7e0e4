package dashboard

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"salesdash/internal/engine"
)

// Panel is one built chart: its spec and the derived table to render.
type Panel struct {
	Spec  ChartSpec
	Table *engine.Table
}

// Dashboard builds charts from an immutable base table.
type Dashboard struct {
	catalog *Catalog
}

// New returns a dashboard over catalog. A nil catalog means Sales().
func New(catalog *Catalog) *Dashboard {
	if catalog == nil {
		catalog = Sales()
	}
	return &Dashboard{catalog: catalog}
}

// Catalog returns the charts the dashboard can build.
func (d *Dashboard) Catalog() *Catalog { return d.catalog }

// Build runs the pipeline of chart id over base for sel.
func (d *Dashboard) Build(base *engine.Table, id string, sel Selection) (*Panel, error) {
	spec, ok := d.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	t, err := run(base, spec, sel.Global(), sel.LocalValue(id))
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", id, err)
	}
	return &Panel{Spec: spec, Table: t}, nil
}

// BuildAll builds every chart of the catalog, in display order. Charts
// are independent reads of base, so they are built concurrently, at most
// one per CPU.
func (d *Dashboard) BuildAll(base *engine.Table, sel Selection) ([]*Panel, error) {
	global := sel.Global()
	panels := make([]*Panel, len(d.catalog.charts))

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i, spec := range d.catalog.charts {
		g.Go(func() error {
			t, err := run(base, spec, global, sel.LocalValue(spec.ID))
			if err != nil {
				return fmt.Errorf("chart %s: %w", spec.ID, err)
			}
			panels[i] = &Panel{Spec: spec, Table: t}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return panels, nil
}

func run(base *engine.Table, spec ChartSpec, global []engine.Predicate, local string) (*engine.Table, error) {
	var err error
	t := base

	// 1. Scope
	if spec.Scope == Filtered {
		if t, err = engine.ApplyFilters(t, global...); err != nil {
			return nil, err
		}
	}

	// 2. Local filter
	if spec.LocalFilter != "" {
		if t, err = engine.ApplyFilter(t, engine.Eq(spec.LocalFilter, local)); err != nil {
			return nil, err
		}
	}

	// 3. Derive
	for _, c := range spec.Round {
		if t, err = engine.Round(t, c); err != nil {
			return nil, err
		}
	}

	// 4. Query
	switch {
	case spec.Aggregate != nil:
		t, err = engine.Aggregate(t, *spec.Aggregate)
	case spec.MaskedSum != nil:
		t, err = engine.MaskedSum(t, *spec.MaskedSum)
	case len(spec.Project) > 0:
		t, err = engine.Select(t, spec.Project...)
	}
	if err != nil {
		return nil, err
	}

	// 5. Post filter
	if spec.PostFilter != "" {
		if t, err = engine.ApplyFilter(t, engine.Eq(spec.PostFilter, local)); err != nil {
			return nil, err
		}
	}

	// 6. Order
	if spec.OrderBy != "" {
		if t, err = engine.OrderBy(t, spec.OrderBy, spec.ordering()); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Options lists the values of a sidebar or ad-hoc column selector:
// All first, then the distinct values in first-appearance order. Year
// and product come from base, every other column from the globally
// filtered table.
func (d *Dashboard) Options(base *engine.Table, sel Selection, column string) ([]string, error) {
	t := base
	if column != ColYear && column != ColProduct {
		var err error
		if t, err = engine.ApplyFilters(base, sel.Global()...); err != nil {
			return nil, err
		}
	}
	return withAll(engine.Distinct(t, column))
}

// ChartOptions lists the values of the selector of chart id. A
// post-aggregation selector offers the values of the derived table, in
// its display order.
func (d *Dashboard) ChartOptions(base *engine.Table, id string, sel Selection) ([]string, error) {
	spec, ok := d.catalog.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChart, id)
	}
	switch {
	case spec.PostFilter != "":
		t, err := run(base, spec, sel.Global(), engine.All)
		if err != nil {
			return nil, err
		}
		return withAll(engine.Distinct(t, spec.PostFilter))
	case spec.LocalFilter != "":
		t := base
		if spec.Scope == Filtered {
			var err error
			if t, err = engine.ApplyFilters(base, sel.Global()...); err != nil {
				return nil, err
			}
		}
		return withAll(engine.Distinct(t, spec.LocalFilter))
	}
	return nil, nil
}

func withAll(values []string, err error) ([]string, error) {
	if err != nil {
		return nil, err
	}
	return append([]string{engine.All}, values...), nil
}
