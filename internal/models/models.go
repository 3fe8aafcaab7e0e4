package models

// Roles maps derived-table columns onto chart roles. Wide charts (pivots)
// leave Y empty: every column but X is a series.
type Roles struct {
	X      string   `json:"x,omitempty"`
	Y      []string `json:"y,omitempty"`
	Names  string   `json:"names,omitempty"`
	Values string   `json:"values,omitempty"`
	Wide   bool     `json:"wide,omitempty"`
}

type ColumnMeta struct {
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

type ChartInfo struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     string `json:"kind"`
	Scope    string `json:"scope"`
	Selector string `json:"selector,omitempty"`
	Roles    Roles  `json:"roles"`
}

type ChartPayload struct {
	ChartInfo
	Selected string       `json:"selected,omitempty"`
	Columns  []ColumnMeta `json:"columns"`
	Rows     [][]any      `json:"rows"`
	Total    int          `json:"total"`
	Limit    int          `json:"limit"`
	Offset   int          `json:"offset"`
}

type KPI struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Value   float64 `json:"value"`
	Display string  `json:"display"`
}

type DashboardData struct {
	KPIs   []KPI          `json:"kpis"`
	Charts []ChartPayload `json:"charts"`
}

type OptionList struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}
