package api

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"salesdash/internal/dashboard"
	"salesdash/internal/engine"
	"salesdash/internal/export"
	"salesdash/internal/models"
)

type Handler struct {
	dash *dashboard.Dashboard
	data atomic.Pointer[engine.Table]
}

// NewHandler serves charts of dash over data. data may be nil until the
// dataset is loaded; every data endpoint answers 503 until SetData.
func NewHandler(dash *dashboard.Dashboard, data *engine.Table) *Handler {
	if dash == nil {
		dash = dashboard.New(nil)
	}
	h := &Handler{dash: dash}
	if data != nil {
		h.data.Store(data)
	}
	return h
}

// SetData publishes the base table. Safe to call while serving.
func (h *Handler) SetData(data *engine.Table) {
	h.data.Store(data)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	api := e.Group("/api")
	api.GET("/schema", h.GetSchema)
	api.GET("/kpis", h.GetKPIs)
	api.GET("/options/:column", h.GetOptions)
	api.GET("/charts", h.ListCharts)
	api.GET("/charts/:id", h.GetChart)
	api.GET("/charts/:id/options", h.GetChartOptions)
	api.GET("/dashboard", h.GetDashboard)
}

// --- 1. REQUEST PARSING ---
func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// getSelection reads year, product (repeated or comma separated) and
// local.<chart id> query parameters.
func getSelection(c echo.Context) dashboard.Selection {
	q := c.QueryParams()
	sel := dashboard.Selection{Year: q.Get("year")}
	for _, p := range q["product"] {
		for _, v := range strings.Split(p, ",") {
			if v = strings.TrimSpace(v); v != "" {
				sel.Products = append(sel.Products, v)
			}
		}
	}
	for k, v := range q {
		if id, ok := strings.CutPrefix(k, "local."); ok && len(v) > 0 {
			sel = sel.WithLocal(id, v[0])
		}
	}
	return sel
}

func (h *Handler) table() (*engine.Table, error) {
	t := h.data.Load()
	if t == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")
	}
	return t, nil
}

// httpError maps engine and dashboard errors onto status codes.
func httpError(err error) error {
	var (
		schemaErr *engine.SchemaError
		typeErr   *engine.TypeError
	)
	switch {
	case errors.Is(err, dashboard.ErrUnknownChart):
		return echo.NewHTTPError(http.StatusNotFound, err.Error()).SetInternal(err)
	case errors.As(err, &schemaErr), errors.As(err, &typeErr), errors.Is(err, engine.ErrInvalidSpec):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
}

// --- 2. HANDLERS ---
func (h *Handler) Health(c echo.Context) error {
	t := h.data.Load()
	if t == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "loading"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "rows": t.Len()})
}

func (h *Handler) GetSchema(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	fields := t.Fields()
	out := make([]models.ColumnMeta, len(fields))
	for i, f := range fields {
		out[i] = models.ColumnMeta{Name: f.Name, Kind: f.Kind.String(), Label: dashboard.Label(f.Name)}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetKPIs(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	kpis, err := h.kpis(t, getSelection(c))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, kpis)
}

func (h *Handler) GetOptions(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	column := c.Param("column")
	values, err := h.dash.Options(t, getSelection(c), column)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, models.OptionList{Column: column, Values: values})
}

func (h *Handler) GetChartOptions(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	id := c.Param("id")
	values, err := h.dash.ChartOptions(t, id, getSelection(c))
	if err != nil {
		return httpError(err)
	}
	spec, _ := h.dash.Catalog().Lookup(id)
	if values == nil {
		values = []string{}
	}
	return c.JSON(http.StatusOK, models.OptionList{Column: spec.Selector(), Values: values})
}

func (h *Handler) ListCharts(c echo.Context) error {
	charts := h.dash.Catalog().Charts()
	out := make([]models.ChartInfo, len(charts))
	for i, s := range charts {
		out[i] = chartInfo(s)
	}
	return c.JSON(http.StatusOK, out)
}

// GetChart returns one derived table. format=xlsx|arrow|csv downloads it
// instead of the JSON payload.
func (h *Handler) GetChart(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	id := c.Param("id")
	sel := getSelection(c)
	if local := c.QueryParam("local"); local != "" {
		sel = sel.WithLocal(id, local)
	}

	panel, err := h.dash.Build(t, id, sel)
	if err != nil {
		return httpError(err)
	}

	if f := c.QueryParam("format"); f != "" && f != "json" {
		return download(c, panel, f)
	}

	limit, offset := getPaginationParams(c, panel.Table.Len())
	payload, err := chartPayload(panel, sel.LocalValue(id), limit, offset)
	if err != nil {
		return httpError(err)
	}
	return jsonWithETag(c, payload)
}

func (h *Handler) GetDashboard(c echo.Context) error {
	t, err := h.table()
	if err != nil {
		return err
	}
	sel := getSelection(c)

	kpis, err := h.kpis(t, sel)
	if err != nil {
		return httpError(err)
	}
	panels, err := h.dash.BuildAll(t, sel)
	if err != nil {
		return httpError(err)
	}

	out := models.DashboardData{KPIs: kpis, Charts: make([]models.ChartPayload, 0, len(panels))}
	for _, p := range panels {
		payload, err := chartPayload(p, sel.LocalValue(p.Spec.ID), p.Table.Len(), 0)
		if err != nil {
			return httpError(err)
		}
		out.Charts = append(out.Charts, payload)
	}
	return jsonWithETag(c, out)
}

// --- 3. PAYLOADS ---
func (h *Handler) kpis(t *engine.Table, sel dashboard.Selection) ([]models.KPI, error) {
	kpis, err := h.dash.KPIs(t, sel)
	if err != nil {
		return nil, err
	}
	out := make([]models.KPI, len(kpis))
	for i, k := range kpis {
		out[i] = models.KPI{Name: k.Name, Label: k.Label, Value: k.Value.InexactFloat64(), Display: k.Display}
	}
	return out, nil
}

func chartInfo(s dashboard.ChartSpec) models.ChartInfo {
	return models.ChartInfo{
		ID:       s.ID,
		Title:    s.Title,
		Kind:     string(s.Kind),
		Scope:    s.Scope.String(),
		Selector: s.Selector(),
		Roles:    s.Roles,
	}
}

// chartPayload pages the derived table into rows. NaN cells become null.
func chartPayload(p *dashboard.Panel, selected string, limit, offset int) (models.ChartPayload, error) {
	t := p.Table
	total := t.Len()
	out := models.ChartPayload{
		ChartInfo: chartInfo(p.Spec),
		Columns:   make([]models.ColumnMeta, 0, len(t.Columns())),
		Rows:      [][]any{},
		Total:     total,
		Limit:     limit,
		Offset:    offset,
	}
	if p.Spec.Selector() != "" {
		out.Selected = selected
	}

	cols := make([][]any, 0, len(t.Columns()))
	for _, f := range t.Fields() {
		out.Columns = append(out.Columns, models.ColumnMeta{Name: f.Name, Kind: f.Kind.String(), Label: p.Spec.Label(f.Name)})
		vals, err := t.Values(f.Name)
		if err != nil {
			return out, err
		}
		cols = append(cols, vals)
	}

	if offset >= total {
		return out, nil
	}
	if limit > total-offset {
		limit = total - offset
	}
	end := offset + limit
	for r := offset; r < end; r++ {
		row := make([]any, len(cols))
		for i := range cols {
			v := cols[i][r]
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			row[i] = v
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// jsonWithETag answers 304 when the client already holds this body.
func jsonWithETag(c echo.Context, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Response().Header().Set("ETag", etag)
	if match := c.Request().Header.Get("If-None-Match"); match != "" && match == etag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSONBlob(http.StatusOK, body)
}

func download(c echo.Context, p *dashboard.Panel, format string) error {
	f, err := export.ParseFormat(format)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, f, p.Table, p.Spec.Title); err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s.%s"`, p.Spec.ID, f.Ext()))
	return c.Blob(http.StatusOK, f.ContentType(), buf.Bytes())
}
