package report

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"gorm.io/gorm"
)

// Record is one raw row of a data source with its related entities already
// flattened in (customerName, courierName, ...).
type Record map[string]any

// DateRange is a closed interval matched against created_at.
type DateRange struct {
	Start time.Time
	End   time.Time
}

const dateLayout = "2006-01-02"

// ParseDateRange accepts dates (2006-01-02) or RFC3339 timestamps. A
// date-only end bound covers that whole day.
func ParseDateRange(start, end string, loc *time.Location) (DateRange, error) {
	s, _, err := parseBound(start, loc)
	if err != nil {
		return DateRange{}, errs.Invalid("dateRange.startDate", "must be YYYY-MM-DD or RFC3339")
	}
	e, dateOnly, err := parseBound(end, loc)
	if err != nil {
		return DateRange{}, errs.Invalid("dateRange.endDate", "must be YYYY-MM-DD or RFC3339")
	}
	if dateOnly {
		e = e.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if e.Before(s) {
		return DateRange{}, errs.Invalid("dateRange", "endDate is before startDate")
	}
	return DateRange{Start: s, End: e}, nil
}

func parseBound(v string, loc *time.Location) (time.Time, bool, error) {
	v = strings.TrimSpace(v)
	if t, err := time.ParseInLocation(dateLayout, v, loc); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

// utc returns the range converted for querying. created_at is text in sqlite
// and compared lexically, which holds because the database layer writes every
// timestamp in UTC.
func (r DateRange) utc() (time.Time, time.Time) {
	return r.Start.UTC(), r.End.UTC()
}

// Filters is the open filter map of a report request. Keys a source does not
// recognize are ignored.
type Filters map[string]any

func (f Filters) String(key string) (string, bool) {
	v, ok := f[key]
	if !ok || v == nil {
		return "", false
	}
	s := strings.TrimSpace(fmt.Sprint(v))
	return s, s != ""
}

func (f Filters) Float(key string) (float64, bool) {
	switch v := f[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case json.Number:
		n, err := v.Float64()
		return n, err == nil
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return n, err == nil
	}
	return 0, false
}

func (f Filters) Uint(key string) (uint, bool) {
	n, ok := f.Float(key)
	if !ok || n < 0 {
		return 0, false
	}
	return uint(n), true
}

func (f Filters) Bool(key string) (bool, bool) {
	switch v := f[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		return b, err == nil
	}
	return false, false
}

// Source is one closed variant of the report data sources. Every
// DataSource value resolves to exactly one Source via Lookup.
type Source interface {
	Name() models.DataSource
	// Fetch returns matching rows with their relations eagerly loaded.
	Fetch(ctx context.Context, db *gorm.DB, r DateRange, f Filters) ([]Record, error)
	// Formats maps a column to its formatting rule.
	Formats() map[string]FormatKind
	Labels() map[string]string
	DefaultColumns() []string
	model() any
}

var sources = map[models.DataSource]Source{
	models.SourceOrders:     ordersSource{},
	models.SourceCouriers:   couriersSource{},
	models.SourceBusinesses: businessesSource{},
	models.SourceCustomers:  customersSource{},
	models.SourceDeliveries: deliveriesSource{},
}

// Lookup resolves a data source name to its variant.
func Lookup(name models.DataSource) (Source, error) {
	src, ok := sources[name]
	if !ok {
		return nil, &errs.UnsupportedSourceError{Source: string(name)}
	}
	return src, nil
}

// Adapter fetches report rows from the database.
type Adapter struct {
	db *gorm.DB
}

func NewAdapter(db *gorm.DB) *Adapter {
	return &Adapter{db: db}
}

// Fetch resolves the source and returns its records within r.
func (a *Adapter) Fetch(ctx context.Context, name models.DataSource, r DateRange, f Filters) ([]Record, error) {
	src, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return a.fetch(ctx, src, r, f)
}

func (a *Adapter) fetch(ctx context.Context, src Source, r DateRange, f Filters) ([]Record, error) {
	if !a.db.Migrator().HasTable(src.model()) {
		return nil, fmt.Errorf("%s: %w", src.Name(), errs.ErrSourceNotMigrated)
	}
	if f == nil {
		f = Filters{}
	}
	records, err := src.Fetch(ctx, a.db, r, f)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", src.Name(), err)
	}
	return records, nil
}

// Labels returns the header labels for columns, falling back to the column
// key for columns the source has no label for.
func Labels(src Source, columns []string) []string {
	labels := src.Labels()
	out := make([]string, len(columns))
	for i, c := range columns {
		if l, ok := labels[c]; ok {
			out[i] = l
		} else {
			out[i] = c
		}
	}
	return out
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
