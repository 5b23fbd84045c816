package report

import "time"

// Field is one named, formatted value of a projected row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row keeps fields in the order the columns were requested.
type Row []Field

// Get returns the value of the named field.
func (r Row) Get(name string) (string, bool) {
	for _, f := range r {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns the field values in column order.
func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = f.Value
	}
	return out
}

// Projector maps raw records onto the requested columns.
type Projector struct {
	loc *time.Location
}

// NewProjector returns a projector that renders dates in loc.
func NewProjector(loc *time.Location) *Projector {
	if loc == nil {
		loc = time.UTC
	}
	return &Projector{loc: loc}
}

// Project formats every record against columns. Columns the source has no
// rule for are copied as-is; unknown or null fields become Placeholder.
func (p *Projector) Project(records []Record, src Source, columns []string) []Row {
	formats := src.Formats()
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, 0, len(columns))
		for _, col := range columns {
			value := Placeholder
			if raw, ok := rec[col]; ok && raw != nil {
				value = formatValue(formats[col], raw, p.loc)
			}
			row = append(row, Field{Name: col, Value: value})
		}
		rows = append(rows, row)
	}
	return rows
}

// ColumnsFor returns columns, or the source defaults when none were
// requested.
func ColumnsFor(src Source, columns []string) []string {
	if len(columns) == 0 {
		return src.DefaultColumns()
	}
	return columns
}
