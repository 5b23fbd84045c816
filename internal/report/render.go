package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

// Table is what a renderer encodes.
type Table struct {
	Title       string
	GeneratedAt time.Time
	Headers     []string
	Rows        []Row
}

// Renderer encodes a table into one output format.
type Renderer interface {
	Format() models.ReportFormat
	Render(t Table) ([]byte, error)
}

var renderers = map[models.ReportFormat]Renderer{
	models.FormatCSV:   csvRenderer{},
	models.FormatExcel: excelRenderer{},
	models.FormatPDF:   pdfRenderer{},
}

// RendererFor resolves a format to its renderer.
func RendererFor(f models.ReportFormat) (Renderer, error) {
	r, ok := renderers[f]
	if !ok {
		return nil, &errs.UnsupportedFormatError{Format: string(f)}
	}
	return r, nil
}

type csvRenderer struct{}

func (csvRenderer) Format() models.ReportFormat { return models.FormatCSV }

func (csvRenderer) Render(t Table) ([]byte, error) {
	var buf bytes.Buffer
	// BOM so spreadsheet tools pick UTF-8 for Turkish characters
	buf.WriteString("\ufeff")

	w := csv.NewWriter(&buf)
	if err := w.Write(t.Headers); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row.Values()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const excelSheet = "Rapor"

type excelRenderer struct{}

func (excelRenderer) Format() models.ReportFormat { return models.FormatExcel }

func (excelRenderer) Render(t Table) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(t.Headers))
	for i, h := range t.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return nil, err
	}

	if len(t.Headers) > 0 {
		style, err := f.NewStyle(&excelize.Style{
			Font: &excelize.Font{Bold: true},
			Fill: excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		})
		if err != nil {
			return nil, err
		}
		last, err := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(excelSheet, "A1", last, style); err != nil {
			return nil, err
		}
		lastCol, _, err := excelize.SplitCellName(last)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(excelSheet, "A", lastCol, 20); err != nil {
			return nil, err
		}
	}

	for i, row := range t.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, field := range row {
			values[j] = field.Value
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct{}

func (pdfRenderer) Format() models.ReportFormat { return models.FormatPDF }

func (pdfRenderer) Render(t Table) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("cp1254")
	pdf.SetTitle(tr(t.Title), false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(t.Title), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf("Oluşturulma: %s", t.GeneratedAt.Format(displayDateTime))), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	if len(t.Headers) > 0 {
		pageWidth, _ := pdf.GetPageSize()
		left, _, right, _ := pdf.GetMargins()
		width := (pageWidth - left - right) / float64(len(t.Headers))

		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(224, 224, 224)
		for _, h := range t.Headers {
			pdf.CellFormat(width, 7, tr(h), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 8)
		for _, row := range t.Rows {
			for _, field := range row {
				pdf.CellFormat(width, 6, tr(truncate(field.Value, 40)), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
