package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deliverydesk/internal/errs"
	"github.com/deliverydesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleTable() Table {
	return Table{
		Title:       "Ocak Siparişleri",
		GeneratedAt: ts("2024-02-01 09:00"),
		Headers:     []string{"Sipariş No", "Tutar"},
		Rows: []Row{
			{{Name: "orderNumber", Value: "ORD-1"}, {Name: "total", Value: "₺1.250,50"}},
			{{Name: "orderNumber", Value: "ORD-2"}, {Name: "total", Value: "N/A"}},
		},
	}
}

func TestRendererForUnsupported(t *testing.T) {
	_, err := RendererFor(models.ReportFormat("docx"))
	var ferr *errs.UnsupportedFormatError
	assert.ErrorAs(t, err, &ferr)
}

func TestCSVRenderer(t *testing.T) {
	r, err := RendererFor(models.FormatCSV)
	require.NoError(t, err)

	out, err := r.Render(sampleTable())
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(out, []byte("\ufeff")))

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(out, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sipariş No", "Tutar"},
		{"ORD-1", "₺1.250,50"},
		{"ORD-2", "N/A"},
	}, rows)
}

func TestExcelRenderer(t *testing.T) {
	r, err := RendererFor(models.FormatExcel)
	require.NoError(t, err)

	out, err := r.Render(sampleTable())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(excelSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sipariş No", "Tutar"},
		{"ORD-1", "₺1.250,50"},
		{"ORD-2", "N/A"},
	}, rows)
}

func TestPDFRenderer(t *testing.T) {
	r, err := RendererFor(models.FormatPDF)
	require.NoError(t, err)

	out, err := r.Render(sampleTable())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestFileNameAndSanitize(t *testing.T) {
	at := time.UnixMilli(1706745600123)
	assert.Equal(t, "ocak_sipari_leri-1706745600123.xlsx", FileName("Ocak Siparişleri", models.FormatExcel, at))
	assert.Equal(t, "weekly_report__1_-1706745600123.pdf", FileName("Weekly Report (1)", models.FormatPDF, at))
	assert.Equal(t, "report-1706745600123.csv", FileName("   ", models.FormatCSV, at))
}

func TestStoreCreatesDirectoryOnDemand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "reports")
	store := NewStore(dir)

	path, name, err := store.Save("Daily", models.FormatCSV, []byte("a,b\n"))
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^daily-\d+\.csv$`), name)
	assert.Equal(t, filepath.Join(dir, name), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
}

func TestStoreNeverOverwritesOnNameClash(t *testing.T) {
	store := NewStore(t.TempDir())
	fixed := time.UnixMilli(1706745600123)
	store.now = func() time.Time { return fixed }

	firstPath, firstName, err := store.Save("Daily", models.FormatCSV, []byte("first\n"))
	require.NoError(t, err)
	secondPath, secondName, err := store.Save("Daily", models.FormatCSV, []byte("second\n"))
	require.NoError(t, err)

	assert.Equal(t, "daily-1706745600123.csv", firstName)
	assert.Equal(t, "daily-1706745600124.csv", secondName)
	assert.NotEqual(t, firstPath, secondPath)

	data, err := os.ReadFile(firstPath)
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(data))
	data, err = os.ReadFile(secondPath)
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(data))
}

func TestStoreConcurrentSavesGetDistinctFiles(t *testing.T) {
	store := NewStore(t.TempDir())
	fixed := time.UnixMilli(1706745600123)
	store.now = func() time.Time { return fixed }

	const n = 8
	var wg sync.WaitGroup
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path, _, err := store.Save("Daily", models.FormatCSV, []byte(fmt.Sprintf("%d", i)))
			assert.NoError(t, err)
			paths[i] = path
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for i, path := range paths {
		require.False(t, seen[path], "duplicate path %s", path)
		seen[path] = true
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("%d", i), string(data))
	}
}

func TestGenerateWritesArtifact(t *testing.T) {
	db := newTestDB(t)
	seedOrders(t, db)
	store := NewStore(filepath.Join(t.TempDir(), "reports"))
	gen := NewReportGenerator(db, store, time.UTC)

	r, err := ParseDateRange("2024-01-01", "2024-01-31", time.UTC)
	require.NoError(t, err)

	reportID := uint(42)
	artifact, err := gen.Generate(context.Background(), Request{
		Title:    "January Orders",
		Source:   models.SourceOrders,
		Format:   models.FormatCSV,
		Range:    r,
		Columns:  []string{"orderNumber", "paymentMethod", "total"},
		Filters:  Filters{"status": "DELIVERED"},
		ReportID: &reportID,
	})
	require.NoError(t, err)
	assert.NotZero(t, artifact.ID)
	assert.True(t, strings.HasPrefix(artifact.FileName, "january_orders-"))
	assert.True(t, strings.HasSuffix(artifact.FileName, ".csv"))

	data, err := os.ReadFile(artifact.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), artifact.Size)

	rows, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte("\ufeff")))).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Sipariş No", "Ödeme Yöntemi", "Tutar"},
		{"ORD-1", "Kredi Kartı", "₺1.250,50"},
		{"ORD-2", "Nakit", "₺80,00"},
	}, rows)

	var stored models.RenderedArtifact
	require.NoError(t, db.First(&stored, artifact.ID).Error)
	require.NotNil(t, stored.ReportID)
	assert.Equal(t, reportID, *stored.ReportID)
}

func TestGenerateRejectsUnsupportedFormatBeforeQuerying(t *testing.T) {
	db := newTestDB(t)
	gen := NewReportGenerator(db, NewStore(t.TempDir()), time.UTC)

	_, err := gen.Generate(context.Background(), Request{Title: "x", Source: models.SourceOrders, Format: "docx"})
	var ferr *errs.UnsupportedFormatError
	assert.ErrorAs(t, err, &ferr)
}
