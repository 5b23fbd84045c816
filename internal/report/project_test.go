package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/deliverydesk/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatCurrencyTRY(t *testing.T) {
	tests := map[string]string{
		"0":          "₺0,00",
		"5.5":        "₺5,50",
		"999.99":     "₺999,99",
		"1234.56":    "₺1.234,56",
		"1250.5":     "₺1.250,50",
		"1234567.8":  "₺1.234.567,80",
		"-42":        "-₺42,00",
		"100000.004": "₺100.000,00",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatCurrencyTRY(decimal.RequireFromString(in)), in)
	}
}

func TestFormatDurationMs(t *testing.T) {
	assert.Equal(t, "0:00", FormatDurationMs(0))
	assert.Equal(t, "0:59", FormatDurationMs(59999))
	assert.Equal(t, "2:05", FormatDurationMs(125000))
	assert.Equal(t, "75:00", FormatDurationMs(75*60*1000))
}

func TestProjectOrders(t *testing.T) {
	src, err := Lookup(models.SourceOrders)
	require.NoError(t, err)

	istanbul := time.FixedZone("TRT", 3*60*60)
	p := NewProjector(istanbul)

	records := []Record{{
		"orderNumber":   "ORD-1",
		"paymentMethod": "CREDIT_CARD",
		"status":        "DELIVERED",
		"total":         decimal.RequireFromString("1250.5"),
		"createdAt":     ts("2024-01-31 22:30"),
		"deliveredAt":   nil,
		"category":      "food",
	}}
	columns := []string{"total", "paymentMethod", "orderNumber", "createdAt", "deliveredAt", "customerName", "category", "notAColumn"}

	rows := p.Project(records, src, columns)
	require.Len(t, rows, 1)

	names := make([]string, 0, len(rows[0]))
	for _, f := range rows[0] {
		names = append(names, f.Name)
	}
	assert.Equal(t, columns, names)
	assert.Equal(t, []string{
		"₺1.250,50",
		"Kredi Kartı",
		"ORD-1",
		"01.02.2024",
		Placeholder,
		Placeholder,
		"food",
		Placeholder,
	}, rows[0].Values())

	status := p.Project(records, src, []string{"status"})
	v, ok := status[0].Get("status")
	assert.True(t, ok)
	assert.Equal(t, "Teslim Edildi", v)
}

func TestProjectUnknownEnumValueKeepsRaw(t *testing.T) {
	src, _ := Lookup(models.SourceOrders)
	rows := NewProjector(nil).Project([]Record{{"paymentMethod": "CRYPTO"}}, src, []string{"paymentMethod"})
	assert.Equal(t, []string{"CRYPTO"}, rows[0].Values())
}

func TestProjectDurationAndActive(t *testing.T) {
	deliveries, _ := Lookup(models.SourceDeliveries)
	rows := NewProjector(nil).Project([]Record{{"duration": int64(125000), "distance": 3.2}}, deliveries, []string{"duration", "distance"})
	assert.Equal(t, []string{"2:05", "3.2"}, rows[0].Values())

	businesses, _ := Lookup(models.SourceBusinesses)
	rows = NewProjector(nil).Project([]Record{{"isActive": false}}, businesses, []string{"isActive"})
	assert.Equal(t, []string{"Pasif"}, rows[0].Values())
}

func TestProjectIsDeterministic(t *testing.T) {
	src, _ := Lookup(models.SourceOrders)
	p := NewProjector(time.UTC)
	records := []Record{
		{"orderNumber": "A", "total": decimal.NewFromInt(10), "paymentMethod": "CASH", "createdAt": ts("2024-01-01 10:00")},
		{"orderNumber": "B", "total": decimal.NewFromFloat(12.75), "paymentMethod": "ONLINE"},
	}
	columns := []string{"orderNumber", "total", "paymentMethod", "createdAt", "courierName"}

	first, err := json.Marshal(p.Project(records, src, columns))
	require.NoError(t, err)
	second, err := json.Marshal(p.Project(records, src, columns))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestLabelsFallBackToColumnKey(t *testing.T) {
	src, _ := Lookup(models.SourceOrders)
	assert.Equal(t, []string{"Sipariş No", "custom"}, Labels(src, []string{"orderNumber", "custom"}))
}

func TestColumnsForDefaults(t *testing.T) {
	src, _ := Lookup(models.SourceCustomers)
	assert.Equal(t, src.DefaultColumns(), ColumnsFor(src, nil))
	assert.Equal(t, []string{"name"}, ColumnsFor(src, []string{"name"}))
}
