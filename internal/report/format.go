package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Placeholder is written for absent or null fields.
const Placeholder = "N/A"

type FormatKind int

const (
	FormatRaw FormatKind = iota
	FormatCurrency
	FormatDate
	FormatDateTime
	FormatDuration
	FormatPaymentMethod
	FormatOrderStatus
	FormatDeliveryStatus
	FormatCourierStatus
	FormatActive
)

var paymentMethodLabels = map[string]string{
	"CASH":        "Nakit",
	"CREDIT_CARD": "Kredi Kartı",
	"DEBIT_CARD":  "Banka Kartı",
	"ONLINE":      "Online Ödeme",
}

var orderStatusLabels = map[string]string{
	"PENDING":    "Beklemede",
	"PREPARING":  "Hazırlanıyor",
	"ON_THE_WAY": "Yolda",
	"DELIVERED":  "Teslim Edildi",
	"CANCELLED":  "İptal Edildi",
}

var deliveryStatusLabels = map[string]string{
	"ASSIGNED":  "Atandı",
	"PICKED_UP": "Teslim Alındı",
	"DELIVERED": "Teslim Edildi",
	"FAILED":    "Başarısız",
}

var courierStatusLabels = map[string]string{
	"AVAILABLE": "Müsait",
	"BUSY":      "Meşgul",
	"OFFLINE":   "Çevrimdışı",
}

const (
	displayDate     = "02.01.2006"
	displayDateTime = "02.01.2006 15:04"
)

// formatValue applies kind to a non-nil raw value. Values of an unexpected
// type fall back to their plain string form.
func formatValue(kind FormatKind, v any, loc *time.Location) string {
	switch kind {
	case FormatCurrency:
		if d, ok := toDecimal(v); ok {
			return FormatCurrencyTRY(d)
		}
	case FormatDate, FormatDateTime:
		if t, ok := v.(time.Time); ok {
			if kind == FormatDate {
				return t.In(loc).Format(displayDate)
			}
			return t.In(loc).Format(displayDateTime)
		}
	case FormatDuration:
		if ms, ok := toInt64(v); ok && ms >= 0 {
			return FormatDurationMs(ms)
		}
	case FormatPaymentMethod:
		return translate(paymentMethodLabels, v)
	case FormatOrderStatus:
		return translate(orderStatusLabels, v)
	case FormatDeliveryStatus:
		return translate(deliveryStatusLabels, v)
	case FormatCourierStatus:
		return translate(courierStatusLabels, v)
	case FormatActive:
		if b, ok := v.(bool); ok {
			if b {
				return "Aktif"
			}
			return "Pasif"
		}
	}
	return rawString(v)
}

func translate(labels map[string]string, v any) string {
	s := rawString(v)
	if l, ok := labels[s]; ok {
		return l
	}
	return s
}

func rawString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return t.String()
	}
	return fmt.Sprint(v)
}

// FormatCurrencyTRY renders an amount the way tr-TR currency formatting does:
// "₺1.234,56".
func FormatCurrencyTRY(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole, frac, _ := strings.Cut(d.StringFixed(2), ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + "₺" + b.String() + "," + frac
}

// FormatDurationMs renders milliseconds as minutes:seconds.
func FormatDurationMs(ms int64) string {
	total := ms / 1000
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case decimal.Decimal:
		return t, true
	case *decimal.Decimal:
		if t == nil {
			return decimal.Zero, false
		}
		return *t, true
	case float64:
		return decimal.NewFromFloat(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case string:
		d, err := decimal.NewFromString(t)
		return d, err == nil
	}
	return decimal.Zero, false
}

func toInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case uint:
		return int64(t), true
	case float64:
		return int64(t), true
	}
	return 0, false
}
