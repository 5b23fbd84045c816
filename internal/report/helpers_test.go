package report

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/deliverydesk/internal/database"
	"github.com/deliverydesk/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

type fixtures struct {
	customer models.Customer
	business models.Business
	courier  models.Courier
	orders   []models.Order
}

// seedOrders creates one customer, business and courier plus five orders
// around January 2024.
func seedOrders(t *testing.T, db *gorm.DB) fixtures {
	t.Helper()
	fx := fixtures{
		customer: models.Customer{Name: "Ayşe Yılmaz", Email: "ayse@example.com", Phone: "555-0101"},
		business: models.Business{Name: "Kebapçı Halil", Category: "restaurant", IsActive: true},
		courier:  models.Courier{Name: "Mehmet Kaya", Phone: "555-0202", VehicleType: "motorcycle", Status: models.CourierStatusAvailable, Rating: 4.6},
	}
	fx.customer.CreatedAt = ts("2024-01-02 10:00")
	fx.business.CreatedAt = ts("2023-12-01 10:00")
	fx.courier.CreatedAt = ts("2024-01-05 10:00")
	require.NoError(t, db.Create(&fx.customer).Error)
	require.NoError(t, db.Create(&fx.business).Error)
	require.NoError(t, db.Create(&fx.courier).Error)

	delivered := ts("2024-01-15 13:00")
	mk := func(num string, status models.OrderStatus, pm models.PaymentMethod, total string, created time.Time, withCourier bool) models.Order {
		o := models.Order{
			OrderNumber:   num,
			CustomerID:    fx.customer.ID,
			BusinessID:    fx.business.ID,
			Status:        status,
			PaymentMethod: pm,
			Category:      "food",
			Total:         decimal.RequireFromString(total),
			DeliveryFee:   decimal.RequireFromString("15"),
		}
		if withCourier {
			id := fx.courier.ID
			o.CourierID = &id
		}
		if status == models.OrderStatusDelivered {
			o.DeliveredAt = &delivered
		}
		o.CreatedAt = created
		return o
	}

	fx.orders = []models.Order{
		mk("ORD-1", models.OrderStatusDelivered, models.PaymentCreditCard, "1250.50", ts("2024-01-01 00:00"), true),
		mk("ORD-2", models.OrderStatusDelivered, models.PaymentCash, "80", ts("2024-01-31 23:59"), true),
		mk("ORD-3", models.OrderStatusCancelled, models.PaymentCash, "40", ts("2024-01-15 12:00"), false),
		mk("ORD-4", models.OrderStatusDelivered, models.PaymentOnline, "300", ts("2024-02-01 00:00"), true),
		mk("ORD-5", models.OrderStatusDelivered, models.PaymentCash, "55", ts("2023-12-31 23:59"), true),
	}
	for i := range fx.orders {
		require.NoError(t, db.Create(&fx.orders[i]).Error)
	}
	return fx
}
