package database

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/deliverydesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesDirectoryAndMigrates(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "nested", "dir", "test.db"))
	require.NoError(t, err)

	for _, table := range []any{&models.Order{}, &models.Delivery{}, &models.ScheduledReport{}, &models.ReportDeliveryLog{}} {
		assert.True(t, conn.Migrator().HasTable(table))
	}
}

func TestEnsureAdmin(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	created, err := EnsureAdmin(conn, "", "")
	require.NoError(t, err)
	assert.False(t, created)

	created, err = EnsureAdmin(conn, "admin@example.com", "s3cret")
	require.NoError(t, err)
	assert.True(t, created)

	var admin models.User
	require.NoError(t, conn.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CheckPassword("s3cret"))

	created, err = EnsureAdmin(conn, "second@example.com", "other")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestExplicitTimestampsAreStoredInUTC(t *testing.T) {
	conn, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	istanbul := time.FixedZone("TRT", 3*60*60)
	// 2024-01-31 23:30 UTC
	created := time.Date(2024, 2, 1, 2, 30, 0, 0, istanbul)
	delivered := time.Date(2024, 2, 1, 3, 0, 0, 0, istanbul)

	customers := []models.Customer{{Name: "Ayşe"}, {Name: "Can"}}
	customers[0].CreatedAt = created
	require.NoError(t, conn.Create(&customers).Error)

	order := models.Order{OrderNumber: "ORD-TZ", CustomerID: customers[0].ID, DeliveredAt: &delivered}
	order.CreatedAt = created
	require.NoError(t, conn.Create(&order).Error)

	var raw string
	require.NoError(t, conn.Raw("SELECT CAST(created_at AS TEXT) FROM orders WHERE id = ?", order.ID).Scan(&raw).Error)
	assert.True(t, strings.HasPrefix(raw, "2024-01-31 23:30:00"), raw)

	// a January range in UTC must include the row
	var count int64
	require.NoError(t, conn.Model(&models.Order{}).
		Where("created_at BETWEEN ? AND ?", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, conn.Model(&models.Customer{}).
		Where("created_at BETWEEN ? AND ?", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored models.Order
	require.NoError(t, conn.First(&stored, order.ID).Error)
	require.NotNil(t, stored.DeliveredAt)
	assert.True(t, delivered.Equal(*stored.DeliveredAt))
}
