package scheduler

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/deliverydesk/internal/database"
	"github.com/deliverydesk/internal/models"
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

func createUser(t *testing.T, db *gorm.DB, email string, role models.Role) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Role: role, IsActive: true}
	require.NoError(t, u.SetPassword("secret"))
	require.NoError(t, db.Create(u).Error)
	return u
}

func fixedClock(s string) func() time.Time {
	now := at(s)
	return func() time.Time { return now }
}
