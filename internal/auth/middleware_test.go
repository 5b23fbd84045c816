package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/deliverydesk/internal/database"
	"github.com/deliverydesk/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func setup(t *testing.T) (*gorm.DB, *models.User, *models.User) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	admin := &models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, IsActive: true}
	courier := &models.User{Name: "Kurye", Email: "kurye@example.com", Role: models.RoleCourier, IsActive: true}
	for _, u := range []*models.User{admin, courier} {
		require.NoError(t, u.SetPassword("secret"))
		require.NoError(t, db.Create(u).Error)
	}
	return db, admin, courier
}

func bearer(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := GenerateToken(u, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func perform(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestTokenRoundTrip(t *testing.T) {
	u := &models.User{Role: models.RoleBusiness}
	u.ID = 12
	token, err := GenerateToken(u, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(12), claims.UserID)
	assert.Equal(t, models.RoleBusiness, claims.Role)

	_, err = ParseToken(token, "other-secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := GenerateToken(u, testSecret, -time.Minute)
	require.NoError(t, err)
	_, err = ParseToken(expired, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestMiddlewareAndPermissions(t *testing.T) {
	db, admin, courier := setup(t)

	r := gin.New()
	r.GET("/", Middleware(db, testSecret), RequirePermission(models.PermReportsCreate), func(c *gin.Context) {
		c.String(http.StatusOK, CurrentUser(c).Email)
	})

	assert.Equal(t, http.StatusUnauthorized, perform(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, map[string]string{"Authorization": "Bearer junk"}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, map[string]string{"Authorization": bearer(t, courier)}).Code)

	w := perform(r, map[string]string{"Authorization": bearer(t, admin)})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin@example.com", w.Body.String())

	require.NoError(t, db.Model(admin).Update("is_active", false).Error)
	assert.Equal(t, http.StatusForbidden, perform(r, map[string]string{"Authorization": bearer(t, admin)}).Code)
}

func TestRequireRole(t *testing.T) {
	db, admin, courier := setup(t)

	r := gin.New()
	r.GET("/", Middleware(db, testSecret), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, perform(r, map[string]string{"Authorization": bearer(t, admin)}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, map[string]string{"Authorization": bearer(t, courier)}).Code)
}

func TestAdminOrAPIKey(t *testing.T) {
	db, admin, courier := setup(t)

	r := gin.New()
	r.GET("/", AdminOrAPIKey(db, testSecret, "cron-key"), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, perform(r, map[string]string{APIKeyHeader: "cron-key"}).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, map[string]string{APIKeyHeader: "wrong"}).Code)
	assert.Equal(t, http.StatusNoContent, perform(r, map[string]string{"Authorization": bearer(t, admin)}).Code)
	assert.Equal(t, http.StatusForbidden, perform(r, map[string]string{"Authorization": bearer(t, courier)}).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, nil).Code)

	noKey := gin.New()
	noKey.GET("/", AdminOrAPIKey(db, testSecret, ""), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	assert.Equal(t, http.StatusUnauthorized, perform(noKey, map[string]string{APIKeyHeader: ""}).Code)
	assert.Equal(t, http.StatusUnauthorized, perform(noKey, map[string]string{APIKeyHeader: "anything"}).Code)
}
