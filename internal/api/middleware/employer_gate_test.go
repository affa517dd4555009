package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hrbot/internal/database"
)

func newGateDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&database.Employer{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newGatedRouter(db *gorm.DB, tgUserID int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if tgUserID != 0 {
		router.Use(func(c *gin.Context) {
			c.Set(tgUserIDKey, tgUserID)
		})
	}
	router.Use(EmployerGateMiddleware(db))
	router.GET("/admin", func(c *gin.Context) {
		employer, ok := EmployerFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "employer missing from context"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"role": employer.Role})
	})
	return router
}

func TestEmployerGate_AllowsActiveEmployer(t *testing.T) {
	db := newGateDB(t)
	employer := database.Employer{TgUserID: 7, Role: database.RoleRecruiter, IsActive: true}
	if err := db.Create(&employer).Error; err != nil {
		t.Fatalf("seed employer: %v", err)
	}

	router := newGatedRouter(db, 7)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestEmployerGate_RejectsUnknownUser(t *testing.T) {
	db := newGateDB(t)

	router := newGatedRouter(db, 8)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestEmployerGate_RejectsInactiveEmployer(t *testing.T) {
	db := newGateDB(t)
	employer := database.Employer{TgUserID: 9, Role: database.RoleOwner}
	if err := db.Create(&employer).Error; err != nil {
		t.Fatalf("seed employer: %v", err)
	}
	if err := db.Model(&employer).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate employer: %v", err)
	}

	router := newGatedRouter(db, 9)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestEmployerGate_RequiresVerifiedUser(t *testing.T) {
	db := newGateDB(t)

	router := newGatedRouter(db, 0)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d body=%s", w.Code, w.Body.String())
	}
}
