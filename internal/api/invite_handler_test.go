package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"hrbot/internal/database"
)

func TestCreateInvite_OwnerOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewInviteHandler(db)

	recruiter := database.Employer{TgUserID: 10, Role: database.RoleRecruiter, IsActive: true}
	if err := db.Create(&recruiter).Error; err != nil {
		t.Fatalf("seed recruiter: %v", err)
	}

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, "/api/internal/invites/create", map[string]any{
		"tg_user_id": 10,
		"role":       "RECRUITER",
	}, 0)

	h.CreateInvite(c)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateInvite_OwnerMintsToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewInviteHandler(db)

	owner := database.Employer{TgUserID: 1, Role: database.RoleOwner, IsActive: true}
	if err := db.Create(&owner).Error; err != nil {
		t.Fatalf("seed owner: %v", err)
	}

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, "/api/internal/invites/create", map[string]any{
		"tg_user_id": 1,
		"role":       "recruiter",
	}, 0)

	h.CreateInvite(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		Role  string `json:"role"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected non-empty token")
	}
	if resp.Role != string(database.RoleRecruiter) {
		t.Fatalf("expected RECRUITER got %s", resp.Role)
	}

	var invite database.EmployerInvite
	if err := db.Where("token = ?", resp.Token).First(&invite).Error; err != nil {
		t.Fatalf("invite not persisted: %v", err)
	}
	if invite.IsUsed {
		t.Fatalf("fresh invite must be unused")
	}
}

func TestJoinInvite_RedeemsExactlyOnce(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewInviteHandler(db)

	invite := database.EmployerInvite{Token: "one-shot-token", Role: database.RoleRecruiter}
	if err := db.Create(&invite).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	join := func(tgUserID int64) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		c := newJSONContext(t, w, http.MethodPost, "/api/internal/invites/join", map[string]any{
			"tg_user_id": tgUserID,
			"token":      "one-shot-token",
		}, 0)
		h.JoinInvite(c)
		return w
	}

	first := join(20)
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", first.Code, first.Body.String())
	}

	var employer database.Employer
	if err := db.Where("tg_user_id = ?", int64(20)).First(&employer).Error; err != nil {
		t.Fatalf("employer not created: %v", err)
	}
	if employer.Role != database.RoleRecruiter || !employer.IsActive {
		t.Fatalf("unexpected employer %+v", employer)
	}

	second := join(21)
	if second.Code != http.StatusNotFound {
		t.Fatalf("second redeem: expected 404 got %d body=%s", second.Code, second.Body.String())
	}

	var count int64
	db.Model(&database.Employer{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 employer got %d", count)
	}
}

func TestJoinInvite_PromotesExistingEmployer(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newTestDB(t)
	h := NewInviteHandler(db)

	existing := database.Employer{TgUserID: 30, Role: database.RoleRecruiter}
	if err := db.Create(&existing).Error; err != nil {
		t.Fatalf("seed employer: %v", err)
	}
	if err := db.Model(&existing).Update("is_active", false).Error; err != nil {
		t.Fatalf("deactivate employer: %v", err)
	}
	invite := database.EmployerInvite{Token: "owner-token", Role: database.RoleOwner}
	if err := db.Create(&invite).Error; err != nil {
		t.Fatalf("seed invite: %v", err)
	}

	w := httptest.NewRecorder()
	c := newJSONContext(t, w, http.MethodPost, "/api/internal/invites/join", map[string]any{
		"tg_user_id": 30,
		"token":      "owner-token",
	}, 0)

	h.JoinInvite(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d body=%s", w.Code, w.Body.String())
	}

	var promoted database.Employer
	if err := db.Where("tg_user_id = ?", int64(30)).First(&promoted).Error; err != nil {
		t.Fatalf("load employer: %v", err)
	}
	if promoted.Role != database.RoleOwner || !promoted.IsActive {
		t.Fatalf("expected active OWNER got %+v", promoted)
	}
}
