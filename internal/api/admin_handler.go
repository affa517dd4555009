package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrbot/internal/api/middleware"
	"hrbot/internal/database"
	"hrbot/internal/tasks"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// AdminHandler 是 HR 审核面：列表、详情、状态流转。
// 同一组方法同时挂在 WebApp 管理面（员工闸门）与内部面（共享密钥）之下。
type AdminHandler struct {
	db    *gorm.DB
	queue taskEnqueuer
}

// NewAdminHandler 构造 AdminHandler。
func NewAdminHandler(db *gorm.DB, queue taskEnqueuer) *AdminHandler {
	return &AdminHandler{db: db, queue: queue}
}

// adminApplicationResponse 是申请在审核面上的 wire 表示，与存储实体解耦。
type adminApplicationResponse struct {
	ID        uint `json:"id"`
	VacancyID uint `json:"vacancy_id"`

	FullName  string  `json:"full_name"`
	Phone     string  `json:"phone"`
	BirthDate *string `json:"birth_date"`

	Nationality string `json:"nationality,omitempty"`
	Address     string `json:"address,omitempty"`
	Gender      string `json:"gender,omitempty"`

	PrevJob            string `json:"prev_job,omitempty"`
	PrevJobDuration    string `json:"prev_job_duration,omitempty"`
	PrevJobLeaveReason string `json:"prev_job_leave_reason,omitempty"`

	IsMarried      bool   `json:"is_married"`
	Source         string `json:"source,omitempty"`
	DesiredSalary  string `json:"desired_salary,omitempty"`
	PreferredShift string `json:"preferred_shift,omitempty"`
	WhyHireFacts   string `json:"why_hire_facts,omitempty"`

	PhotoURL string `json:"photo_url,omitempty"`

	Status    database.ApplicationStatus `json:"status"`
	CreatedAt time.Time                  `json:"created_at"`
}

func newAdminApplicationResponse(app database.Application) adminApplicationResponse {
	resp := adminApplicationResponse{
		ID:                 app.ID,
		VacancyID:          app.VacancyID,
		FullName:           app.FullName,
		Phone:              app.Phone,
		Nationality:        app.Nationality,
		Address:            app.Address,
		Gender:             app.Gender,
		PrevJob:            app.PrevJob,
		PrevJobDuration:    app.PrevJobDuration,
		PrevJobLeaveReason: app.PrevJobLeaveReason,
		IsMarried:          app.IsMarried,
		Source:             app.Source,
		DesiredSalary:      app.DesiredSalary,
		PreferredShift:     app.PreferredShift,
		WhyHireFacts:       app.WhyHireFacts,
		PhotoURL:           app.PhotoURL,
		Status:             app.Status,
		CreatedAt:          app.CreatedAt,
	}
	if app.BirthDate != nil {
		formatted := app.BirthDate.Format("2006-01-02")
		resp.BirthDate = &formatted
	}
	return resp
}

// ListApplications 返回申请列表，最新的在前。
// 过滤：status、vacancy_id；分页：limit/offset。
func (h *AdminHandler) ListApplications(c *gin.Context) {
	query := h.db.WithContext(c.Request.Context()).Model(&database.Application{})

	if raw := c.Query("status"); raw != "" {
		status, err := database.ParseApplicationStatus(raw)
		if err != nil {
			Unprocessable(c, err.Error())
			return
		}
		query = query.Where("status = ?", status)
	}

	if raw := c.Query("vacancy_id"); raw != "" {
		vacancyID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			Unprocessable(c, "vacancy_id must be an integer")
			return
		}
		query = query.Where("vacancy_id = ?", vacancyID)
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	var apps []database.Application
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&apps).Error; err != nil {
		Internal(c, "failed to list applications")
		return
	}

	items := make([]adminApplicationResponse, 0, len(apps))
	for _, app := range apps {
		items = append(items, newAdminApplicationResponse(app))
	}
	c.JSON(http.StatusOK, items)
}

// GetApplication 返回一份申请的完整卡片。
func (h *AdminHandler) GetApplication(c *gin.Context) {
	applicationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		NotFound(c, "not found")
		return
	}

	var app database.Application
	if err := h.db.WithContext(c.Request.Context()).First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}

	c.JSON(http.StatusOK, newAdminApplicationResponse(app))
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus 变更申请状态并通知候选人。
// 状态之间不限制迁移顺序；通知失败不影响本次变更。
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	applicationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		NotFound(c, "not found")
		return
	}

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Unprocessable(c, err.Error())
		return
	}

	status, err := database.ParseApplicationStatus(req.Status)
	if err != nil {
		Unprocessable(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var app database.Application
	if err := h.db.WithContext(ctx).First(&app, applicationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}

	if err := h.db.WithContext(ctx).Model(&app).Update("status", status).Error; err != nil {
		Internal(c, "failed to update status")
		return
	}

	task, terr := tasks.NewStatusChangedTask(app.ID, string(status), middleware.GetCorrelationID(c))
	enqueueNotify(c, h.queue, task, terr)

	c.JSON(http.StatusOK, gin.H{"ok": true, "id": app.ID, "status": status})
}
