package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrbot/internal/database"
)

// VacancyHandler 提供公开的岗位列表。
type VacancyHandler struct {
	db *gorm.DB
}

// NewVacancyHandler 构造 VacancyHandler。
func NewVacancyHandler(db *gorm.DB) *VacancyHandler {
	return &VacancyHandler{db: db}
}

type vacancyResponse struct {
	ID          uint   `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListVacancies 返回全部在招岗位。
func (h *VacancyHandler) ListVacancies(c *gin.Context) {
	var vacancies []database.Vacancy
	err := h.db.WithContext(c.Request.Context()).
		Where("is_active = ?", true).
		Find(&vacancies).Error
	if err != nil {
		Internal(c, "failed to list vacancies")
		return
	}

	items := make([]vacancyResponse, 0, len(vacancies))
	for _, v := range vacancies {
		items = append(items, vacancyResponse{
			ID:          v.ID,
			Title:       v.Title,
			Description: v.Description,
		})
	}
	c.JSON(http.StatusOK, items)
}
