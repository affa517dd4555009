package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrbot/internal/database"
)

// EmployerHandler 提供 bot 侧的角色解析。
type EmployerHandler struct {
	db *gorm.DB
}

// NewEmployerHandler 构造 EmployerHandler。
func NewEmployerHandler(db *gorm.DB) *EmployerHandler {
	return &EmployerHandler{db: db}
}

// GetByTg 按 Telegram 用户 ID 解析 HR 身份。
// 不是在职 HR 时返回 {is_hr:false, role:null}，而不是 404：bot 据此渲染菜单。
func (h *EmployerHandler) GetByTg(c *gin.Context) {
	tgUserID, err := strconv.ParseInt(c.Param("tg_user_id"), 10, 64)
	if err != nil {
		Unprocessable(c, "tg_user_id must be an integer")
		return
	}

	var employer database.Employer
	err = h.db.WithContext(c.Request.Context()).
		Where("tg_user_id = ? AND is_active = ?", tgUserID, true).
		First(&employer).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"is_hr": false, "role": nil})
			return
		}
		Internal(c, "failed to resolve employer")
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_hr": true, "role": employer.Role})
}
