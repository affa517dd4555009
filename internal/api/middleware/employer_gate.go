package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrbot/internal/database"
)

const employerKey = "employer"

// EmployerGateMiddleware 只放行 employers 表中 is_active 的用户。
// 任何在职 HR（不区分角色）都可以访问审核接口。
func EmployerGateMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		tgUserID, ok := TgUserIDFromContext(c)
		if !ok {
			abortUnauthorized(c, "unauthorized")
			return
		}

		var employer database.Employer
		err := db.WithContext(c.Request.Context()).
			Where("tg_user_id = ? AND is_active = ?", tgUserID, true).
			First(&employer).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve employer"})
			return
		}

		c.Set(employerKey, employer)
		c.Next()
	}
}

// EmployerFromContext 返回闸门中间件解析出的 Employer。
func EmployerFromContext(c *gin.Context) (database.Employer, bool) {
	if value, ok := c.Get(employerKey); ok {
		if employer, ok := value.(database.Employer); ok {
			return employer, true
		}
	}
	return database.Employer{}, false
}
