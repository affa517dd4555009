package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hrbot/internal/security"
)

const (
	tgUserIDKey   = "tgUserID"
	tgUsernameKey = "tgUsername"
)

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}

// WebAppAuthMiddleware 校验 X-Tg-Init-Data 签名，并把 Telegram 用户注入上下文。
func WebAppAuthMiddleware(botToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		data, err := security.VerifyInitData(c.GetHeader("X-Tg-Init-Data"), botToken)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		tgUserID, err := security.UserID(data)
		if err != nil {
			abortUnauthorized(c, err.Error())
			return
		}

		c.Set(tgUserIDKey, tgUserID)
		c.Set(tgUsernameKey, security.Username(data))
		c.Next()
	}
}

// TgUserIDFromContext 返回已验签请求对应的 Telegram 用户 ID。
func TgUserIDFromContext(c *gin.Context) (int64, bool) {
	if value, ok := c.Get(tgUserIDKey); ok {
		if id, ok := value.(int64); ok {
			return id, true
		}
	}
	return 0, false
}

// TgUsernameFromContext 返回请求用户的 Telegram 用户名，可能为空。
func TgUsernameFromContext(c *gin.Context) string {
	if value, ok := c.Get(tgUsernameKey); ok {
		if name, ok := value.(string); ok {
			return name
		}
	}
	return ""
}
