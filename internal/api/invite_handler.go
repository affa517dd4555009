package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hrbot/internal/database"
)

// inviteTokenBytes 是邀请令牌的熵（编码前）。
const inviteTokenBytes = 24

// InviteHandler 负责 HR 邀请令牌的签发与兑换。
type InviteHandler struct {
	db *gorm.DB
}

// NewInviteHandler 构造 InviteHandler。
func NewInviteHandler(db *gorm.DB) *InviteHandler {
	return &InviteHandler{db: db}
}

type inviteCreateRequest struct {
	TgUserID int64  `json:"tg_user_id" binding:"required"`
	Role     string `json:"role"`
}

type inviteJoinRequest struct {
	TgUserID int64  `json:"tg_user_id" binding:"required"`
	Token    string `json:"token" binding:"required"`
}

// CreateInvite 签发一次性邀请令牌，仅 OWNER 可用。
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	var req inviteCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Unprocessable(c, err.Error())
		return
	}

	role, err := database.ParseEmployerRole(req.Role)
	if err != nil {
		Unprocessable(c, err.Error())
		return
	}

	ctx := c.Request.Context()

	var owner database.Employer
	err = h.db.WithContext(ctx).
		Where("tg_user_id = ? AND is_active = ?", req.TgUserID, true).
		First(&owner).Error
	if err != nil || owner.Role != database.RoleOwner {
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			Internal(c, "failed to resolve employer")
			return
		}
		Forbidden(c, "owner only")
		return
	}

	token := newInviteToken()
	invite := database.EmployerInvite{Token: token, Role: role, IsUsed: false}
	if err := h.db.WithContext(ctx).Create(&invite).Error; err != nil {
		Internal(c, "failed to create invite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "token": token, "role": invite.Role})
}

// JoinInvite 兑换邀请令牌。
// 令牌标记已用与员工的创建/晋升在同一事务里提交，要么都生效要么都不生效。
func (h *InviteHandler) JoinInvite(c *gin.Context) {
	var req inviteJoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Unprocessable(c, err.Error())
		return
	}

	var role database.EmployerRole
	err := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var invite database.EmployerInvite
		err := tx.Where("token = ? AND is_used = ?", req.Token, false).First(&invite).Error
		if err != nil {
			return err
		}

		var employer database.Employer
		err = tx.Where("tg_user_id = ?", req.TgUserID).First(&employer).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			employer = database.Employer{
				TgUserID: req.TgUserID,
				Role:     invite.Role,
				IsActive: true,
			}
			if err := tx.Create(&employer).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			employer.Role = invite.Role
			employer.IsActive = true
			if err := tx.Save(&employer).Error; err != nil {
				return err
			}
		}

		invite.IsUsed = true
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}

		role = employer.Role
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "invite not found or already used")
			return
		}
		Internal(c, "failed to join invite")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "role": role})
}

// newInviteToken 生成 URL-safe 的一次性令牌。
func newInviteToken() string {
	buf := make([]byte, inviteTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}
