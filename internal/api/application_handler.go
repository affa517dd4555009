package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/dutchcoders/go-clamd"
	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"gorm.io/gorm"

	"hrbot/internal/api/middleware"
	"hrbot/internal/database"
	"hrbot/internal/tasks"
)

// photoStorage 是照片上传需要的对象存储能力。
type photoStorage interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	DeleteObject(ctx context.Context, objectKey string) error
	PublicURL(objectKey string) string
	KeyFromURL(publicURL string) (string, bool)
}

// allowedPhotoTypes 是照片上传允许的 MIME 类型与对应扩展名。
var allowedPhotoTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

var errUnknownVacancy = errors.New("unknown vacancy")

// ApplicationHandler 负责候选人侧的申请提交与照片上传。
type ApplicationHandler struct {
	db            *gorm.DB
	queue         taskEnqueuer
	storage       photoStorage
	counter       redisRateCounter
	clamdAddr     string
	maxPhotoBytes int64
	dailyLimit    int
}

// NewApplicationHandler 构造 ApplicationHandler。counter 可以为 nil（不限流）。
func NewApplicationHandler(
	db *gorm.DB,
	queue taskEnqueuer,
	storage photoStorage,
	counter redisRateCounter,
	clamdAddr string,
	maxPhotoBytes int64,
	dailyLimit int,
) *ApplicationHandler {
	return &ApplicationHandler{
		db:            db,
		queue:         queue,
		storage:       storage,
		counter:       counter,
		clamdAddr:     clamdAddr,
		maxPhotoBytes: maxPhotoBytes,
		dailyLimit:    dailyLimit,
	}
}

type createApplicationRequest struct {
	FullName string `json:"full_name" binding:"required,min=2,max=160"`
	Phone    string `json:"phone" binding:"required,min=6,max=40"`

	BirthDate   string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Nationality string `json:"nationality" binding:"omitempty,max=80"`
	Address     string `json:"address" binding:"omitempty,max=255"`
	Gender      string `json:"gender" binding:"omitempty,oneof=male female"`

	PrevJob            string `json:"prev_job" binding:"omitempty,max=255"`
	PrevJobDuration    string `json:"prev_job_duration" binding:"omitempty,max=80"`
	PrevJobLeaveReason string `json:"prev_job_leave_reason" binding:"omitempty,max=255"`

	IsMarried      bool   `json:"is_married"`
	Source         string `json:"source" binding:"omitempty,max=255"`
	PreferredShift string `json:"preferred_shift" binding:"omitempty,oneof=morning afternoon flex"`
	DesiredSalary  string `json:"desired_salary" binding:"omitempty,max=80"`
	WhyHireFacts   string `json:"why_hire_facts"`

	// 可选：投递到指定岗位；缺省落到默认岗位。
	VacancyID uint `json:"vacancy_id"`
}

// CreateApplication 接收 mini-app 的申请表单。
// 候选人与默认岗位按需懒创建，通知在事务提交之后才投递。
func (h *ApplicationHandler) CreateApplication(c *gin.Context) {
	var req createApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Unprocessable(c, err.Error())
		return
	}

	tgUserID, ok := middleware.TgUserIDFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	ctx := c.Request.Context()

	if h.dailyLimit > 0 && h.counter != nil {
		key := fmt.Sprintf("submit:%d:%s", tgUserID, time.Now().UTC().Format("2006-01-02"))
		count, err := incrWithTTL(ctx, h.counter, key, 24*time.Hour)
		if err != nil {
			// 限流计数器不可用时放行，投递流程不依赖 Redis 的可用性。
			middleware.LoggerFromContext(c).Warn("submit counter unavailable", slog.Any("error", err))
		} else if count > int64(h.dailyLimit) {
			TooManyRequests(c, "daily application limit reached")
			return
		}
	}

	app, err := h.insertApplication(ctx, tgUserID, middleware.TgUsernameFromContext(c), req)
	if err != nil {
		if errors.Is(err, errUnknownVacancy) {
			Unprocessable(c, "unknown vacancy")
			return
		}
		middleware.LoggerFromContext(c).Error("create application failed", slog.Any("error", err))
		Internal(c, "failed to create application")
		return
	}

	task, terr := tasks.NewApplicationReceivedTask(app.ID, middleware.GetCorrelationID(c))
	enqueueNotify(c, h.queue, task, terr)

	c.JSON(http.StatusCreated, gin.H{"id": app.ID})
}

// insertApplication 在单个事务里完成候选人/岗位的懒创建与申请插入。
func (h *ApplicationHandler) insertApplication(ctx context.Context, tgUserID int64, tgUsername string, req createApplicationRequest) (*database.Application, error) {
	var app database.Application

	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var candidate database.Candidate
		err := tx.Where("tg_user_id = ?", tgUserID).First(&candidate).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			candidate = database.Candidate{TgUserID: tgUserID, TgUsername: tgUsername}
			if err := tx.Create(&candidate).Error; err != nil {
				return fmt.Errorf("create candidate: %w", err)
			}
		case err != nil:
			return fmt.Errorf("query candidate: %w", err)
		}

		var vacancy database.Vacancy
		if req.VacancyID != 0 {
			err := tx.Where("id = ? AND is_active = ?", req.VacancyID, true).First(&vacancy).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUnknownVacancy
			}
			if err != nil {
				return fmt.Errorf("query vacancy: %w", err)
			}
		} else {
			err := tx.Where("title = ?", database.DefaultVacancyTitle).First(&vacancy).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				vacancy = database.Vacancy{
					Title:       database.DefaultVacancyTitle,
					Description: "Default application",
					IsActive:    true,
				}
				if err := tx.Create(&vacancy).Error; err != nil {
					return fmt.Errorf("create default vacancy: %w", err)
				}
			case err != nil:
				return fmt.Errorf("query default vacancy: %w", err)
			}
		}

		app = database.Application{
			CandidateID:        candidate.ID,
			VacancyID:          vacancy.ID,
			FullName:           req.FullName,
			Phone:              req.Phone,
			Nationality:        req.Nationality,
			Address:            req.Address,
			Gender:             req.Gender,
			PrevJob:            req.PrevJob,
			PrevJobDuration:    req.PrevJobDuration,
			PrevJobLeaveReason: req.PrevJobLeaveReason,
			IsMarried:          req.IsMarried,
			Source:             req.Source,
			DesiredSalary:      req.DesiredSalary,
			PreferredShift:     req.PreferredShift,
			WhyHireFacts:       req.WhyHireFacts,
			Status:             database.StatusNew,
		}
		if req.BirthDate != "" {
			// 格式已在 binding 阶段校验过。
			birthDate, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				return fmt.Errorf("parse birth date: %w", err)
			}
			app.BirthDate = &birthDate
		}

		if err := tx.Create(&app).Error; err != nil {
			return fmt.Errorf("create application: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// UploadPhoto 为已有申请补充照片。
// 只有申请的归属候选人可以上传；对非归属者一律返回 404，不暴露申请是否存在。
func (h *ApplicationHandler) UploadPhoto(c *gin.Context) {
	tgUserID, ok := middleware.TgUserIDFromContext(c)
	if !ok {
		Unauthorized(c)
		return
	}

	applicationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		NotFound(c, "application not found")
		return
	}

	ctx := c.Request.Context()

	var app database.Application
	err = h.db.WithContext(ctx).
		Joins("JOIN candidates ON candidates.id = applications.candidate_id").
		Where("applications.id = ? AND candidates.tg_user_id = ?", applicationID, tgUserID).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "application not found")
			return
		}
		Internal(c, "failed to query application")
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		BadRequest(c, "missing photo")
		return
	}

	contentType := file.Header.Get("Content-Type")
	ext, ok := allowedPhotoTypes[contentType]
	if !ok {
		BadRequest(c, "only jpg, png, webp allowed")
		return
	}

	if file.Size > h.maxPhotoBytes {
		BadRequest(c, fmt.Sprintf("max file size is %d bytes", h.maxPhotoBytes))
		return
	}

	if h.clamdAddr != "" {
		if err := h.scanPhoto(file); err != nil {
			if errors.Is(err, errMaliciousFile) {
				BadRequest(c, "malicious file detected")
				return
			}
			middleware.LoggerFromContext(c).Error("scan photo failed", slog.Any("error", err))
			Internal(c, "failed to scan photo")
			return
		}
	}

	reader, err := file.Open()
	if err != nil {
		Internal(c, "failed to open photo")
		return
	}
	defer reader.Close()

	objectKey := fmt.Sprintf("photos/%d_%s%s", app.ID, randomHex(16), ext)
	if _, err := h.storage.UploadFile(ctx, objectKey, reader, file.Size, contentType); err != nil {
		middleware.LoggerFromContext(c).Error("upload photo failed", slog.Any("error", err))
		Internal(c, "failed to store photo")
		return
	}

	previousURL := app.PhotoURL
	photoURL := h.storage.PublicURL(objectKey)
	if err := h.db.WithContext(ctx).Model(&app).Update("photo_url", photoURL).Error; err != nil {
		Internal(c, "failed to save photo url")
		return
	}

	// 重复上传会覆盖 photo_url，旧对象 best-effort 清理。
	if previousURL != "" && previousURL != photoURL {
		if oldKey, ok := h.storage.KeyFromURL(previousURL); ok {
			if err := h.storage.DeleteObject(ctx, oldKey); err != nil {
				middleware.LoggerFromContext(c).Warn("delete previous photo failed",
					slog.String("object_key", oldKey),
					slog.Any("error", err),
				)
			}
		}
	}

	task, terr := tasks.NewPhotoUploadedTask(app.ID, middleware.GetCorrelationID(c))
	enqueueNotify(c, h.queue, task, terr)

	c.JSON(http.StatusOK, gin.H{"photo_url": photoURL})
}

var errMaliciousFile = errors.New("malicious file detected")

// scanPhoto 通过 clamd 扫描上传内容。
func (h *ApplicationHandler) scanPhoto(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return fmt.Errorf("open photo for scan: %w", err)
	}

	clamdClient := clamd.NewClamd(h.clamdAddr)
	abortChan := make(chan bool)
	scanChan, err := clamdClient.ScanStream(reader, abortChan)
	reader.Close()
	if err != nil {
		return fmt.Errorf("scan stream: %w", err)
	}
	defer close(abortChan)

	for result := range scanChan {
		if result.Status != clamd.RES_OK {
			return errMaliciousFile
		}
	}
	return nil
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand 在受支持平台上不会失败。
		panic(err)
	}
	return hex.EncodeToString(buf)
}
