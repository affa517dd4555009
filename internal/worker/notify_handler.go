package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"hrbot/internal/database"
	"hrbot/internal/tasks"
	"hrbot/internal/telegram"
)

// messageSender 是通知需要的 Telegram 发送能力。
type messageSender interface {
	SendMessage(ctx context.Context, chatID int64, text string, markup *telegram.ReplyMarkup) error
	SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup *telegram.ReplyMarkup) error
}

// NotifyTaskHandler 消费通知任务。
// 通知是 best-effort：单个收件人发送失败只记日志，整个任务不重试。
type NotifyTaskHandler struct {
	db     *gorm.DB
	sender messageSender
	logger *slog.Logger
}

// NewNotifyTaskHandler 创建任务处理器。
func NewNotifyTaskHandler(db *gorm.DB, sender messageSender, logger *slog.Logger) *NotifyTaskHandler {
	return &NotifyTaskHandler{db: db, sender: sender, logger: logger}
}

// ProcessTask 实现 asynq.Handler。
func (h *NotifyTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	switch t.Type() {
	case tasks.TypeApplicationReceived:
		return h.handleApplicationReceived(ctx, t)
	case tasks.TypePhotoUploaded:
		return h.handlePhotoUploaded(ctx, t)
	case tasks.TypeStatusChanged:
		return h.handleStatusChanged(ctx, t)
	}
	h.logger.Warn("unknown notify task type", slog.String("task_type", t.Type()))
	return nil
}

func (h *NotifyTaskHandler) handleApplicationReceived(ctx context.Context, t *asynq.Task) error {
	var payload tasks.ApplicationReceivedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return nil
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("application_id", uint64(payload.ApplicationID)),
	)

	app, ok := h.loadApplication(ctx, log, payload.ApplicationID)
	if !ok {
		return nil
	}

	text := applicationSummary(app)
	markup := hrOpenMarkup(app.ID)
	h.fanOutToEmployers(ctx, log, func(chatID int64) error {
		return h.sender.SendMessage(ctx, chatID, text, markup)
	})
	return nil
}

func (h *NotifyTaskHandler) handlePhotoUploaded(ctx context.Context, t *asynq.Task) error {
	var payload tasks.PhotoUploadedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return nil
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("application_id", uint64(payload.ApplicationID)),
	)

	app, ok := h.loadApplication(ctx, log, payload.ApplicationID)
	if !ok {
		return nil
	}
	if app.PhotoURL == "" {
		log.Warn("application has no photo url, skipping notification")
		return nil
	}

	caption := photoCaption(app)
	markup := hrOpenMarkup(app.ID)
	h.fanOutToEmployers(ctx, log, func(chatID int64) error {
		return h.sender.SendPhoto(ctx, chatID, app.PhotoURL, caption, markup)
	})
	return nil
}

func (h *NotifyTaskHandler) handleStatusChanged(ctx context.Context, t *asynq.Task) error {
	var payload tasks.StatusChangedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.logger.Error("unmarshal task payload failed", slog.Any("error", err))
		return nil
	}

	log := h.logger.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("application_id", uint64(payload.ApplicationID)),
		slog.String("status", payload.Status),
	)

	app, ok := h.loadApplication(ctx, log, payload.ApplicationID)
	if !ok {
		return nil
	}

	var candidate database.Candidate
	if err := h.db.WithContext(ctx).First(&candidate, app.CandidateID).Error; err != nil {
		log.Error("query candidate failed", slog.Any("error", err))
		return nil
	}

	status, err := database.ParseApplicationStatus(payload.Status)
	if err != nil {
		// 未知状态走兜底模板。
		status = ""
	}

	if err := h.sender.SendMessage(ctx, candidate.TgUserID, statusMessage(status), nil); err != nil {
		log.Error("notify candidate failed",
			slog.Int64("chat_id", candidate.TgUserID),
			slog.Any("error", err),
		)
	}
	return nil
}

func (h *NotifyTaskHandler) loadApplication(ctx context.Context, log *slog.Logger, id uint) (database.Application, bool) {
	var app database.Application
	if err := h.db.WithContext(ctx).First(&app, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("application not found, skipping notification")
		} else {
			log.Error("query application failed", slog.Any("error", err))
		}
		return database.Application{}, false
	}
	return app, true
}

// fanOutToEmployers 向全部在职 HR 逐个发送；单个失败不影响其余收件人。
func (h *NotifyTaskHandler) fanOutToEmployers(ctx context.Context, log *slog.Logger, send func(chatID int64) error) {
	var employers []database.Employer
	if err := h.db.WithContext(ctx).Where("is_active = ?", true).Find(&employers).Error; err != nil {
		log.Error("query employers failed", slog.Any("error", err))
		return
	}

	for _, employer := range employers {
		if err := send(employer.TgUserID); err != nil {
			log.Error("notify employer failed",
				slog.Int64("chat_id", employer.TgUserID),
				slog.Any("error", err),
			)
		}
	}
}
