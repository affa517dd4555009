package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/hibiken/asynq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"hrbot/internal/database"
	"hrbot/internal/tasks"
	"hrbot/internal/telegram"
)

type sentMessage struct {
	kind    string
	chatID  int64
	text    string
	hasMark bool
}

type fakeSender struct {
	sent []sentMessage
	err  error
}

func (s *fakeSender) SendMessage(_ context.Context, chatID int64, text string, markup *telegram.ReplyMarkup) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{kind: "message", chatID: chatID, text: text, hasMark: markup != nil})
	return nil
}

func (s *fakeSender) SendPhoto(_ context.Context, chatID int64, _ string, caption string, markup *telegram.ReplyMarkup) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, sentMessage{kind: "photo", chatID: chatID, text: caption, hasMark: markup != nil})
	return nil
}

func newWorkerDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestHandler(db *gorm.DB, sender messageSender) *NotifyTaskHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewNotifyTaskHandler(db, sender, logger)
}

func seedNotifyFixture(t *testing.T, db *gorm.DB) database.Application {
	t.Helper()
	candidate := database.Candidate{TgUserID: 500}
	if err := db.Create(&candidate).Error; err != nil {
		t.Fatalf("seed candidate: %v", err)
	}
	app := database.Application{
		CandidateID: candidate.ID,
		VacancyID:   1,
		FullName:    "Aziz Toshmatov",
		Phone:       "+998900000000",
		Status:      database.StatusNew,
	}
	if err := db.Create(&app).Error; err != nil {
		t.Fatalf("seed application: %v", err)
	}
	return app
}

func seedEmployer(t *testing.T, db *gorm.DB, tgUserID int64, active bool) {
	t.Helper()
	employer := database.Employer{TgUserID: tgUserID, Role: database.RoleRecruiter, IsActive: true}
	if err := db.Create(&employer).Error; err != nil {
		t.Fatalf("seed employer: %v", err)
	}
	if !active {
		if err := db.Model(&employer).Update("is_active", false).Error; err != nil {
			t.Fatalf("deactivate employer: %v", err)
		}
	}
}

func TestProcessTask_ApplicationReceived_FansOutToActiveEmployers(t *testing.T) {
	db := newWorkerDB(t)
	app := seedNotifyFixture(t, db)
	seedEmployer(t, db, 100, true)
	seedEmployer(t, db, 101, true)
	seedEmployer(t, db, 102, false)

	sender := &fakeSender{}
	h := newTestHandler(db, sender)

	task, err := tasks.NewApplicationReceivedTask(app.ID, "corr-1")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages got %d", len(sender.sent))
	}
	recipients := map[int64]bool{}
	for _, msg := range sender.sent {
		recipients[msg.chatID] = true
		if !strings.Contains(msg.text, "Yangi ariza") {
			t.Fatalf("summary missing header: %q", msg.text)
		}
		if !strings.Contains(msg.text, "Aziz Toshmatov") {
			t.Fatalf("summary missing full name: %q", msg.text)
		}
		if !msg.hasMark {
			t.Fatalf("expected inline keyboard on HR notification")
		}
	}
	if !recipients[100] || !recipients[101] || recipients[102] {
		t.Fatalf("unexpected recipients %v", recipients)
	}
}

func TestProcessTask_PhotoUploaded_SendsPhotoWithCaption(t *testing.T) {
	db := newWorkerDB(t)
	app := seedNotifyFixture(t, db)
	if err := db.Model(&app).Update("photo_url", "https://cdn.example.invalid/photos/1_ab.jpg").Error; err != nil {
		t.Fatalf("set photo url: %v", err)
	}
	seedEmployer(t, db, 100, true)

	sender := &fakeSender{}
	h := newTestHandler(db, sender)

	task, err := tasks.NewPhotoUploadedTask(app.ID, "corr-2")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	if len(sender.sent) != 1 {
		t.Fatalf("expected 1 photo got %d sends", len(sender.sent))
	}
	if sender.sent[0].kind != "photo" {
		t.Fatalf("expected photo send got %s", sender.sent[0].kind)
	}
	if !strings.Contains(sender.sent[0].text, "Rasm yuklandi") {
		t.Fatalf("caption missing photo header: %q", sender.sent[0].text)
	}
}

func TestProcessTask_PhotoUploaded_SkipsWhenNoPhoto(t *testing.T) {
	db := newWorkerDB(t)
	app := seedNotifyFixture(t, db)
	seedEmployer(t, db, 100, true)

	sender := &fakeSender{}
	h := newTestHandler(db, sender)

	task, err := tasks.NewPhotoUploadedTask(app.ID, "corr-3")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process task: %v", err)
	}

	if len(sender.sent) != 0 {
		t.Fatalf("expected no sends got %d", len(sender.sent))
	}
}

func TestProcessTask_StatusChanged_NotifiesCandidate(t *testing.T) {
	db := newWorkerDB(t)
	app := seedNotifyFixture(t, db)

	cases := map[string]string{
		"accepted":  "qabul qilindi",
		"rejected":  "rad etildi",
		"in_review": "ko‘rib chiqilmoqda",
		"archived":  "holati yangilandi",
	}
	for status, want := range cases {
		sender := &fakeSender{}
		h := newTestHandler(db, sender)

		task, err := tasks.NewStatusChangedTask(app.ID, status, "corr-4")
		if err != nil {
			t.Fatalf("build task: %v", err)
		}
		if err := h.ProcessTask(context.Background(), task); err != nil {
			t.Fatalf("%s: process task: %v", status, err)
		}

		if len(sender.sent) != 1 {
			t.Fatalf("%s: expected 1 message got %d", status, len(sender.sent))
		}
		msg := sender.sent[0]
		if msg.chatID != 500 {
			t.Fatalf("%s: expected candidate chat 500 got %d", status, msg.chatID)
		}
		if !strings.Contains(msg.text, want) {
			t.Fatalf("%s: message %q missing %q", status, msg.text, want)
		}
	}
}

func TestProcessTask_SendFailureIsSwallowed(t *testing.T) {
	db := newWorkerDB(t)
	app := seedNotifyFixture(t, db)
	seedEmployer(t, db, 100, true)

	sender := &fakeSender{err: errors.New("telegram unavailable")}
	h := newTestHandler(db, sender)

	task, err := tasks.NewApplicationReceivedTask(app.ID, "corr-5")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("send failure must not fail the task: %v", err)
	}
}

func TestProcessTask_MissingApplicationIsSkipped(t *testing.T) {
	db := newWorkerDB(t)
	seedEmployer(t, db, 100, true)

	sender := &fakeSender{}
	h := newTestHandler(db, sender)

	task, err := tasks.NewApplicationReceivedTask(12345, "corr-6")
	if err != nil {
		t.Fatalf("build task: %v", err)
	}
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("missing application must not fail the task: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no sends got %d", len(sender.sent))
	}
}

func TestProcessTask_MalformedPayloadIsSwallowed(t *testing.T) {
	db := newWorkerDB(t)
	sender := &fakeSender{}
	h := newTestHandler(db, sender)

	task := asynq.NewTask(tasks.TypeStatusChanged, []byte("{not json"))
	if err := h.ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("malformed payload must not fail the task: %v", err)
	}
}
