package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSendMessage(t *testing.T) {
	var gotPath string
	var gotBody sendMessageRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "token-123", server.Client())
	markup := &ReplyMarkup{InlineKeyboard: [][]InlineKeyboardButton{{
		{Text: "👀 Ko‘rish", CallbackData: "hr:open:7"},
	}}}

	if err := client.SendMessage(context.Background(), 42, "hello", markup); err != nil {
		t.Fatalf("send message: %v", err)
	}
	if gotPath != "/bottoken-123/sendMessage" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotBody.ChatID != 42 || gotBody.Text != "hello" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
	if gotBody.ReplyMarkup == nil || gotBody.ReplyMarkup.InlineKeyboard[0][0].CallbackData != "hr:open:7" {
		t.Fatalf("reply markup not forwarded: %+v", gotBody.ReplyMarkup)
	}
}

func TestSendPhoto_TruncatesCaption(t *testing.T) {
	var gotBody sendPhotoRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t", server.Client())
	caption := strings.Repeat("я", 2000)
	if err := client.SendPhoto(context.Background(), 1, "https://example.com/p.jpg", caption, nil); err != nil {
		t.Fatalf("send photo: %v", err)
	}
	if got := len([]rune(gotBody.Caption)); got != 1024 {
		t.Fatalf("expected caption truncated to 1024 runes, got %d", got)
	}
}

func TestCall_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "t", server.Client())
	err := client.SendMessage(context.Background(), 1, "x", nil)
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("expected api error, got %v", err)
	}
}
