package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// captionLimit 是 Telegram 对 sendPhoto caption 的长度上限。
const captionLimit = 1024

// Client 是 Telegram Bot API 的最小客户端，只覆盖通知需要的两个方法。
// 所有请求都带有限时超时，慢速的 Bot API 不会拖住后台通知路径。
type Client struct {
	baseURL    string
	botToken   string
	httpClient *http.Client
}

// NewClient 构造 Bot API 客户端。httpClient 传 nil 时使用 10 秒超时的默认客户端。
func NewClient(baseURL, botToken string, httpClient *http.Client) *Client {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = "https://api.telegram.org"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    trimmed,
		botToken:   strings.TrimSpace(botToken),
		httpClient: httpClient,
	}
}

// InlineKeyboardButton 是 inline 键盘上的一个按钮。
type InlineKeyboardButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
}

// ReplyMarkup 仅支持 inline 键盘。
type ReplyMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID                int64        `json:"chat_id"`
	Text                  string       `json:"text"`
	DisableWebPagePreview bool         `json:"disable_web_page_preview"`
	ReplyMarkup           *ReplyMarkup `json:"reply_markup,omitempty"`
}

type sendPhotoRequest struct {
	ChatID      int64        `json:"chat_id"`
	Photo       string       `json:"photo"`
	Caption     string       `json:"caption"`
	ReplyMarkup *ReplyMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// SendMessage 向指定 chat 发送一条文本消息。
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *ReplyMarkup) error {
	return c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:                chatID,
		Text:                  text,
		DisableWebPagePreview: true,
		ReplyMarkup:           markup,
	})
}

// SendPhoto 向指定 chat 发送一张带说明的照片（photoURL 必须公网可达）。
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string, markup *ReplyMarkup) error {
	if len([]rune(caption)) > captionLimit {
		caption = string([]rune(caption)[:captionLimit])
	}
	return c.call(ctx, "sendPhoto", sendPhotoRequest{
		ChatID:      chatID,
		Photo:       photoURL,
		Caption:     caption,
		ReplyMarkup: markup,
	})
}

func (c *Client) call(ctx context.Context, method string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("read %s response: %w", method, err)
	}

	var parsed apiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode %s response (status %d): %w", method, resp.StatusCode, err)
	}
	if !parsed.OK {
		return fmt.Errorf("%s rejected (status %d): %s", method, resp.StatusCode, parsed.Description)
	}
	return nil
}
