package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	// ErrEmptyInitData 表示 initData 为空串。
	ErrEmptyInitData = errors.New("init data is empty")
	// ErrInvalidSignature 表示 hash 缺失或签名校验失败。
	ErrInvalidSignature = errors.New("init data signature is invalid")
	// ErrNoUser 表示已验签的 initData 里没有可用的 user 字段。
	ErrNoUser = errors.New("user is missing in init data")
)

// VerifyInitData 校验 Telegram WebApp initData 的签名。
// 校验通过时返回去掉 hash 字段后的键值对，否则返回错误。
//
// 算法与 Telegram 文档一致：
//  1. 去掉 hash 字段，其余键按字典序排成 "key=value"，以 \n 连接；
//  2. secret = HMAC-SHA256(key="WebAppData", msg=botToken)；
//  3. 期望 hash = hex(HMAC-SHA256(key=secret, msg=dataCheckString))，常数时间比较。
func VerifyInitData(initData, botToken string) (map[string]string, error) {
	if initData == "" {
		return nil, ErrEmptyInitData
	}

	parsed, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("parse init data: %w", err)
	}

	data := make(map[string]string, len(parsed))
	for key, values := range parsed {
		// 重复键取最后一个出现的值。
		data[key] = values[len(values)-1]
	}

	receivedHash, ok := data["hash"]
	if !ok || receivedHash == "" {
		return nil, ErrInvalidSignature
	}
	delete(data, "hash")

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+data[key])
	}
	dataCheckString := strings.Join(pairs, "\n")

	secretMAC := hmac.New(sha256.New, []byte("WebAppData"))
	secretMAC.Write([]byte(botToken))
	secretKey := secretMAC.Sum(nil)

	checkMAC := hmac.New(sha256.New, secretKey)
	checkMAC.Write([]byte(dataCheckString))
	calculatedHash := hex.EncodeToString(checkMAC.Sum(nil))

	if !hmac.Equal([]byte(calculatedHash), []byte(receivedHash)) {
		return nil, ErrInvalidSignature
	}

	return data, nil
}

type initDataUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UserID 从已验签的 initData 键值对中取出 Telegram 用户 ID。
func UserID(data map[string]string) (int64, error) {
	raw, ok := data["user"]
	if !ok || raw == "" {
		return 0, ErrNoUser
	}

	var user initDataUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return 0, fmt.Errorf("decode init data user: %w", err)
	}
	if user.ID == 0 {
		return 0, ErrNoUser
	}
	return user.ID, nil
}

// Username 从已验签的 initData 中取出用户名，没有则返回空串。
func Username(data map[string]string) string {
	raw, ok := data["user"]
	if !ok || raw == "" {
		return ""
	}
	var user initDataUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return ""
	}
	return user.Username
}
