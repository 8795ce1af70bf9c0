package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataMissing   = errors.New("init data is empty")
	ErrInitDataHash      = errors.New("init data hash mismatch")
	ErrInitDataExpired   = errors.New("init data expired")
	ErrInitDataMalformed = errors.New("init data malformed")
)

// ValidateInitData проверяет подпись initData мини-приложения:
// секрет = HMAC-SHA256("WebAppData", botToken), подпись = HMAC-SHA256(секрет,
// отсортированные пары key=value без hash через "\n"). auth_date не старше ttl.
func ValidateInitData(initData, botToken string, ttl time.Duration, now time.Time) (*User, error) {
	const op = "telegram.ValidateInitData"
	if initData == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInitDataMissing)
	}
	if botToken == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoToken)
	}

	values, err := url.ParseQuery(initData)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInitDataMalformed, err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%s: %w: no hash", op, ErrInitDataMalformed)
	}
	got, err := hex.DecodeString(hash)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrInitDataMalformed, err)
	}

	if !hmac.Equal(got, sign(values, botToken)) {
		return nil, fmt.Errorf("%s: %w", op, ErrInitDataHash)
	}

	authDate, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: auth_date", op, ErrInitDataMalformed)
	}
	if ttl > 0 && now.Sub(time.Unix(authDate, 0)) > ttl {
		return nil, fmt.Errorf("%s: %w", op, ErrInitDataExpired)
	}

	var user User
	if err := json.Unmarshal([]byte(values.Get("user")), &user); err != nil || user.ID == 0 {
		return nil, fmt.Errorf("%s: %w: user", op, ErrInitDataMalformed)
	}
	return &user, nil
}

// SignInitData возвращает hex-подпись для values. Нужна для тестов и локальной отладки клиента.
func SignInitData(values url.Values, botToken string) string {
	return hex.EncodeToString(sign(values, botToken))
}

func sign(values url.Values, botToken string) []byte {
	keys := make([]string, 0, len(values))
	for k := range values {
		if k == "hash" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+values.Get(k))
	}

	secret := hmac.New(sha256.New, []byte("WebAppData"))
	secret.Write([]byte(botToken))

	mac := hmac.New(sha256.New, secret.Sum(nil))
	mac.Write([]byte(strings.Join(pairs, "\n")))
	return mac.Sum(nil)
}
