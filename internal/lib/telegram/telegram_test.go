package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBotToken = "123456:TEST-TOKEN"

func signedInitData(t *testing.T, authDate time.Time, user string) string {
	t.Helper()
	v := url.Values{}
	v.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	v.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	v.Set("user", user)
	v.Set("hash", SignInitData(v, testBotToken))
	return v.Encode()
}

func TestValidateInitData(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	userJSON := `{"id":42,"first_name":"Anna","username":"anna"}`

	tests := []struct {
		name     string
		initData func() string
		token    string
		wantErr  error
		wantUser int64
	}{
		{
			name:     "valid",
			initData: func() string { return signedInitData(t, now.Add(-time.Hour), userJSON) },
			token:    testBotToken,
			wantUser: 42,
		},
		{
			name:     "expired",
			initData: func() string { return signedInitData(t, now.Add(-25*time.Hour), userJSON) },
			token:    testBotToken,
			wantErr:  ErrInitDataExpired,
		},
		{
			name:     "wrong bot token",
			initData: func() string { return signedInitData(t, now, userJSON) },
			token:    "other:token",
			wantErr:  ErrInitDataHash,
		},
		{
			name: "tampered user",
			initData: func() string {
				v, _ := url.ParseQuery(signedInitData(t, now, userJSON))
				v.Set("user", `{"id":1,"first_name":"Mallory"}`)
				return v.Encode()
			},
			token:   testBotToken,
			wantErr: ErrInitDataHash,
		},
		{
			name:     "no hash",
			initData: func() string { return "auth_date=1&user=%7B%7D" },
			token:    testBotToken,
			wantErr:  ErrInitDataMalformed,
		},
		{
			name:     "empty",
			initData: func() string { return "" },
			token:    testBotToken,
			wantErr:  ErrInitDataMissing,
		},
		{
			name:     "user without id",
			initData: func() string { return signedInitData(t, now, `{"first_name":"Anna"}`) },
			token:    testBotToken,
			wantErr:  ErrInitDataMalformed,
		},
		{
			name:     "no bot token configured",
			initData: func() string { return signedInitData(t, now, userJSON) },
			token:    "",
			wantErr:  ErrNoToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := ValidateInitData(tt.initData(), tt.token, 24*time.Hour, now)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, user)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, user.ID)
			assert.Equal(t, "anna", user.Username)
		})
	}
}

func TestClient_SendMessage(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testBotToken, time.Second)
	require.NoError(t, c.SendMessage(context.Background(), 777, "привет"))

	assert.Equal(t, "/bot"+testBotToken+"/sendMessage", path)
	assert.Equal(t, int64(777), got.ChatID)
	assert.Equal(t, "привет", got.Text)
}

func TestClient_SendMessage_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":403,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, testBotToken, time.Second).SendMessage(context.Background(), 1, "x")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 403, apiErr.Code)
	assert.Contains(t, apiErr.Description, "blocked")
}

func TestClient_SendMessage_NoToken(t *testing.T) {
	err := NewClient("http://127.0.0.1:1", "", time.Second).SendMessage(context.Background(), 1, "x")
	assert.ErrorIs(t, err, ErrNoToken)
}
