package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusRequest struct {
	ChatID string `json:"chatId" validate:"required,uuid"`
	Status string `json:"status" validate:"required,oneof=active in_progress closed"`
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name string
		req  statusRequest
		want string
	}{
		{
			name: "missing fields",
			req:  statusRequest{},
			want: "field ChatID is a required field, field Status is a required field",
		},
		{
			name: "bad enum and uuid",
			req:  statusRequest{ChatID: "42", Status: "archived"},
			want: "field ChatID can contain only uuid, field Status must be one of: active in_progress closed",
		},
	}
	v := validator.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.req)
			require.Error(t, err)
			got := ValidationError(err.(validator.ValidationErrors))
			assert.Equal(t, StatusError, got.Status)
			assert.Equal(t, tt.want, got.Error)
		})
	}
}

func TestError(t *testing.T) {
	assert.Equal(t, ErrorResponse{Status: "Error", Error: "unauthorized"}, Error(MsgUnauthorized))
	assert.Equal(t, Response{Status: "OK"}, OK())
}
