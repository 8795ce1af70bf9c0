// Package response содержит общий формат ответов с ошибкой и результатов
// без данных. Успешные ответы с данными обработчики отдают своими структурами.
package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator"
)

const (
	StatusOK    = "OK"
	StatusError = "Error"
)

// Тексты ошибок, которые видит клиент.
const (
	MsgUnauthorized        = "unauthorized"
	MsgInvalidBody         = "invalid request body"
	MsgInternalError       = "internal error"
	MsgServerMisconfigured = "server misconfiguration"
)

// Response ответ без данных, например на изменение статуса.
type Response struct {
	Status string `json:"status" example:"OK"`
}

// ErrorResponse ответ с ошибкой. Используется и в аннотациях @Failure.
type ErrorResponse struct {
	Status string `json:"status" example:"Error"`
	Error  string `json:"error" example:"invalid request body"`
}

func OK() Response {
	return Response{Status: StatusOK}
}

// Error возвращает ErrorResponse с сообщением msg.
func Error(msg string) ErrorResponse {
	return ErrorResponse{
		Status: StatusError,
		Error:  msg,
	}
}

// ValidationError собирает нарушения валидации в одну строку через запятую.
func ValidationError(errs validator.ValidationErrors) ErrorResponse {
	var errsMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be a valid email", err.Field()))
		case "uuid":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s can contain only uuid", err.Field()))
		case "oneof":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s must be one of: %s", err.Field(), err.Param()))
		case "max":
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is too long", err.Field()))
		default:
			errsMsgs = append(errsMsgs, fmt.Sprintf("field %s is not a valid", err.Field()))
		}
	}
	return ErrorResponse{
		Status: StatusError,
		Error:  strings.Join(errsMsgs, ", "),
	}
}
