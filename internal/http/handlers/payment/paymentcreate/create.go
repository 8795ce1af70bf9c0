// Package paymentcreate заводит платёж pending для продукта мини-приложения.
// Статус платежа дальше меняет только вебхук провайдера.
package paymentcreate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skiniq/internal/http/middlewarectx"
	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
	"github.com/magabrotheeeer/skiniq/internal/services/payment"
)

// Request запрос на создание платежа.
type Request struct {
	ProductCode string `json:"productCode" validate:"required"`
}

// Service определяет интерфейс для работы с платежами.
type Service interface {
	Create(ctx context.Context, userID, productCode string) (*models.Payment, error)
}

// Handler обрабатывает POST /api/payments.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создать платеж
// @Description Создает платеж в статусе pending. Id платежа передается провайдеру в metadata.payment_id.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Код продукта"
// @Success 201 {object} models.Payment
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или неизвестный продукт"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /api/payments [post]
// @Security TelegramInitData
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, response.Error(response.MsgUnauthorized))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error(response.MsgInvalidBody))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	p, err := h.service.Create(r.Context(), userID, req.ProductCode)
	if err != nil {
		if errors.Is(err, payment.ErrUnknownProduct) {
			log.Warn("unknown product", slog.String("product", req.ProductCode))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("field productCode is not a valid"))
			return
		}
		log.Error("failed to create payment", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, p)
}
