// Package create создаёт рассылку: черновик или запланированную на scheduledAt.
package create

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/skiniq/internal/http/response"
	"github.com/magabrotheeeer/skiniq/internal/lib/sl"
	"github.com/magabrotheeeer/skiniq/internal/models"
)

type Request struct {
	Title       string     `json:"title" validate:"max=200"`
	Message     string     `json:"message" validate:"required,max=3800"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

type Response struct {
	Broadcast *models.Broadcast `json:"broadcast"`
}

type Service interface {
	Create(ctx context.Context, title, message string, scheduledAt *time.Time) (*models.Broadcast, error)
}

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
// @Summary Создать рассылку
// @Description Без scheduledAt создается черновик, с ним рассылка уходит в указанное время.
// @Tags Broadcasts
// @Accept  json
// @Produce  json
// @Param request body Request true "Рассылка"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/admin/broadcasts [post]
// @Security AdminToken
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.broadcast.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
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

	b, err := h.service.Create(r.Context(), req.Title, req.Message, req.ScheduledAt)
	if err != nil {
		log.Error("failed to create broadcast", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error(response.MsgInternalError))
		return
	}

	log.Info("broadcast created", slog.String("broadcast_id", b.ID), slog.String("status", b.Status))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{Broadcast: b})
}
