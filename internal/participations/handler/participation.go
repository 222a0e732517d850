package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	participationserrors "webinars/internal/participations/errors"
	"webinars/internal/participations/service"
	"webinars/internal/participations/validator"
	httputil "webinars/pkg/http"
	"webinars/pkg/logger"
	"webinars/pkg/model"
	"webinars/pkg/sanitizer"
)

type ParticipationHandler struct {
	service   service.ParticipationService
	validator *validator.ParticipationValidator
	log       *logger.Logger
}

func NewParticipationHandler(service service.ParticipationService, validator *validator.ParticipationValidator, log *logger.Logger) *ParticipationHandler {
	return &ParticipationHandler{
		service:   service,
		validator: validator,
		log:       log,
	}
}

func (h *ParticipationHandler) Book(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	webinarID, err := httputil.PathParam(sanitizer.SanitizeID(ps.ByName("id")), "webinar id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	var req model.ParticipationRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.log.Warn("Invalid participation request body", "webinar_id", webinarID, "error", err)
		httputil.WriteError(w, err)
		return
	}

	sanitizer.SanitizeParticipationRequest(&req)
	if err := h.validator.ValidateRequest(&req); err != nil {
		httputil.WriteError(w, service.InvalidInput(err))
		return
	}

	participation, err := h.service.BookSeat(r.Context(), webinarID, &model.User{ID: req.UserID, Email: req.Email})
	if err != nil {
		httputil.WriteError(w, participationserrors.ToAppError(err))
		return
	}

	httputil.WriteCreated(w, participation)
}

func (h *ParticipationHandler) List(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	webinarID, err := httputil.PathParam(sanitizer.SanitizeID(ps.ByName("id")), "webinar id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	participations, err := h.service.ListParticipants(r.Context(), webinarID)
	if err != nil {
		httputil.WriteError(w, participationserrors.ToAppError(err))
		return
	}

	httputil.WriteSuccess(w, participations)
}

func (h *ParticipationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/webinars/id/:id/participations", h.Book)
	router.GET("/api/v1/webinars/id/:id/participations", h.List)
}
