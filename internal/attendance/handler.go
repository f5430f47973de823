package attendance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
)

// Handler exposes the sign-in calendar endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the sign-in routes for logged-in users.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/sign", h.handleSign)
	r.Delete("/sign", h.handleUnsign)
	r.Get("/sign", h.handleCalendar)
}

type signRequest struct {
	Year  int `json:"year" validate:"omitempty,min=1970"`
	Month int `json:"month" validate:"omitempty,min=1,max=12"`
	Day   int `json:"day" validate:"omitempty,min=1,max=31"`
}

type recordResponse struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Days  []bool `json:"days"`
}

func newRecordResponse(rec *Record) recordResponse {
	return recordResponse{Year: rec.Year, Month: rec.Month, Days: rec.Days()}
}

func (h *Handler) handleSign(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req signRequest
	if r.ContentLength > 0 {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		if err := h.validator.Struct(req); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}

	var (
		rec *Record
		err error
	)
	if req.Year == 0 && req.Month == 0 && req.Day == 0 {
		rec, err = h.service.MarkToday(r.Context(), userID)
	} else if req.Year != 0 && req.Month != 0 && req.Day != 0 {
		rec, err = h.service.Mark(r.Context(), userID, req.Year, req.Month, req.Day)
	} else {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRecordResponse(rec))
}

func (h *Handler) handleUnsign(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req signRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if req.Year == 0 || req.Month == 0 || req.Day == 0 {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	rec, err := h.service.Unmark(r.Context(), userID, req.Year, req.Month, req.Day)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRecordResponse(rec))
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	now := time.Now()
	year, month := now.Year(), int(now.Month())
	if v := r.URL.Query().Get("year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		year = n
	}
	if v := r.URL.Query().Get("month"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		month = n
	}
	rec, err := h.service.Query(r.Context(), userID, year, month)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, newRecordResponse(rec))
}
