package places

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// Handler wires the view address endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the public listing.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/address", h.handleList)
}

// MountAdminRoutes registers address management. The router guards these
// with the admin-group middleware.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/view_address", h.handleCreate)
	r.Patch("/view_address", h.handleUpdate)
	r.Delete("/view_address", h.handleDelete)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if idParam := q.Get("id"); idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		addr, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, mapErr(err))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "addresses": []Address{*addr}})
		return
	}

	limit, offset := 0, 0
	var err error
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
	}
	list, err := h.service.List(r.Context(), q.Get("name"), limit, offset)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "addresses": list})
}

type createAddressRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
	Lat         float64 `json:"lat" validate:"min=-90,max=90"`
	Lng         float64 `json:"lng" validate:"min=-180,max=180"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	addr, err := h.service.Create(r.Context(), req.Name, req.Description, req.Lat, req.Lng)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": addr.ID})
}

type updateAddressRequest struct {
	ID          int64    `json:"id" validate:"required"`
	Name        *string  `json:"name" validate:"omitempty,max=100"`
	Description *string  `json:"description" validate:"omitempty,max=500"`
	Lat         *float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng         *float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateAddressRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if _, err := h.service.Update(r.Context(), req.ID, req.Name, req.Description, req.Lat, req.Lng); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrAddressNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrAddressExists):
		return httpx.ErrConflict
	default:
		return err
	}
}
