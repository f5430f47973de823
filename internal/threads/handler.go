package threads

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
)

// Handler wires the public listing and the admin thread management routes.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountRoutes registers the public thread listing.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleList)
}

// MountAdminRoutes registers thread and requirement management.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Post("/thread", h.handleCreate)
	r.Patch("/thread", h.handleUpdate)
	r.Delete("/thread", h.handleDelete)
	r.Get("/thread_auth", h.handleListRequirements)
	r.Post("/thread_auth", h.handleAddRequirement)
	r.Delete("/thread_auth", h.handleRemoveRequirement)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	var idFilter *int64
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		idFilter = &id
	}
	var userID *int64
	if uid, ok := shared.CurrentUserID(r.Context()); ok {
		userID = &uid
	}
	visible, err := h.service.ListVisible(r.Context(), userID, idFilter)
	if err != nil {
		h.logger.Error("list threads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "threads": visible})
}

type createThreadRequest struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"required,max=500"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, err := h.service.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": id})
}

type updateThreadRequest struct {
	ID          int64   `json:"id" validate:"required"`
	Title       *string `json:"title" validate:"omitempty,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateThreadRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.Update(r.Context(), req.ID, req.Title, req.Description); err != nil {
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

func (h *Handler) handleListRequirements(w http.ResponseWriter, r *http.Request) {
	threadID, err := strconv.ParseInt(r.URL.Query().Get("thread_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	reqs, err := h.service.Requirements(r.Context(), threadID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "requirements": reqs})
}

type addRequirementRequest struct {
	ThreadID int64 `json:"thread_id" validate:"required"`
	ItemID   int64 `json:"item_id" validate:"required"`
	MinCount int64 `json:"min_count"`
}

func (h *Handler) handleAddRequirement(w http.ResponseWriter, r *http.Request) {
	var req addRequirementRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, err := h.service.AddRequirement(r.Context(), req.ThreadID, req.ItemID, req.MinCount)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": id})
}

func (h *Handler) handleRemoveRequirement(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.RemoveRequirement(r.Context(), id); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrThreadNotFound), errors.Is(err, ErrRequirementNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrThreadExists):
		return httpx.ErrConflict
	default:
		return err
	}
}
