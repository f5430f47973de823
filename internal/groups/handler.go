package groups

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// Handler wires the group administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountAdminRoutes registers group and membership management. The router
// guards these with the admin-group middleware.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/group", h.handleList)
	r.Post("/group", h.handleCreate)
	r.Patch("/group", h.handleUpdate)
	r.Delete("/group", h.handleDelete)
	r.Get("/group_user", h.handleMembers)
	r.Post("/group_user", h.handleAddMember)
	r.Delete("/group_user", h.handleRemoveMember)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		group, err := h.service.Get(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, mapErr(err))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "groups": []Group{*group}})
		return
	}
	list, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list groups", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "groups": list})
}

type createGroupRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	group, err := h.service.Create(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": group.ID})
}

type updateGroupRequest struct {
	ID          int64   `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateGroupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if _, err := h.service.Update(r.Context(), req.ID, req.Name, req.Description); err != nil {
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

func (h *Handler) handleMembers(w http.ResponseWriter, r *http.Request) {
	groupID, err := strconv.ParseInt(r.URL.Query().Get("group_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	members, err := h.service.Members(r.Context(), groupID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "users": members})
}

type membershipRequest struct {
	GroupID int64 `json:"group_id" validate:"required"`
	UserID  int64 `json:"user_id" validate:"required"`
}

func (h *Handler) handleAddMember(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}
	if err := h.service.AddMember(r.Context(), req.GroupID, req.UserID); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeMembership(w, r)
	if !ok {
		return
	}
	if err := h.service.RemoveMember(r.Context(), req.GroupID, req.UserID); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) decodeMembership(w http.ResponseWriter, r *http.Request) (membershipRequest, bool) {
	var req membershipRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	return req, true
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrGroupNotFound), errors.Is(err, ErrMemberNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrGroupExists), errors.Is(err, ErrMemberExists):
		return httpx.ErrConflict
	default:
		return err
	}
}
