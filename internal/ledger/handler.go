package ledger

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
)

// Handler wires the item administration and grant endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

// MountAdminRoutes registers item and grant management. The router guards
// these with the admin-group middleware.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/item", h.handleListItems)
	r.Post("/item", h.handleCreateItem)
	r.Patch("/item", h.handleUpdateItem)
	r.Delete("/item", h.handleDeleteItem)
	r.Get("/user_item", h.handleHoldings)
	r.Post("/user_item", h.handleGrant)
	r.Delete("/user_item", h.handleConsume)
}

func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	if idParam := r.URL.Query().Get("id"); idParam != "" {
		id, err := strconv.ParseInt(idParam, 10, 64)
		if err != nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		item, err := h.service.GetItem(r.Context(), id)
		if err != nil {
			httpx.RespondError(w, mapErr(err))
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "items": []Item{*item}})
		return
	}
	items, err := h.service.ListItems(r.Context())
	if err != nil {
		h.logger.Error("list items", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "items": items})
}

type createItemRequest struct {
	Name        string  `json:"name" validate:"required,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	id, err := h.service.CreateItem(r.Context(), req.Name, req.Description)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": id})
}

type updateItemRequest struct {
	ID          int64   `json:"id" validate:"required"`
	Name        *string `json:"name" validate:"omitempty,max=50"`
	Description *string `json:"description" validate:"omitempty,max=200"`
}

func (h *Handler) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.service.UpdateItem(r.Context(), req.ID, req.Name, req.Description); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	purge := r.URL.Query().Get("purge_grants") == "true"
	if err := h.service.DeleteItem(r.Context(), id, purge); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleHoldings(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	holdings, err := h.service.Holdings(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "items": holdings})
}

type grantRequest struct {
	UserID int64 `json:"user_id" validate:"required"`
	ItemID int64 `json:"item_id" validate:"required"`
	Count  int64 `json:"count" validate:"omitempty,gt=0"`
}

func (h *Handler) handleGrant(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGrant(w, r)
	if !ok {
		return
	}
	count, err := h.service.Grant(r.Context(), req.UserID, req.ItemID, req.Count)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "count": count})
}

func (h *Handler) handleConsume(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeGrant(w, r)
	if !ok {
		return
	}
	count, err := h.service.Consume(r.Context(), req.UserID, req.ItemID, req.Count)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "count": count})
}

func (h *Handler) decodeGrant(w http.ResponseWriter, r *http.Request) (grantRequest, bool) {
	var req grantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	if req.Count == 0 {
		req.Count = 1
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	return req, true
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound), errors.Is(err, ErrUserNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrItemExists):
		return httpx.ErrConflict
	default:
		return err
	}
}
