package verify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
)

// Handler exposes the challenge issuance endpoints.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	csrfManager *shared.CSRFManager
	validator   *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		csrfManager: csrf,
		validator:   validator.New(),
	}
}

// MountRoutes registers the secure routes. Issuance is rate limited per IP
// beyond the global limit since both endpoints do work per request.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(10, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
		r.Get("/captcha", h.handleCaptcha)
		r.Post("/email", h.handleEmail)
	})
	r.Get("/csrf", h.handleCSRFToken)
}

func (h *Handler) handleCaptcha(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	img, err := h.service.IssueCaptcha(r.Context(), sess)
	if err != nil {
		h.logger.Error("issue captcha", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	contentType := "image/svg+xml"
	if ct, ok := h.service.renderer.(interface{ ContentType() string }); ok {
		contentType = ct.ContentType()
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

type emailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

func (h *Handler) handleEmail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req emailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	// The subject names the address being verified; signup and email
	// changes only accept subjects from this flow.
	if err := h.service.IssueEmail(r.Context(), sess, AddrSubject(req.Email), req.Email); err != nil {
		h.logger.Error("issue email challenge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleCSRFToken(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"csrf_token": token})
}
