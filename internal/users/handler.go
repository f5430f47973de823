package users

import (
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
	"github.com/quillboard/quillboard/internal/verify"
)

// Handler manages the account endpoints.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	verifier       *verify.Service
	captchaEnabled bool
	validator      *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, verifier *verify.Service, captchaEnabled bool) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		verifier:       verifier,
		captchaEnabled: captchaEnabled,
		validator:      validator.New(),
	}
}

// MountRoutes registers the self-service account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/signup", h.handleSignup)
	r.Get("/profile", h.handleGetProfile)
	r.Post("/profile", h.handleUpdateProfile)
	r.Post("/reset-password-email", h.handleResetPasswordEmail)
	r.Post("/reset-password", h.handleResetPassword)
}

// MountAdminRoutes registers user management. The router guards these with
// the admin-group middleware.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/user", h.handleAdminGet)
	r.Post("/user", h.handleAdminCreate)
	r.Patch("/user", h.handleAdminUpdate)
	r.Delete("/user", h.handleAdminDelete)
	r.Post("/user/search", h.handleAdminSearch)
}

// redeemCaptcha checks the visitor's pending captcha when captcha gating is
// enabled. A used or stale challenge fails closed.
func (h *Handler) redeemCaptcha(w http.ResponseWriter, r *http.Request, sess *shared.Session, answer string) bool {
	if !h.captchaEnabled {
		return true
	}
	res, err := h.verifier.Redeem(r.Context(), sess, verify.KindCaptcha, answer, "")
	if err != nil {
		h.logger.Error("redeem captcha", slog.Any("error", err))
		httpx.RespondError(w, err)
		return false
	}
	if !res.OK() {
		httpx.RespondError(w, res.Outcome.Err())
		return false
	}
	return true
}

type loginRequest struct {
	Account  string `json:"account" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
	Captcha  string `json:"captcha"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if _, ok := shared.CurrentUserID(r.Context()); ok {
		httpx.RespondError(w, httpx.ErrConflict)
		return
	}
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !h.redeemCaptcha(w, r, sess, req.Captcha) {
		return
	}
	user, err := h.service.Authenticate(r.Context(), req.Account, req.Password, clientIP(r))
	if err != nil {
		if errors.Is(err, shared.ErrInvalidCredentials) {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "user": user})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	sess.ClearUser()
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

type signupRequest struct {
	Name      string `json:"name" validate:"required,min=2,max=50"`
	Password  string `json:"password" validate:"required,min=6,max=200"`
	EmailCode string `json:"email_code" validate:"required"`
	Captcha   string `json:"captcha"`
}

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if _, ok := shared.CurrentUserID(r.Context()); ok {
		httpx.RespondError(w, httpx.ErrConflict)
		return
	}
	var req signupRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if !h.redeemCaptcha(w, r, sess, req.Captcha) {
		return
	}

	// The verified subject of the email challenge becomes the account
	// address, so signup never trusts a client supplied email. Only an
	// address-flow subject qualifies; a reset challenge does not.
	res, err := h.verifier.Redeem(r.Context(), sess, verify.KindEmail, req.EmailCode, "")
	if err != nil {
		h.logger.Error("redeem email challenge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !res.OK() {
		httpx.RespondError(w, res.Outcome.Err())
		return
	}
	email, ok := verify.CutAddrSubject(res.Subject)
	if !ok {
		httpx.RespondError(w, httpx.ErrMismatch)
		return
	}

	user, err := h.service.Signup(r.Context(), req.Name, email, req.Password)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10))
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "user": user})
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.CurrentUserID(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "user": user})
}

type profileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=50"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=200"`
	Avatar    *string `json:"avatar" validate:"omitempty,max=200"`
	Signature *string `json:"signature" validate:"omitempty,max=500"`
	Email     *string `json:"email" validate:"omitempty,email"`
	EmailCode *string `json:"email_code"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	userID, ok := shared.CurrentUserID(r.Context())
	if sess == nil || !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req profileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}

	patch := ProfilePatch{Name: req.Name, Password: req.Password, Avatar: req.Avatar, Signature: req.Signature}
	if req.Email != nil {
		// Changing the address needs a redeemed challenge whose subject
		// is the new address.
		if req.EmailCode == nil {
			httpx.RespondError(w, httpx.ErrValidation)
			return
		}
		res, err := h.verifier.Redeem(r.Context(), sess, verify.KindEmail, *req.EmailCode, verify.AddrSubject(*req.Email))
		if err != nil {
			h.logger.Error("redeem email challenge", slog.Any("error", err))
			httpx.RespondError(w, err)
			return
		}
		if !res.OK() {
			httpx.RespondError(w, res.Outcome.Err())
			return
		}
		patch.Email = req.Email
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, patch)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "user": user})
}

type resetEmailRequest struct {
	Account string `json:"account" validate:"required,max=100"`
}

// handleResetPasswordEmail issues a reset challenge. The response does not
// reveal whether the account exists; the challenge subject names the
// account and the code is delivered to the stored address.
func (h *Handler) handleResetPasswordEmail(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	if _, ok := shared.CurrentUserID(r.Context()); ok {
		httpx.RespondError(w, httpx.ErrConflict)
		return
	}
	var req resetEmailRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.FindActivated(r.Context(), req.Account)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			h.logger.Error("reset lookup", slog.Any("error", err))
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
		return
	}
	if err := h.verifier.IssueEmail(r.Context(), sess, verify.UserSubject(user.ID), user.Email); err != nil {
		h.logger.Error("issue reset challenge", slog.Any("error", err))
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

type resetRequest struct {
	Code     string `json:"code" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=200"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req resetRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	res, err := h.verifier.Redeem(r.Context(), sess, verify.KindEmail, req.Code, "")
	if err != nil {
		h.logger.Error("redeem reset challenge", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if !res.OK() {
		httpx.RespondError(w, res.Outcome.Err())
		return
	}
	// Only an account-scoped subject may reset a password; an address
	// verification challenge does not.
	userID, ok := verify.CutUserSubject(res.Subject)
	if !ok {
		httpx.RespondError(w, httpx.ErrMismatch)
		return
	}
	if err := h.service.ResetPassword(r.Context(), userID, req.Password); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleAdminGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.URL.Query().Get("id"), 10, 64)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "user": user})
}

type adminCreateRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=200"`
}

func (h *Handler) handleAdminCreate(w http.ResponseWriter, r *http.Request) {
	var req adminCreateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	user, err := h.service.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "id": user.ID})
}

type adminUpdateRequest struct {
	ID        int64   `json:"id" validate:"required"`
	Name      *string `json:"name" validate:"omitempty,min=2,max=50"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Password  *string `json:"password" validate:"omitempty,min=6,max=200"`
	Avatar    *string `json:"avatar" validate:"omitempty,max=200"`
	Signature *string `json:"signature" validate:"omitempty,max=500"`
	Activated *bool   `json:"activated"`
}

func (h *Handler) handleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	var req adminUpdateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	patch := Patch{Name: req.Name, Email: req.Email, Avatar: req.Avatar, Signature: req.Signature, Activated: req.Activated}
	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			httpx.RespondError(w, err)
			return
		}
		patch.PasswordHash = &hash
	}
	if _, err := h.service.AdminUpdate(r.Context(), req.ID, patch); err != nil {
		httpx.RespondError(w, mapErr(err))
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"msg": "ok"})
}

func (h *Handler) handleAdminDelete(w http.ResponseWriter, r *http.Request) {
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

func (h *Handler) handleAdminSearch(w http.ResponseWriter, r *http.Request) {
	var q SearchQuery
	if err := httpx.DecodeJSON(r, &q); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(q); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	list, err := h.service.Search(r.Context(), q)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"msg": "ok", "users": list})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, ErrUserNotFound):
		return httpx.ErrNotFound
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrEmailTaken):
		return httpx.ErrConflict
	default:
		return err
	}
}
