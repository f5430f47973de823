package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/quillboard/quillboard/internal/platform/httpx"
	"github.com/quillboard/quillboard/internal/shared"
)

// MembershipChecker reports group membership. The groups service satisfies it.
type MembershipChecker interface {
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
}

// RequireUser rejects anonymous requests.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.CurrentUserID(r.Context()); !ok {
			httpx.RespondError(w, httpx.ErrUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests from users outside the admin group.
func RequireAdmin(logger *slog.Logger, members MembershipChecker, adminGroupID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := shared.CurrentUserID(r.Context())
			if !ok {
				httpx.RespondError(w, httpx.ErrUnauthorized)
				return
			}
			isAdmin, err := members.IsMember(r.Context(), adminGroupID, userID)
			if err != nil {
				logger.Error("admin check", slog.Any("error", err))
				httpx.RespondError(w, err)
				return
			}
			if !isAdmin {
				httpx.RespondError(w, httpx.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
