// internal/middleware/membership.go
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"samudaya.club/internal/models"

	"github.com/alexedwards/scs/v2"
)

// ActiveMembershipChecker reports the caller's active membership tier, if
// any. Implemented by db.MembershipsDB; faked in tests.
type ActiveMembershipChecker interface {
	GetActiveUserMembership(ctx context.Context, userID int64) (*models.UserMembership, *models.Membership, error)
}

// RequireActiveMembership gates member-only resources. Users without an
// active membership are sent to the memberships page; API callers get 403.
func RequireActiveMembership(sessionManager *scs.SessionManager, memberships ActiveMembershipChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(UserIDContextKey).(int64)
			if !ok || userID == 0 {
				slog.Error("RequireActiveMembership: UserID missing from context")
				http.Redirect(w, r, "/login", http.StatusSeeOther)
				return
			}

			um, _, err := memberships.GetActiveUserMembership(r.Context(), userID)
			if err != nil {
				slog.Error("RequireActiveMembership: failed to check membership", "userID", userID, "error", err)
				http.Error(w, "Server error while checking your membership. Please try again later.", http.StatusInternalServerError)
				return
			}

			if um == nil {
				slog.Warn("Access denied: no active membership", "userID", userID, "path", r.URL.Path)
				sessionManager.Put(r.Context(), "redirectAfterMembership", r.URL.RequestURI())
				if strings.HasPrefix(r.URL.Path, "/api/") || r.Header.Get("Accept") == "application/json" {
					http.Error(w, "An active membership is required for this resource.", http.StatusForbidden)
				} else {
					http.Redirect(w, r, "/memberships", http.StatusSeeOther)
				}
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
