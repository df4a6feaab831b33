// internal/middleware/admin_auth.go
package middleware

import (
	"log/slog"
	"net/http"

	"samudaya.club/internal/db"
)

// RequireRole checks that the authenticated user holds one of the allowed
// roles. Expects RequireAuthentication to have run first.
func RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := r.Context().Value(UserIDContextKey).(int64)
			if !ok || userID == 0 {
				slog.Error("RequireRole: UserID missing from context")
				http.Error(w, "Access denied: user not authenticated.", http.StatusUnauthorized)
				return
			}

			user, err := db.GetUserByID(userID)
			if err != nil {
				slog.Error("RequireRole: failed to load user", "userID", userID, "error", err)
				http.Error(w, "Server error while checking access rights.", http.StatusInternalServerError)
				return
			}
			if user == nil || user.RoleName == nil {
				slog.Warn("RequireRole: user not found or has no role", "userID", userID)
				http.Error(w, "Access denied: user role could not be determined.", http.StatusForbidden)
				return
			}

			userRole := *user.RoleName
			isAllowed := false
			for _, allowedRole := range allowedRoles {
				if userRole == allowedRole {
					isAllowed = true
					break
				}
			}

			if !isAllowed {
				slog.Warn("Access denied: insufficient role", "userID", userID, "userRole", userRole, "requiredRoles", allowedRoles, "path", r.URL.Path)
				http.Error(w, "Access denied: you do not have permission for this resource.", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
