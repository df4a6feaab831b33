// internal/handlers/admin/admin_dashboard.go
package adminhandlers

import (
	"log/slog"
	"net/http"

	"samudaya.club/internal/db"
	"samudaya.club/internal/handlers"
)

func AdminDashboardPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.AdminPageTitle = "Club Admin - Overview"

		stats, err := db.GetDashboardStats()
		if err != nil {
			slog.Error("AdminDashboardPageHandler: failed to load stats", "error", err)
		}
		data.Stats = stats

		app.RenderAdminPage(w, r, "dashboard.html", data)
	}
}
