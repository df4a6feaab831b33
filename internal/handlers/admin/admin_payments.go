// internal/handlers/admin/admin_payments.go
package adminhandlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"samudaya.club/internal/db"
)

// AdminPaymentHandlers exposes the read-only payment ledger for the admin
// panel.
type AdminPaymentHandlers struct {
	Payments *db.PaymentsDB
}

func NewAdminPaymentHandlers(payments *db.PaymentsDB) *AdminPaymentHandlers {
	return &AdminPaymentHandlers{Payments: payments}
}

func (ap *AdminPaymentHandlers) ListPaymentsHandler(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	payments, err := ap.Payments.ListAll(r.Context(), limit, offset)
	if err != nil {
		slog.Error("Failed to list payments for admin", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
}
