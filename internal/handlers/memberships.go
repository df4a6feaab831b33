// internal/handlers/memberships.go
package handlers

import (
	"log/slog"
	"net/http"

	"samudaya.club/internal/db"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
)

// MembershipHandlers renders the tier listing and the membership checkout
// page. The actual purchase runs through the payment initiation endpoint.
type MembershipHandlers struct {
	AppHandlers *AppHandlers
	Memberships *db.MembershipsDB
}

func NewMembershipHandlers(ah *AppHandlers, memberships *db.MembershipsDB) *MembershipHandlers {
	return &MembershipHandlers{AppHandlers: ah, Memberships: memberships}
}

func (mh *MembershipHandlers) MembershipsPageHandler(w http.ResponseWriter, r *http.Request) {
	memberships, err := mh.Memberships.List(r.Context())
	if err != nil {
		slog.Error("Failed to list membership tiers", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	data := mh.AppHandlers.NewPageData(r)
	data.PageTitle = "Membership Tiers"
	data.PageDescription = "Choose a club membership tier: Gold, Diamond or Platinum."
	data.Memberships = memberships

	if currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User); ok && currentUser != nil {
		um, tier, err := mh.Memberships.GetActiveUserMembership(r.Context(), currentUser.ID)
		if err != nil {
			slog.Error("Failed to load active membership", "userID", currentUser.ID, "error", err)
		}
		data.ActiveMembership = um
		data.ActiveTier = tier
	}

	mh.AppHandlers.RenderPage(w, r, "memberships.html", data)
}

// MembershipCheckoutPageHandler renders the pay page for a tier purchase.
func (mh *MembershipHandlers) MembershipCheckoutPageHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Redirect(w, r, "/login?redirect=/memberships", http.StatusSeeOther)
		return
	}

	membershipID := r.URL.Query().Get("membership_id")
	membership, err := mh.Memberships.GetByID(r.Context(), membershipID)
	if err != nil {
		slog.Error("Failed to load membership for checkout", "membershipID", membershipID, "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	if membership == nil {
		http.NotFound(w, r)
		return
	}

	data := mh.AppHandlers.NewPageData(r)
	data.PageTitle = "Purchase " + membership.Name + " Membership"
	data.RobotsContent = "noindex, nofollow"
	data.Memberships = []*models.Membership{membership}
	mh.AppHandlers.RenderPage(w, r, "membership_checkout.html", data)
}
