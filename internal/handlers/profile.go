// internal/handlers/profile.go
package handlers

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"samudaya.club/internal/auth"
	"samudaya.club/internal/db"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/validation"

	"github.com/alexedwards/scs/v2"
)

// UserProfileHandlers covers the profile page and its update actions.
type UserProfileHandlers struct {
	SessionManager *scs.SessionManager
	AppHandlers    *AppHandlers
	Payments       *db.PaymentsDB
	Bookings       *db.BookingsDB
	Memberships    *db.MembershipsDB
}

func NewUserProfileHandlers(sm *scs.SessionManager, ah *AppHandlers, payments *db.PaymentsDB, bookings *db.BookingsDB, memberships *db.MembershipsDB) *UserProfileHandlers {
	return &UserProfileHandlers{
		SessionManager: sm,
		AppHandlers:    ah,
		Payments:       payments,
		Bookings:       bookings,
		Memberships:    memberships,
	}
}

// ProfilePageHandler shows the member's details alongside their bookings,
// payment history and active membership.
func (uph *UserProfileHandlers) ProfilePageHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := uph.AppHandlers.NewPageData(r)
	data.PageTitle = "Your Profile"
	data.PageDescription = "Manage your club profile."
	data.RobotsContent = "noindex, nofollow"

	bookings, err := uph.Bookings.ListByUser(r.Context(), currentUser.ID, 20)
	if err != nil {
		slog.Error("ProfilePageHandler: failed to list bookings", "userID", currentUser.ID, "error", err)
	}
	data.Bookings = bookings

	payments, err := uph.Payments.ListByUser(r.Context(), currentUser.ID, 20)
	if err != nil {
		slog.Error("ProfilePageHandler: failed to list payments", "userID", currentUser.ID, "error", err)
	}
	data.Payments = payments

	activeMembership, tier, err := uph.Memberships.GetActiveUserMembership(r.Context(), currentUser.ID)
	if err != nil {
		slog.Error("ProfilePageHandler: failed to load membership", "userID", currentUser.ID, "error", err)
	}
	data.ActiveMembership = activeMembership
	data.ActiveTier = tier

	uph.AppHandlers.RenderPage(w, r, "profile.html", data)
}

type ProfileUpdateForm struct {
	FullName   string `form:"full_name" validate:"required,alpha_space"`
	Phone      string `form:"phone" validate:"omitempty,valid_phone"`
	Address    string `form:"address" validate:"omitempty,max=500"`
	FamilySize int    `form:"family_size" validate:"omitempty,min=1,max=30"`
}

type PasswordChangeForm struct {
	CurrentPassword    string `form:"current_password" validate:"required"`
	NewPassword        string `form:"new_password" validate:"required,min=8,complex_password"`
	ConfirmNewPassword string `form:"confirm_new_password" validate:"required,eqfield=NewPassword"`
}

func (uph *UserProfileHandlers) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("UpdateProfileHandler: failed to parse form", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error", "Something went wrong processing the form.")
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	familySize, _ := strconv.Atoi(r.PostForm.Get("family_size"))
	form := ProfileUpdateForm{
		FullName:   strings.TrimSpace(r.PostForm.Get("full_name")),
		Phone:      strings.TrimSpace(r.PostForm.Get("phone")),
		Address:    strings.TrimSpace(r.PostForm.Get("address")),
		FamilySize: familySize,
	}

	validationErrors := validation.ValidateStruct(form)
	if len(validationErrors) > 0 {
		slog.Warn("UpdateProfileHandler: validation failed", "userID", currentUser.ID, "errors", validationErrors)
		uph.SessionManager.Put(r.Context(), "profile_update_errors", validationErrors)
		uph.SessionManager.Put(r.Context(), "profile_update_form_values", r.PostForm)
		http.Redirect(w, r, "/profile", http.StatusSeeOther)
		return
	}

	var phonePtr *string
	if form.Phone != "" {
		phonePtr = &form.Phone
	}
	var addressPtr *string
	if form.Address != "" {
		addressPtr = &form.Address
	}
	var familySizePtr *int
	if form.FamilySize > 0 {
		familySizePtr = &form.FamilySize
	}

	err := db.UpdateUserProfile(currentUser.ID, auth.SanitizeName(form.FullName), phonePtr, addressPtr, familySizePtr)
	if err != nil {
		slog.Error("UpdateProfileHandler: failed to update profile", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error", "Could not update your profile. Please try again later.")
	} else {
		slog.Info("User profile updated", "userID", currentUser.ID)
		uph.SessionManager.Put(r.Context(), "flash_success", "Profile updated!")
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

func (uph *UserProfileHandlers) ChangePasswordHandler(w http.ResponseWriter, r *http.Request) {
	currentUser, ok := r.Context().Value(middleware.UserContextKey).(*models.User)
	if !ok || currentUser == nil {
		http.Error(w, "Authentication required", http.StatusUnauthorized)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("ChangePasswordHandler: failed to parse form", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error_pw", "Something went wrong processing the form.")
		http.Redirect(w, r, "/profile#change-password-section", http.StatusSeeOther)
		return
	}

	form := PasswordChangeForm{
		CurrentPassword:    r.PostForm.Get("current_password"),
		NewPassword:        r.PostForm.Get("new_password"),
		ConfirmNewPassword: r.PostForm.Get("confirm_new_password"),
	}

	validationErrors := validation.ValidateStruct(form)
	if validationErrors == nil {
		validationErrors = url.Values{}
	}

	userFromDB, err := db.GetUserByID(currentUser.ID)
	if err != nil || userFromDB == nil {
		slog.Error("ChangePasswordHandler: failed to load user", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error_pw", "Server error. Please try again later.")
		http.Redirect(w, r, "/profile#change-password-section", http.StatusSeeOther)
		return
	}

	if !auth.CheckPasswordHash(form.CurrentPassword, userFromDB.PasswordHash) {
		validationErrors.Add("current_password", "Current password is incorrect.")
	}

	if len(validationErrors) > 0 {
		slog.Warn("ChangePasswordHandler: validation failed", "userID", currentUser.ID, "errors", validationErrors)
		uph.SessionManager.Put(r.Context(), "password_change_errors", validationErrors)
		http.Redirect(w, r, "/profile#change-password-section", http.StatusSeeOther)
		return
	}

	newHashedPassword, err := auth.HashPassword(form.NewPassword)
	if err != nil {
		slog.Error("ChangePasswordHandler: failed to hash new password", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error_pw", "Could not change the password. Please try again later.")
		http.Redirect(w, r, "/profile#change-password-section", http.StatusSeeOther)
		return
	}

	if err := db.UpdateUserPassword(currentUser.ID, newHashedPassword); err != nil {
		slog.Error("ChangePasswordHandler: failed to update password", "userID", currentUser.ID, "error", err)
		uph.SessionManager.Put(r.Context(), "flash_error_pw", "Could not change the password. Please try again later.")
	} else {
		slog.Info("User password changed", "userID", currentUser.ID)
		uph.SessionManager.Put(r.Context(), "flash_success", "Password changed!")
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}
