// internal/handlers/admin/admin_users.go
package adminhandlers

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"samudaya.club/internal/auth"
	"samudaya.club/internal/db"
	"samudaya.club/internal/handlers"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/validation"
)

const DefaultUsersPerPage = 10

// AdminUsersListPageHandler lists members with pagination.
func AdminUsersListPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		data.AdminPageTitle = "Manage Members"

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		limit := DefaultUsersPerPage
		offset := (page - 1) * limit

		users, totalUsers, err := db.GetAllUsers(limit, offset)
		if err != nil {
			slog.Error("AdminUsersListPageHandler: failed to load users", "error", err)
			http.Error(w, "Server error loading members", http.StatusInternalServerError)
			return
		}

		data.Users = users
		data.TotalUsers = totalUsers
		data.CurrentPage = page
		data.Limit = limit
		data.TotalPages = int(math.Ceil(float64(totalUsers) / float64(limit)))

		app.RenderAdminPage(w, r, "users_list.html", data)
	}
}

// AdminEditUserPageHandler shows the member edit form.
func AdminEditUserPageHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := app.NewPageData(r)
		userIDStr := r.URL.Query().Get("id")
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID == 0 {
			slog.Error("AdminEditUserPageHandler: invalid user id", "id_str", userIDStr, "error", err)
			http.Error(w, "Invalid user id", http.StatusBadRequest)
			return
		}

		user, err := db.GetUserByID(userID)
		if err != nil || user == nil {
			slog.Error("AdminEditUserPageHandler: user not found", "userID", userID, "error", err)
			http.NotFound(w, r)
			return
		}
		data.EditingUser = user
		data.AdminPageTitle = fmt.Sprintf("Edit Member: %s", user.Email)
		data.FormAction = "/admin/users/update"

		allRoles, err := db.GetAllRoles()
		if err != nil {
			slog.Error("AdminEditUserPageHandler: failed to load roles", "error", err)
		}
		data.AllRoles = allRoles

		app.RenderAdminPage(w, r, "user_edit.html", data)
	}
}

// AdminUpdateUserHandler applies profile and role changes made by an admin.
func AdminUpdateUserHandler(app *handlers.AppHandlers) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := r.ParseForm(); err != nil {
			slog.Error("AdminUpdateUserHandler: failed to parse form", "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Server error: could not process the form.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		userIDStr := r.FormValue("userID")
		userID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || userID == 0 {
			slog.Error("AdminUpdateUserHandler: invalid userID in form", "userID_str", userIDStr, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Invalid user id.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		editingUser, errUser := db.GetUserByID(userID)
		if errUser != nil || editingUser == nil {
			slog.Error("AdminUpdateUserHandler: user to edit not found", "targetUserID", userID, "error", errUser)
			app.SessionManager.Put(r.Context(), "flash_error", "Member not found.")
			http.Redirect(w, r, "/admin/users", http.StatusSeeOther)
			return
		}

		fullName := strings.TrimSpace(r.PostForm.Get("full_name"))
		phone := strings.TrimSpace(r.PostForm.Get("phone"))
		address := strings.TrimSpace(r.PostForm.Get("address"))
		familySize, _ := strconv.Atoi(r.PostForm.Get("family_size"))
		roleIDStr := r.FormValue("role_id")

		validationErrors := url.Values{}
		if fullName == "" {
			validationErrors.Add("full_name", "Name cannot be empty.")
		} else if !validation.ValidateAlphaSpace(fullName) {
			validationErrors.Add("full_name", "Name may contain only letters, spaces and hyphens.")
		}

		var phonePtr *string
		if phone != "" {
			if !auth.ValidatePhone(phone) {
				validationErrors.Add("phone", "Enter a valid phone number (for example, +91XXXXXXXXXX).")
			} else {
				phonePtr = &phone
			}
		}
		var addressPtr *string
		if address != "" {
			addressPtr = &address
		}
		var familySizePtr *int
		if familySize > 0 {
			familySizePtr = &familySize
		}

		newRoleID, errRole := strconv.ParseInt(roleIDStr, 10, 64)
		if errRole != nil {
			validationErrors.Add("role_id", "Invalid role id.")
		} else {
			role, errGetRole := db.GetRoleByID(newRoleID)
			if errGetRole != nil || role == nil {
				validationErrors.Add("role_id", "Selected role does not exist.")
			}
		}

		if len(validationErrors) > 0 {
			slog.Warn("AdminUpdateUserHandler: validation failed", "userID", userID, "errors", validationErrors)
			app.SessionManager.Put(r.Context(), "flash_error", "Please fix the errors in the form.")

			pageData := app.NewPageData(r)
			pageData.AdminPageTitle = fmt.Sprintf("Edit Member (Error): %s", editingUser.Email)
			pageData.EditingUser = editingUser
			pageData.Errors = validationErrors
			pageData.FormValues = r.PostForm
			allRoles, _ := db.GetAllRoles()
			pageData.AllRoles = allRoles
			pageData.FormAction = "/admin/users/update"

			app.RenderAdminPage(w, r, "user_edit.html", pageData)
			return
		}

		if err := db.UpdateUserProfile(userID, auth.SanitizeName(fullName), phonePtr, addressPtr, familySizePtr); err != nil {
			slog.Error("AdminUpdateUserHandler: failed to update profile", "userID", userID, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Failed to update member details.")
			http.Redirect(w, r, fmt.Sprintf("/admin/users/edit?id=%d", userID), http.StatusSeeOther)
			return
		}
		if err := db.SetUserRole(userID, newRoleID); err != nil {
			slog.Error("AdminUpdateUserHandler: failed to update role", "userID", userID, "roleID", newRoleID, "error", err)
			app.SessionManager.Put(r.Context(), "flash_error", "Profile saved but the role change failed.")
			http.Redirect(w, r, fmt.Sprintf("/admin/users/edit?id=%d", userID), http.StatusSeeOther)
			return
		}

		adminUser, _ := r.Context().Value(middleware.UserContextKey).(*models.User)
		if adminUser != nil {
			slog.Info("Member updated by admin", "adminUserID", adminUser.ID, "targetUserID", userID)
		}
		app.SessionManager.Put(r.Context(), "flash_success", "Member details updated.")
		http.Redirect(w, r, fmt.Sprintf("/admin/users/edit?id=%d", userID), http.StatusSeeOther)
	}
}
