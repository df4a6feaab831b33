// internal/handlers/auth.go
package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"samudaya.club/internal/auth"
	"samudaya.club/internal/config"
	"samudaya.club/internal/db"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/validation"

	"github.com/alexedwards/scs/v2"
)

type AuthHandlers struct {
	SessionManager *scs.SessionManager
	Render         func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
	NewPageData    func(r *http.Request) *PageData
	AppConfig      *config.Config
}

func NewAuthHandlers(sm *scs.SessionManager, renderFunc func(http.ResponseWriter, *http.Request, string, *PageData), newPageDataFunc func(*http.Request) *PageData, cfg *config.Config) *AuthHandlers {
	return &AuthHandlers{
		SessionManager: sm,
		Render:         renderFunc,
		NewPageData:    newPageDataFunc,
		AppConfig:      cfg,
	}
}

func (h *AuthHandlers) RegisterPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Join the Club"
	data.PageDescription = "Create your account to book events and purchase a membership."
	data.RobotsContent = "noindex, follow"
	data.Form = models.RegistrationForm{}
	h.Render(w, r, "register.html", data)
}

func (h *AuthHandlers) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse registration form", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	form := models.RegistrationForm{
		Email:       r.PostForm.Get("email"),
		Phone:       r.PostForm.Get("phone"),
		Password:    r.PostForm.Get("password"),
		ConfirmPass: r.PostForm.Get("confirm_password"),
		FullName:    r.PostForm.Get("full_name"),
		AgreeTerms:  r.PostForm.Get("agree_terms"),
		Honeypot:    r.PostForm.Get("website"),
	}

	if form.Honeypot != "" {
		http.Error(w, "Suspicious activity detected", http.StatusBadRequest)
		return
	}

	validationErrors := validation.ValidateStruct(form)
	if validationErrors == nil {
		validationErrors = url.Values{}
	}
	if form.AgreeTerms != "on" {
		validationErrors.Add("agree_terms", "You must agree to the terms.")
	}

	if len(validationErrors) > 0 {
		slog.Warn("Registration validation failed", "errors", validationErrors)
		form.Password = ""
		form.ConfirmPass = ""
		data := h.NewPageData(r)
		data.PageTitle = "Join the Club - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = validationErrors
		w.WriteHeader(http.StatusBadRequest)
		h.Render(w, r, "register.html", data)
		return
	}

	hashedPassword, err := auth.HashPassword(form.Password)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}

	phone := form.Phone
	user := &models.User{
		Email:        strings.ToLower(form.Email),
		Phone:        &phone,
		PasswordHash: hashedPassword,
		FullName:     auth.SanitizeName(form.FullName),
	}

	userID, err := db.CreateUser(user, models.RoleUser)
	if err != nil {
		slog.Error("Failed to create user", "error", err, "email", user.Email)
		data := h.NewPageData(r)
		data.PageTitle = "Join the Club - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = url.Values{}

		switch {
		case errors.Is(err, db.ErrEmailTaken):
			w.WriteHeader(http.StatusBadRequest)
			data.Errors.Add("email", "A member with this email already exists.")
		case errors.Is(err, db.ErrPhoneTaken):
			w.WriteHeader(http.StatusBadRequest)
			data.Errors.Add("phone", "A member with this phone number already exists.")
		default:
			w.WriteHeader(http.StatusInternalServerError)
			data.Errors.Add("general", "Server error during registration. Please try again later.")
		}
		h.Render(w, r, "register.html", data)
		return
	}
	user.ID = userID

	if err := h.SessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("Failed to renew session token after registration", "error", err)
		h.SessionManager.Put(r.Context(), "flash_success", "Registration complete! Please log in.")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.SessionManager.Put(r.Context(), string(middleware.UserIDContextKey), user.ID)

	slog.Info("User registered and logged in", "userID", user.ID, "email", user.Email)
	h.SessionManager.Put(r.Context(), "flash_success", "Welcome to the club!")
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *AuthHandlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Log In"
	data.PageDescription = "Access your club account."
	data.RobotsContent = "noindex, follow"
	data.Form = models.LoginForm{}
	h.Render(w, r, "login.html", data)
}

func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Error("Failed to parse login form", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	form := models.LoginForm{
		Email:    r.PostForm.Get("email"),
		Password: r.PostForm.Get("password"),
	}
	validationErrors := validation.ValidateStruct(form)
	if len(validationErrors) > 0 {
		data := h.NewPageData(r)
		data.PageTitle = "Log In - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = validationErrors
		w.WriteHeader(http.StatusBadRequest)
		h.Render(w, r, "login.html", data)
		return
	}

	user, err := db.GetUserByEmail(strings.ToLower(form.Email))
	passwordMatch := false
	if user != nil && err == nil {
		passwordMatch = auth.CheckPasswordHash(form.Password, user.PasswordHash)
	}

	if err != nil || user == nil || !passwordMatch {
		data := h.NewPageData(r)
		data.PageTitle = "Log In - Error"
		data.RobotsContent = "noindex, follow"
		data.Form = form
		data.Errors = url.Values{}
		if err != nil {
			slog.Error("Failed to look up user during login", "email", form.Email, "error", err)
			data.Errors.Add("general", "Server error during login.")
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			data.Errors.Add("general", "Invalid email or password.")
			w.WriteHeader(http.StatusUnauthorized)
		}
		h.Render(w, r, "login.html", data)
		return
	}

	if err := h.SessionManager.RenewToken(r.Context()); err != nil {
		slog.Error("Failed to renew session token", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	h.SessionManager.Put(r.Context(), string(middleware.UserIDContextKey), user.ID)

	slog.Info("User logged in", "user_id", user.ID, "email", user.Email, "role", user.RoleName)

	redirectURL := h.SessionManager.PopString(r.Context(), "redirectAfterLogin")
	if redirectURL == "" {
		if user.RoleName != nil && *user.RoleName == models.RoleAdmin {
			redirectURL = "/admin/dashboard"
		} else {
			redirectURL = "/dashboard"
		}
	}
	http.Redirect(w, r, redirectURL, http.StatusSeeOther)
}

func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.SessionManager.GetInt64(r.Context(), string(middleware.UserIDContextKey))

	if err := h.SessionManager.Destroy(r.Context()); err != nil {
		slog.Error("Failed to destroy session on logout", "error", err)
		http.Error(w, "Server error", http.StatusInternalServerError)
		return
	}
	slog.Info("User logged out", "user_id", userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
