// internal/handlers/pages.go
package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"samudaya.club/internal/config"
	"samudaya.club/internal/db"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"

	"github.com/alexedwards/scs/v2"
	"github.com/justinas/nosurf"
)

type PageData struct {
	SiteName        string
	SiteDescription string
	CurrentYear     int
	BaseURL         string
	CurrentPath     string
	CSRFToken       string
	IsAuthenticated bool
	LoggedInUserID  int64
	User            *models.User
	Errors          url.Values
	Form            interface{}
	PageTitle       string
	PageDescription string
	UserName        string
	CanonicalURL    string
	RobotsContent   string
	AdminPageTitle  string
	Users           []*models.User
	AllRoles        []models.Role
	EditingUser     *models.User
	FormAction      string
	FormValues      url.Values
	TotalUsers      int
	CurrentPage     int
	TotalPages      int
	Limit           int
	SessionManager  *scs.SessionManager
	Request         *http.Request
	Stats           *db.ReportStats
	AppConfig       *config.Config

	Events           []*models.Event
	Event            *models.Event
	Bookings         []*models.EventBooking
	Booking          *models.EventBooking
	Memberships      []*models.Membership
	ActiveMembership *models.UserMembership
	ActiveTier       *models.Membership
	Payments         []*models.Payment
	Payment          *models.Payment
	SpotsLeft        int

	FlashSuccess string
	FlashError   string
	FlashErrorPW string

	ProfileUpdateFormValues url.Values
	ProfileUpdateErrors     url.Values
	PasswordChangeErrors    url.Values
}

type AppHandlers struct {
	Config              *config.Config
	BaseTmpl            *template.Template
	AdminBaseTmpl       *template.Template
	PagesPath           string
	AdminPagesPath      string
	SessionManager      *scs.SessionManager
	RenderPageFunc      func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
	RenderAdminPageFunc func(w http.ResponseWriter, r *http.Request, pageName string, data *PageData)
}

func parseBaseTemplates(baseDir string, baseFilename string, appBaseURL string) (*template.Template, error) {
	baseFile := filepath.Join(baseDir, baseFilename)
	if _, err := os.Stat(baseFile); os.IsNotExist(err) {
		return nil, fmt.Errorf("base template '%s' not found in '%s'", baseFilename, baseDir)
	}

	// Resolve the parts directory relative to this source file so templates
	// load regardless of the working directory.
	_, currentFilePath, _, ok := runtime.Caller(0)
	if !ok {
		return nil, fmt.Errorf("could not determine current file path for template parts")
	}
	projectRootForParts := filepath.Join(filepath.Dir(currentFilePath), "..", "..")
	partsDir := filepath.Join(projectRootForParts, "templates", "parts")

	partFiles, err := filepath.Glob(filepath.Join(partsDir, "*.html"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob partial templates in '%s': %w", partsDir, err)
	}

	funcMap := template.FuncMap{
		"eq":         func(a, b interface{}) bool { return a == b },
		"safeHTML":   func(s string) template.HTML { return template.HTML(s) },
		"add":        func(a, b int) int { return a + b },
		"hasPrefix":  strings.HasPrefix,
		"base_url":   func() string { return strings.TrimSuffix(appBaseURL, "/") },
		"trimSuffix": strings.TrimSuffix,
		"rupees": func(paise int64) string {
			return fmt.Sprintf("%d.%02d", paise/100, paise%100)
		},
		"seq": func(start, end int) []int {
			var s []int
			if start > end {
				return s
			}
			for i := start; i <= end; i++ {
				s = append(s, i)
			}
			return s
		},
	}

	tmpl, err := template.New(filepath.Base(baseFile)).Funcs(funcMap).ParseFiles(baseFile)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base template '%s': %w", baseFile, err)
	}

	if len(partFiles) > 0 {
		tmpl, err = tmpl.ParseFiles(partFiles...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse partial templates from '%s': %w", partsDir, err)
		}
	}
	slog.Info("Base and partial templates loaded", "base_template", baseFile, "parts_dir", partsDir)
	return tmpl, nil
}

func NewAppHandlers(cfg *config.Config, sm *scs.SessionManager) (*AppHandlers, error) {
	baseTmpl, err := parseBaseTemplates("templates", "base.html", cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse base templates: %w", err)
	}
	adminBaseTmpl, err := parseBaseTemplates("templates/admin", "base_admin.html", cfg.BaseURL)
	if err != nil {
		slog.Warn("Failed to load admin base template, admin pages will not render.", "error", err)
	}
	if cfg.CurrentYear == 0 {
		cfg.CurrentYear = time.Now().Year()
	}

	appH := &AppHandlers{
		Config:         cfg,
		BaseTmpl:       baseTmpl,
		AdminBaseTmpl:  adminBaseTmpl,
		PagesPath:      filepath.Join("templates", "pages"),
		AdminPagesPath: filepath.Join("templates", "admin", "pages"),
		SessionManager: sm,
	}
	appH.RenderPageFunc = appH.renderPageInternal
	appH.RenderAdminPageFunc = appH.renderAdminPageInternal
	return appH, nil
}

func (h *AppHandlers) renderPageInternal(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.render(w, r, h.BaseTmpl, h.PagesPath, "base.html", pageName, data)
}

func (h *AppHandlers) renderAdminPageInternal(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	}
	if data.AdminPageTitle == "" && data.PageTitle != "" {
		data.AdminPageTitle = data.PageTitle
	} else if data.AdminPageTitle == "" {
		data.AdminPageTitle = "Admin Panel"
	}
	h.render(w, r, h.AdminBaseTmpl, h.AdminPagesPath, "base_admin.html", pageName, data)
}

func (h *AppHandlers) RenderPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.RenderPageFunc(w, r, pageName, data)
}

func (h *AppHandlers) RenderAdminPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	h.RenderAdminPageFunc(w, r, pageName, data)
}

func (h *AppHandlers) NewPageData(r *http.Request) *PageData {
	isAuthenticatedVal, _ := r.Context().Value(middleware.IsAuthenticatedContextKey).(bool)
	currentUser, _ := r.Context().Value(middleware.UserContextKey).(*models.User)

	canonicalURL := strings.TrimSuffix(h.Config.BaseURL, "/") + r.URL.Path
	var userName string
	var loggedInUserIDVal int64

	if isAuthenticatedVal && currentUser != nil {
		userName = currentUser.FullName
		if userName == "" {
			userName = currentUser.Email
		}
		loggedInUserIDVal = currentUser.ID
	} else {
		userName = "Guest"
	}

	flashSuccess := h.SessionManager.PopString(r.Context(), "flash_success")
	flashError := h.SessionManager.PopString(r.Context(), "flash_error")
	flashErrorPW := h.SessionManager.PopString(r.Context(), "flash_error_pw")

	profileUpdateErrors, _ := h.SessionManager.Pop(r.Context(), "profile_update_errors").(url.Values)
	if profileUpdateErrors == nil {
		profileUpdateErrors = url.Values{}
	}
	profileUpdateFormValues, _ := h.SessionManager.Pop(r.Context(), "profile_update_form_values").(url.Values)
	if profileUpdateFormValues == nil {
		profileUpdateFormValues = url.Values{}
	}
	passwordChangeErrors, _ := h.SessionManager.Pop(r.Context(), "password_change_errors").(url.Values)
	if passwordChangeErrors == nil {
		passwordChangeErrors = url.Values{}
	}

	return &PageData{
		SiteName:                h.Config.SiteName,
		SiteDescription:         h.Config.SiteDescription,
		CurrentYear:             h.Config.CurrentYear,
		BaseURL:                 strings.TrimSuffix(h.Config.BaseURL, "/"),
		CurrentPath:             r.URL.Path,
		CSRFToken:               nosurf.Token(r),
		IsAuthenticated:         isAuthenticatedVal,
		LoggedInUserID:          loggedInUserIDVal,
		User:                    currentUser,
		UserName:                userName,
		CanonicalURL:            canonicalURL,
		RobotsContent:           "index, follow",
		SessionManager:          h.SessionManager,
		Request:                 r,
		AppConfig:               h.Config,
		Errors:                  url.Values{},
		FlashSuccess:            flashSuccess,
		FlashError:              flashError,
		FlashErrorPW:            flashErrorPW,
		ProfileUpdateErrors:     profileUpdateErrors,
		ProfileUpdateFormValues: profileUpdateFormValues,
		PasswordChangeErrors:    passwordChangeErrors,
	}
}

func (h *AppHandlers) render(w http.ResponseWriter, r *http.Request, baseTmpl *template.Template, pagesDir, baseFile, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	} else {
		if data.SessionManager == nil {
			data.SessionManager = h.SessionManager
		}
		if data.Request == nil {
			data.Request = r
		}
		if data.AppConfig == nil {
			data.AppConfig = h.Config
		}
	}

	if baseTmpl == nil {
		slog.Error("Base template not initialized for render", "base_file_expected", baseFile)
		http.Error(w, "Internal server error (template)", http.StatusInternalServerError)
		return
	}

	if data.PageTitle == "" {
		data.PageTitle = h.Config.SiteName
	}
	if data.PageDescription == "" && baseFile == "base.html" {
		data.PageDescription = h.Config.SiteDescription
	}

	pagePath := filepath.Join(pagesDir, pageName)
	if _, err := os.Stat(pagePath); os.IsNotExist(err) {
		slog.Error("Page template file not found", "page", pageName, "path", pagePath)
		http.Error(w, "Internal server error (page template)", http.StatusInternalServerError)
		return
	}

	tmplToExecute, err := baseTmpl.Clone()
	if err != nil {
		slog.Error("Failed to clone base template", "base_file", baseFile, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	tmplToExecute, err = tmplToExecute.ParseFiles(pagePath)
	if err != nil {
		slog.Error("Failed to parse page template", "page", pageName, "path", pagePath, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	err = tmplToExecute.ExecuteTemplate(w, baseFile, data)
	if err != nil {
		slog.Error("Template execution failed", "template", baseFile, "page", pageName, "error", err)
	}
}

func (h *AppHandlers) WelcomePageHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	isAuthenticated, _ := r.Context().Value(middleware.IsAuthenticatedContextKey).(bool)
	if isAuthenticated {
		currentUser, _ := r.Context().Value(middleware.UserContextKey).(*models.User)
		if currentUser != nil && currentUser.RoleName != nil && *currentUser.RoleName == models.RoleAdmin {
			http.Redirect(w, r, "/admin/dashboard", http.StatusSeeOther)
		} else {
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		}
		return
	}

	data := h.NewPageData(r)
	data.PageTitle = "Welcome to Samudaya Club"
	data.PageDescription = "Join our community club for cultural events, gatherings and member benefits."
	h.RenderPage(w, r, "welcome.html", data)
}

func (h *AppHandlers) DashboardPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "Your Dashboard"
	data.PageDescription = "Your bookings, membership and upcoming club events."
	data.RobotsContent = "noindex, nofollow"
	h.RenderPage(w, r, "dashboard.html", data)
}

func (h *AppHandlers) AboutPageHandler(w http.ResponseWriter, r *http.Request) {
	data := h.NewPageData(r)
	data.PageTitle = "About the Club"
	data.PageDescription = "Who we are and what the club does."
	h.RenderPage(w, r, "about.html", data)
}
