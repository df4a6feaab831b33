// cmd/server/main.go
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"samudaya.club/internal/config"
	"samudaya.club/internal/db"
	"samudaya.club/internal/handlers"
	adminhandlers "samudaya.club/internal/handlers/admin"
	"samudaya.club/internal/middleware"
	"samudaya.club/internal/models"
	"samudaya.club/internal/payment_gateway/phonepe"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/v2"

	_ "github.com/go-sql-driver/mysql"
)

var sessionManager *scs.SessionManager

func main() {
	configPath := "configs/config.yaml"
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fatal: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Starting Samudaya Club server...", "app_env", cfg.AppEnv, "phonepe_mock", cfg.PhonePe.MockMode)

	err = db.InitDB(cfg)
	if err != nil {
		slog.Error("Fatal: failed to initialize database", "error", err)
		os.Exit(1)
	}
	if db.DB != nil {
		defer db.DB.Close()
	} else {
		slog.Error("Fatal: database handle is nil after InitDB")
		os.Exit(1)
	}
	slog.Info("Database initialized and migrations applied.")

	firstAdminEmail := os.Getenv("FIRST_ADMIN_EMAIL")
	if firstAdminEmail != "" {
		adminUser, errGetUser := db.GetUserByEmail(firstAdminEmail)
		if errGetUser == nil && adminUser != nil {
			if adminUser.RoleName == nil || *adminUser.RoleName != models.RoleAdmin {
				adminRole, errRole := db.GetRoleByName(models.RoleAdmin)
				if errRole == nil && adminRole != nil {
					if errSetRole := db.SetUserRole(adminUser.ID, adminRole.ID); errSetRole != nil {
						slog.Error("Failed to assign admin role", "email", firstAdminEmail, "error", errSetRole)
					} else {
						slog.Info("Admin role assigned", "email", firstAdminEmail)
					}
				} else {
					slog.Error("Admin role not found in database", "error", errRole)
				}
			} else {
				slog.Info("User is already an administrator", "email", firstAdminEmail)
			}
		} else {
			slog.Warn("User for admin assignment not found", "email", firstAdminEmail, "error", errGetUser)
		}
	} else {
		slog.Info("FIRST_ADMIN_EMAIL not set, no admin is assigned automatically.")
	}

	sessionManager = scs.New()
	sessionManager.Store = mysqlstore.New(db.DB)
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Cookie.Name = "samudaya_session"
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.AppEnv == "production"
	sessionManager.Cookie.Path = "/"

	slog.Info("Session manager initialized", "store", "mysqlstore", "lifetime", sessionManager.Lifetime, "secure_cookie", sessionManager.Cookie.Secure)

	paymentsDB := db.NewPaymentsDB(db.DB)
	eventsDB := db.NewEventsDB(db.DB)
	bookingsDB := db.NewBookingsDB(db.DB)
	membershipsDB := db.NewMembershipsDB(db.DB)

	gateway := phonepe.NewClient(cfg.PhonePe.APIURL, cfg.PhonePe.MerchantID, cfg.PhonePe.SaltKey, cfg.PhonePe.SaltIndex)

	appHandlers, err := handlers.NewAppHandlers(cfg, sessionManager)
	if err != nil {
		slog.Error("Fatal: failed to initialize page handlers", "error", err)
		os.Exit(1)
	}
	authHandlers := handlers.NewAuthHandlers(sessionManager, appHandlers.RenderPage, appHandlers.NewPageData, cfg)
	eventHandlers := handlers.NewEventHandlers(appHandlers, eventsDB, bookingsDB)
	bookingHandlers := handlers.NewBookingHandlers(sessionManager, appHandlers, eventsDB, bookingsDB, membershipsDB)
	paymentHandlers := handlers.NewPaymentHandlers(sessionManager, cfg, appHandlers, paymentsDB, bookingsDB, membershipsDB, gateway, bookingHandlers.NotifyBookingConfirmed)
	membershipHandlers := handlers.NewMembershipHandlers(appHandlers, membershipsDB)
	userProfileHandlers := handlers.NewUserProfileHandlers(sessionManager, appHandlers, paymentsDB, bookingsDB, membershipsDB)

	mainMux := http.NewServeMux()
	fs := http.FileServer(http.Dir("./static"))
	mainMux.Handle("/static/", http.StripPrefix("/static/", fs))

	// Middleware
	injectUserMiddleware := middleware.InjectUserData(sessionManager)
	requireAuthMiddleware := middleware.RequireAuthentication(sessionManager)
	requireMembershipMiddleware := middleware.RequireActiveMembership(sessionManager, membershipsDB)
	requireAdminRoleMiddleware := middleware.RequireRole(models.RoleAdmin)

	// Public Routes
	mainMux.Handle("/", injectUserMiddleware(http.HandlerFunc(appHandlers.WelcomePageHandler)))
	mainMux.Handle("/about", injectUserMiddleware(http.HandlerFunc(appHandlers.AboutPageHandler)))
	mainMux.Handle("/events", injectUserMiddleware(http.HandlerFunc(eventHandlers.EventsPageHandler)))
	mainMux.Handle("/events/detail", injectUserMiddleware(http.HandlerFunc(eventHandlers.EventDetailPageHandler)))
	mainMux.Handle("/memberships", injectUserMiddleware(http.HandlerFunc(membershipHandlers.MembershipsPageHandler)))

	// Auth Routes
	mainMux.Handle("/register", injectUserMiddleware(http.HandlerFunc(authHandlers.RegisterPageHandler)))
	mainMux.HandleFunc("/api/register", authHandlers.RegisterHandler)
	mainMux.Handle("/login", injectUserMiddleware(http.HandlerFunc(authHandlers.LoginPageHandler)))
	mainMux.HandleFunc("/api/login", authHandlers.LoginHandler)
	mainMux.HandleFunc("/api/logout", authHandlers.LogoutHandler)

	// Booking Routes
	mainMux.Handle("/bookings", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(bookingHandlers.MyBookingsPageHandler))))
	mainMux.Handle("/bookings/checkout", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(bookingHandlers.CheckoutPageHandler))))
	mainMux.Handle("/api/bookings/create", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(bookingHandlers.CreateBookingHandler))))

	// Membership Routes
	mainMux.Handle("/memberships/checkout", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(membershipHandlers.MembershipCheckoutPageHandler))))

	// Payment Routes. Initiation is rate limited; the gateway callbacks are
	// registered on the top-level mux below, outside CSRF protection, since
	// PhonePe cannot carry our token.
	initiateHandler := requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(paymentHandlers.InitiatePaymentHandler)))
	mainMux.Handle("/api/payments/initiate", middleware.RateLimitMiddleware(initiateHandler, 1, 5))
	mainMux.Handle("/payment-success", injectUserMiddleware(http.HandlerFunc(paymentHandlers.PaymentSuccessPageHandler)))
	mainMux.Handle("/payment-failed", injectUserMiddleware(http.HandlerFunc(paymentHandlers.PaymentFailurePageHandler)))

	// Authenticated User Routes
	mainMux.Handle("/dashboard", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(appHandlers.DashboardPageHandler))))
	mainMux.Handle("/profile", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(userProfileHandlers.ProfilePageHandler))))
	mainMux.Handle("/members-lounge", requireAuthMiddleware(requireMembershipMiddleware(injectUserMiddleware(http.HandlerFunc(appHandlers.DashboardPageHandler)))))

	// Authenticated User API Routes
	mainMux.Handle("/api/profile/update", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(userProfileHandlers.UpdateProfileHandler))))
	mainMux.Handle("/api/profile/change-password", requireAuthMiddleware(injectUserMiddleware(http.HandlerFunc(userProfileHandlers.ChangePasswordHandler))))

	csrfProtectedRoutes := middleware.NoSurfMiddleware(mainMux, cfg.AppEnv == "production")

	// --- Admin Routes ---
	adminRouter := http.NewServeMux()
	adminEventHandlers := adminhandlers.NewAdminEventHandlers(eventsDB)
	adminPaymentHandlers := adminhandlers.NewAdminPaymentHandlers(paymentsDB)

	adminRouter.HandleFunc("/dashboard", adminhandlers.AdminDashboardPageHandler(appHandlers))
	adminRouter.HandleFunc("/users", adminhandlers.AdminUsersListPageHandler(appHandlers))
	adminRouter.HandleFunc("/users/edit", adminhandlers.AdminEditUserPageHandler(appHandlers))
	adminRouter.HandleFunc("/users/update", adminhandlers.AdminUpdateUserHandler(appHandlers))
	adminRouter.HandleFunc("/api/events", adminEventHandlers.ListEventsHandler)
	adminRouter.HandleFunc("/api/events/create", adminEventHandlers.CreateEventHandler)
	adminRouter.HandleFunc("/api/events/update", adminEventHandlers.UpdateEventHandler)
	adminRouter.HandleFunc("/api/payments", adminPaymentHandlers.ListPaymentsHandler)

	adminProtectedHandler := injectUserMiddleware(
		requireAuthMiddleware(
			requireAdminRoleMiddleware(
				middleware.NoSurfMiddleware(adminRouter, cfg.AppEnv == "production"),
			),
		),
	)
	// --- End Admin Routes ---

	// Top Level Mux
	topLevelMux := http.NewServeMux()
	topLevelMux.HandleFunc("/api/payments/callback", paymentHandlers.PaymentCallbackHandler)
	if cfg.PhonePe.MockMode {
		topLevelMux.HandleFunc("/api/payments/callback/mock", paymentHandlers.MockPaymentCallbackHandler)
	}
	topLevelMux.Handle("/admin/", http.StripPrefix("/admin", adminProtectedHandler))
	topLevelMux.Handle("/", csrfProtectedRoutes)

	finalHandler := sessionManager.LoadAndSave(topLevelMux)

	addr := fmt.Sprintf(":%d", cfg.Port)
	slog.Info("Samudaya Club server listening", "address", fmt.Sprintf("http://localhost%s", addr))

	server := &http.Server{
		Addr:         addr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  240 * time.Second,
	}

	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Fatal: HTTP server failed", "address", addr, "error", err)
		os.Exit(1)
	}
}
