package web

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"tripplanner/internal/auth"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/trip"
	"tripplanner/middleware"
)

// APIHandlers are the JSON endpoints mounted below /api/v1
type APIHandlers struct {
	Auth       *auth.AuthHandlers
	Trips      *trip.TripHandlers
	EventLogs  *eventlog.EventLogHandlers
	Middleware *middleware.Middleware
}

func routeVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// SetupRoutes configures all web and API routes
func (h *WebHandler) SetupRoutes(api APIHandlers) *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(h.NotFound)

	staticFS, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	r.PathPrefix("/media/").Handler(http.StripPrefix("/media/", noDirectoryListing(http.FileServer(http.Dir(h.config.MediaRoot)))))
	r.HandleFunc("/healthz", h.Healthz).Methods("GET")

	// Accounts
	r.HandleFunc("/", h.Index).Methods("GET")
	r.HandleFunc("/signup/", h.SignUp).Methods("GET", "POST")
	r.HandleFunc("/signin/", h.SignIn).Methods("GET", "POST")
	r.HandleFunc("/logout/", h.Logout).Methods("POST")
	r.HandleFunc("/activate-user/{uidb64}/{token}", h.ActivateUser).Methods("GET")
	r.HandleFunc("/resend_activation_link", h.ResendActivationLink).Methods("GET", "POST")
	r.HandleFunc("/password_reset_form/", h.PasswordResetForm).Methods("GET", "POST")
	r.HandleFunc("/password_reset/done/", h.PasswordResetDone).Methods("GET")
	r.HandleFunc("/reset/{uidb64}/{token}/", h.PasswordResetConfirm).Methods("GET", "POST")
	r.HandleFunc("/reset/done/", h.PasswordResetComplete).Methods("GET")
	r.HandleFunc("/delete_user_account", h.loginRequired(h.DeleteUserAccount)).Methods("GET", "POST")
	r.HandleFunc("/change_password", h.loginRequired(h.ChangePassword)).Methods("GET", "POST")
	r.HandleFunc("/edit_user_data", h.loginRequired(h.EditUserData)).Methods("GET", "POST")
	r.HandleFunc("/edit_user_additional_data", h.loginRequired(h.EditUserAdditionalData)).Methods("GET", "POST")
	r.HandleFunc("/settings", h.loginRequired(h.UserSettings)).Methods("GET", "POST")

	// Trips
	r.HandleFunc("/trips/new", h.loginRequired(h.NewTrip)).Methods("GET", "POST")
	r.HandleFunc("/trips/{id}", h.loginRequired(h.TripDetail)).Methods("GET")
	r.HandleFunc("/trips/{id}/edit", h.loginRequired(h.EditTrip)).Methods("GET", "POST")
	r.HandleFunc("/trips/{id}/delete", h.loginRequired(h.DeleteTrip)).Methods("POST")
	r.HandleFunc("/trips/{id}/members", h.loginRequired(h.MemberList)).Methods("GET")
	r.HandleFunc("/trips/{id}/add_member", h.loginRequired(h.AddMember)).Methods("GET", "POST")
	r.HandleFunc("/trips/{id}/members/{userID}/remove", h.loginRequired(h.RemoveMember)).Methods("POST")
	r.HandleFunc("/trips/{id}/leave", h.loginRequired(h.LeaveTrip)).Methods("POST")
	r.HandleFunc("/trips/{id}/activity", h.loginRequired(h.Activity)).Methods("GET")
	r.HandleFunc("/trips/{id}/itinerary.pdf", h.loginRequired(h.ItineraryPDF)).Methods("GET")

	// Notes
	r.HandleFunc("/trips/{id}/notes", h.loginRequired(h.NoteList)).Methods("GET")
	r.HandleFunc("/trips/{id}/notes/new", h.loginRequired(h.NewNote)).Methods("GET", "POST")
	r.HandleFunc("/notes/{id}/edit", h.loginRequired(h.EditNote)).Methods("GET", "POST")
	r.HandleFunc("/notes/{id}/delete", h.loginRequired(h.DeleteNote)).Methods("POST")

	// Bills
	r.HandleFunc("/trips/{id}/bills", h.loginRequired(h.BillList)).Methods("GET")
	r.HandleFunc("/trips/{id}/bills/new", h.loginRequired(h.NewBill)).Methods("GET", "POST")
	r.HandleFunc("/trips/{id}/balances", h.loginRequired(h.Balances)).Methods("GET")
	r.HandleFunc("/bills/{id}/delete", h.loginRequired(h.DeleteBill)).Methods("POST")

	// JSON API
	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.SetupCORS(h.config.AllowedOrigins))
	apiRouter.HandleFunc("/auth/token", api.Auth.LoginHandler).Methods("POST", "OPTIONS")

	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(api.Middleware.AuthMiddleware)
	protected.HandleFunc("/auth/check", api.Auth.CheckAuthHandler).Methods("GET", "OPTIONS")
	protected.HandleFunc("/trips", api.Trips.FindAll).Methods("GET", "OPTIONS")
	protected.HandleFunc("/trips/{id}", api.Trips.FindByID).Methods("GET", "OPTIONS")
	protected.HandleFunc("/trips/{id}/events", api.EventLogs.FindLatestByTrip).Methods("GET", "OPTIONS")

	return r
}

func noDirectoryListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
