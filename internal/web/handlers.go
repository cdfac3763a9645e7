package web

import (
	"embed"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"tripplanner/db"
	"tripplanner/internal/account"
	"tripplanner/internal/bill"
	"tripplanner/internal/config"
	"tripplanner/internal/domain"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/itinerary"
	"tripplanner/internal/note"
	"tripplanner/internal/settings"
	"tripplanner/internal/trip"
	"tripplanner/internal/util"
	"tripplanner/models"
)

//go:embed templates static
var assets embed.FS

const sessionName = "tripplanner-session"

// Message is a flash message shown once to the user
type Message struct {
	Message string `json:"message"`
	Tags    string `json:"tags"`
}

func init() {
	gob.Register(Message{})
}

// Services bundles what the web handlers need
type Services struct {
	Accounts  *account.AccountService
	Settings  *settings.SettingsService
	Trips     *trip.TripService
	Notes     *note.NoteService
	Bills     *bill.BillService
	EventLogs *eventlog.EventLogService
	Itinerary *itinerary.ItineraryService
}

type WebHandler struct {
	Services
	pages        map[string]*template.Template
	partials     *template.Template
	sessionStore *sessions.CookieStore
	config       *config.Config
}

type PageData struct {
	Page        string
	User        *models.User
	Profile     *models.UserProfile
	Messages    []Message
	Form        any
	Next        string
	Trip        *models.Trip
	Trips       []*models.Trip
	IsOwner     bool
	Members     []*models.TripMember
	Invitations []*models.Invitation
	Note        *models.Note
	Notes       []*models.Note
	Bills       []*models.Bill
	Balances    []bill.CurrencyBalances
	EventLogs   []*models.EventLog
	Settings    *models.Settings
	Names       map[string]string
	Categories  []models.ExpenseCategory
	ValidLink   bool
}

func NewWebHandler(services Services, cfg *config.Config) (*WebHandler, error) {
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("02 Jan 2006")
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			return t.Format("2006-01-02 15:04")
		},
		"formatTimeAgo": func(t time.Time) string {
			if t.IsZero() {
				return "Never"
			}
			duration := time.Since(t)
			switch {
			case duration < time.Minute:
				return "just now"
			case duration < time.Hour:
				return fmt.Sprintf("%dm ago", int(duration.Minutes()))
			case duration < 24*time.Hour:
				return fmt.Sprintf("%dh ago", int(duration.Hours()))
			default:
				return fmt.Sprintf("%dd ago", int(duration.Hours()/24))
			}
		},
		"money":    util.FormatMoney,
		"amount":   util.FormatAmount,
		"markdown": note.RenderMarkdown,
		"deref": func(ptr interface{}) interface{} {
			switch v := ptr.(type) {
			case *string:
				if v == nil {
					return ""
				}
				return *v
			case *time.Time:
				if v == nil {
					return time.Time{}
				}
				return *v
			default:
				return ptr
			}
		},
		"nameOf": func(names map[string]string, userID string) string {
			if name, ok := names[userID]; ok {
				return name
			}
			return "former member"
		},
		"mediaURL": func(rel *string) string {
			if rel == nil || *rel == "" {
				return ""
			}
			return "/media/" + *rel
		},
		"dict": func(pairs ...any) (map[string]any, error) {
			if len(pairs)%2 != 0 {
				return nil, errors.New("dict needs key/value pairs")
			}
			m := make(map[string]any, len(pairs)/2)
			for i := 0; i < len(pairs); i += 2 {
				key, ok := pairs[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict key %v is not a string", pairs[i])
				}
				m[key] = pairs[i+1]
			}
			return m, nil
		},
		"negative": func(v int64) bool { return v < 0 },
	}

	pages, partials, err := loadTemplates(funcMap)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore(cfg.SecretKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 14,
		HttpOnly: true,
		Secure:   cfg.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	}

	return &WebHandler{
		Services:     services,
		pages:        pages,
		partials:     partials,
		sessionStore: store,
		config:       cfg,
	}, nil
}

// loadTemplates builds one template set per page (layout + partials + page)
// and a set with the partials alone for HTMX fragments
func loadTemplates(funcMap template.FuncMap) (map[string]*template.Template, *template.Template, error) {
	partials, err := template.New("partials").Funcs(funcMap).ParseFS(assets, "templates/partials/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse partial templates: %w", err)
	}

	pageFiles, err := fs.Glob(assets, "templates/pages/*.html")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to glob page templates: %w", err)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		tmpl, err := partials.Clone()
		if err != nil {
			return nil, nil, err
		}
		tmpl, err = tmpl.ParseFS(assets, "templates/layouts/base.html", file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}
		pages[path.Base(file)] = tmpl
	}
	log.Printf("Loaded %d page templates", len(pages))
	return pages, partials, nil
}

func (h *WebHandler) session(r *http.Request) *sessions.Session {
	session, err := h.sessionStore.Get(r, sessionName)
	if err != nil {
		// A cookie signed with an old key; start over with a fresh session
		log.Printf("Discarding unreadable session: %v", err)
	}
	return session
}

func (h *WebHandler) saveSession(w http.ResponseWriter, r *http.Request) {
	if err := h.session(r).Save(r, w); err != nil {
		log.Printf("Error saving session: %v", err)
	}
}

// flash queues a message for the next rendered response
func (h *WebHandler) flash(r *http.Request, tags, text string) {
	h.session(r).AddFlash(Message{Message: text, Tags: tags})
}

func (h *WebHandler) popMessages(r *http.Request) []Message {
	var messages []Message
	for _, f := range h.session(r).Flashes() {
		if m, ok := f.(Message); ok {
			messages = append(messages, m)
		}
	}
	return messages
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// currentUser returns the logged in user, or nil
func (h *WebHandler) currentUser(r *http.Request) *models.User {
	userID, ok := h.session(r).Values["user_id"].(string)
	if !ok || userID == "" {
		return nil
	}
	user, err := h.Accounts.GetUser(r.Context(), userID)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			log.Printf("Error loading session user %s: %v", userID, err)
		}
		return nil
	}
	if !user.IsActive {
		return nil
	}
	return user
}

func (h *WebHandler) login(w http.ResponseWriter, r *http.Request, user *models.User) {
	session := h.session(r)
	session.Values["user_id"] = user.ID
	h.saveSession(w, r)
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user *models.User)

// loginRequired sends anonymous visitors to the sign in page. HTMX requests
// get an HX-Redirect header and a 401 instead of a redirect.
func (h *WebHandler) loginRequired(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.currentUser(r)
		if user == nil {
			target := "/signin/?next=" + url.QueryEscape(r.URL.RequestURI())
			if isHTMX(r) {
				w.Header().Set("HX-Redirect", target)
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, target, http.StatusSeeOther)
			return
		}
		next(w, r, user)
	}
}

// safeNext only allows redirects to local paths
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}

// render executes a full page
func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	tmpl, ok := h.pages[page]
	if !ok {
		h.serverError(w, r, fmt.Errorf("unknown page template %s", page))
		return
	}
	data.Messages = append(data.Messages, h.popMessages(r)...)
	h.saveSession(w, r)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := tmpl.ExecuteTemplate(w, "base", data); err != nil {
		log.Printf("Error executing %s: %v", page, err)
	}
}

// renderPartial executes a fragment for HTMX. Pending messages travel in the
// HX-Trigger header.
func (h *WebHandler) renderPartial(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	h.setTrigger(w, r, nil)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.partials.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Error executing partial %s: %v", name, err)
	}
}

// setTrigger writes the HX-Trigger header with events plus pending messages
func (h *WebHandler) setTrigger(w http.ResponseWriter, r *http.Request, events map[string]any) {
	messages := h.popMessages(r)
	h.saveSession(w, r)
	if len(messages) == 0 && len(events) == 0 {
		return
	}
	payload := make(map[string]any, len(events)+1)
	for k, v := range events {
		payload[k] = v
	}
	if len(messages) > 0 {
		payload["messages"] = messages
	}
	b, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error encoding HX-Trigger: %v", err)
		return
	}
	w.Header().Set("HX-Trigger", string(b))
}

// hxRespond answers an HTMX request without a body
func (h *WebHandler) hxRespond(w http.ResponseWriter, r *http.Request, status int, events ...string) {
	var m map[string]any
	if len(events) > 0 {
		m = make(map[string]any, len(events))
		for _, e := range events {
			m[e] = nil
		}
	}
	h.setTrigger(w, r, m)
	w.WriteHeader(status)
}

func (h *WebHandler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	h.saveSession(w, r)
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *WebHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	if isHTMX(r) {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	h.render(w, r, http.StatusNotFound, "not_found.html", &PageData{Page: "not_found", User: h.currentUser(r)})
}

func (h *WebHandler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

// handleError maps service errors to responses
func (h *WebHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsNotFound(err), errors.Is(err, db.ErrNotFound):
		h.NotFound(w, r)
	case domain.IsForbidden(err):
		if isHTMX(r) {
			h.flash(r, "danger", err.Error())
			h.hxRespond(w, r, http.StatusForbidden)
			return
		}
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		h.serverError(w, r, err)
	}
}

// memberTrip loads the trip named by the {id} route variable for a member
func (h *WebHandler) memberTrip(w http.ResponseWriter, r *http.Request, user *models.User) (*models.Trip, bool) {
	t, err := h.Trips.GetForMember(r.Context(), routeVar(r, "id"), user.ID)
	if err != nil {
		h.handleError(w, r, err)
		return nil, false
	}
	return t, true
}

func (h *WebHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
