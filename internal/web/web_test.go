package web_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/auth"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/testutil"
	"tripplanner/internal/trip"
	"tripplanner/internal/web"
	"tripplanner/middleware"
	"tripplanner/models"
)

func newApp(t *testing.T) (*testutil.Env, *testutil.TestServer) {
	t.Helper()
	return newAppFor(t, testutil.NewEnv(t))
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func signIn(t *testing.T, ts *testutil.TestServer, email string) {
	t.Helper()
	resp := ts.POSTForm("/signin/", url.Values{"email": {email}, "password": {testutil.TestPassword}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	_, ts := newApp(t)

	resp := ts.GET("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, body(t, resp))
}

func TestNotFoundPage(t *testing.T) {
	_, ts := newApp(t)

	resp := ts.GET("/no/such/page")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
}

func TestSignUpActivateSignIn(t *testing.T) {
	env, ts := newApp(t)

	resp := ts.GET("/signup/")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.POSTForm("/signup/", url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {"Ada@Example.com"},
		"password1":  {"analytical-engine"},
		"password2":  {"analytical-engine"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin/", resp.Header.Get("Location"))

	resp = ts.GET("/signin/")
	assert.Contains(t, body(t, resp), web.MsgCheckEmail)

	// Not active yet
	resp = ts.POSTForm("/signin/", url.Values{"email": {"ada@example.com"}, "password": {"analytical-engine"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), web.MsgInactiveLogin)

	uidb64, token := env.MailLink(t, "ada@example.com")
	resp = ts.GET("/activate-user/" + uidb64 + "/" + token)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin/", resp.Header.Get("Location"))

	resp = ts.GET("/signin/")
	assert.Contains(t, body(t, resp), web.MsgActivated)

	// A used link is rejected
	resp = ts.GET("/activate-user/" + uidb64 + "/" + token)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.POSTForm("/signin/?next=%2Fsettings", url.Values{"email": {"ada@example.com"}, "password": {"analytical-engine"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/settings", resp.Header.Get("Location"))

	resp = ts.GET("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "My trips")
}

func TestSignUp_InvalidForm(t *testing.T) {
	env, ts := newApp(t)

	resp := ts.POSTForm("/signup/", url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {"ada@example.com"},
		"password1":  {"analytical-engine"},
		"password2":  {"something-else"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, env.Mailer.Messages())
}

func TestSignIn(t *testing.T) {
	env, ts := newApp(t)
	env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)

	t.Run("wrong password", func(t *testing.T) {
		resp := ts.POSTForm("/signin/", url.Values{"email": {"ada@example.com"}, "password": {"nope"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, body(t, resp), web.MsgInvalidLogin)
	})

	t.Run("foreign next is ignored", func(t *testing.T) {
		resp := ts.POSTForm("/signin/", url.Values{
			"email":    {"ada@example.com"},
			"password": {testutil.TestPassword},
			"next":     {"//evil.example.com/"},
		})
		require.Equal(t, http.StatusSeeOther, resp.StatusCode)
		assert.Equal(t, "/", resp.Header.Get("Location"))
	})
}

func TestActivateUser_InvalidLink(t *testing.T) {
	_, ts := newApp(t)

	resp := ts.GET("/activate-user/bm9ib2R5/garbage")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLoginRequired(t *testing.T) {
	_, ts := newApp(t)

	resp := ts.GET("/trips/new")
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/signin/?next=%2Ftrips%2Fnew", resp.Header.Get("Location"))

	resp = ts.HXGET("/trips/new")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "/signin/?next=%2Ftrips%2Fnew", resp.Header.Get("HX-Redirect"))
}

func TestLogout(t *testing.T) {
	env, ts := newApp(t)
	env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	signIn(t, ts, "ada@example.com")

	resp := ts.GET("/trips/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.POSTForm("/logout/", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	resp = ts.GET("/trips/new")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestPasswordReset(t *testing.T) {
	env, ts := newApp(t)
	env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)

	// Unknown addresses get the same answer
	resp := ts.POSTForm("/password_reset_form/", url.Values{"email": {"nobody@example.com"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/password_reset/done/", resp.Header.Get("Location"))
	assert.Empty(t, env.Mailer.Messages())

	resp = ts.POSTForm("/password_reset_form/", url.Values{"email": {"ada@example.com"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	uidb64, token := env.MailLink(t, "ada@example.com")
	path := "/reset/" + uidb64 + "/" + token + "/"
	resp = ts.GET(path)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.POSTForm(path, url.Values{"new_password1": {"difference-engine"}, "new_password2": {"difference-engine"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/reset/done/", resp.Header.Get("Location"))

	resp = ts.POSTForm("/signin/", url.Values{"email": {"ada@example.com"}, "password": {"difference-engine"}})
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
}

func TestNewTrip(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	signIn(t, ts, "ada@example.com")

	resp := ts.POSTForm("/trips/new", url.Values{
		"title":       {"Lisbon"},
		"destination": {"Portugal"},
		"start_date":  {"2026-07-01"},
		"end_date":    {"2026-07-07"},
	})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	location := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(location, "/trips/"), location)

	trips, err := env.Trips.ListForUser(context.Background(), ada.ID)
	require.NoError(t, err)
	require.Len(t, trips, 1)
	assert.Equal(t, "/trips/"+trips[0].ID, location)

	resp = ts.GET(location)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := body(t, resp)
	assert.Contains(t, page, "Lisbon")
	assert.Contains(t, page, web.MsgTripCreated)
}

func TestNewTrip_EndBeforeStart(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	signIn(t, ts, "ada@example.com")

	resp := ts.POSTForm("/trips/new", url.Values{
		"title":      {"Lisbon"},
		"start_date": {"2026-07-07"},
		"end_date":   {"2026-07-01"},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	trips, err := env.Trips.ListForUser(context.Background(), ada.ID)
	require.NoError(t, err)
	assert.Empty(t, trips)
}

func TestTripAccess(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	bob := env.CreateUser(t, "Bob", "Kahn", "bob@example.com", true)
	env.CreateUser(t, "Eve", "Outsider", "eve@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	env.AddMember(t, tr, bob)

	signIn(t, ts, "eve@example.com")
	resp := ts.GET("/trips/" + tr.ID)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	_, ts = newAppFor(t, env)
	signIn(t, ts, "bob@example.com")
	resp = ts.GET("/trips/" + tr.ID)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.POSTForm("/trips/"+tr.ID+"/edit", url.Values{
		"title":      {"Porto"},
		"start_date": {"2026-07-01"},
		"end_date":   {"2026-07-07"},
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// newAppFor starts a second server with its own cookie jar on the same env
func newAppFor(t *testing.T, env *testutil.Env) (*testutil.Env, *testutil.TestServer) {
	t.Helper()
	h, err := web.NewWebHandler(web.Services{
		Accounts:  env.Accounts,
		Settings:  env.Settings,
		Trips:     env.Trips,
		Notes:     env.Notes,
		Bills:     env.Bills,
		EventLogs: env.EventLogs,
		Itinerary: env.Itinerary,
	}, env.Config)
	require.NoError(t, err)
	router := h.SetupRoutes(web.APIHandlers{
		Auth:       auth.NewAuthHandlers(env.Config, env.Accounts),
		Trips:      trip.NewTripHandlers(env.Trips),
		EventLogs:  eventlog.NewEventLogHandlers(env.EventLogs, env.Trips),
		Middleware: middleware.NewMiddleware(env.Config),
	})
	return env, testutil.NewTestServer(t, router)
}

func TestAddMember(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	env.CreateUser(t, "Bob", "Kahn", "bob@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	signIn(t, ts, "ada@example.com")
	path := "/trips/" + tr.ID + "/add_member"

	resp := ts.HXGET(path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "member_email")

	t.Run("invalid form", func(t *testing.T) {
		resp := ts.HXPOST(path, url.Values{"member_email": {"not-an-email"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, []string{web.MsgInvalidForm}, testutil.HXMessages(t, resp))
	})

	t.Run("self", func(t *testing.T) {
		resp := ts.HXPOST(path, url.Values{"member_email": {"ADA@example.com"}})
		require.Equal(t, http.StatusNotAcceptable, resp.StatusCode)
		assert.Equal(t, []string{"You can't invite yourself!"}, testutil.HXMessages(t, resp))
	})

	t.Run("existing account", func(t *testing.T) {
		resp := ts.HXPOST(path, url.Values{"member_email": {"bob@example.com"}})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.Contains(t, testutil.HXTrigger(t, resp), "memberListChanged")
		assert.Equal(t, []string{web.MsgMemberInvited}, testutil.HXMessages(t, resp))
	})

	t.Run("already a member", func(t *testing.T) {
		resp := ts.HXPOST(path, url.Values{"member_email": {"bob@example.com"}})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.NotContains(t, testutil.HXTrigger(t, resp), "memberListChanged")
		assert.Equal(t, []string{"This user is already invited!"}, testutil.HXMessages(t, resp))
	})

	t.Run("no account yet", func(t *testing.T) {
		resp := ts.HXPOST(path, url.Values{"member_email": {"carol@example.com"}})
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		assert.NotContains(t, testutil.HXTrigger(t, resp), "memberListChanged", "only new members refresh the list")
		assert.Equal(t, []string{web.MsgMemberInvited}, testutil.HXMessages(t, resp))

		pending, err := env.Invitations.FindPendingByTrip(context.Background(), tr.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "carol@example.com", pending[0].MemberEmail)
	})

	resp = ts.HXGET("/trips/" + tr.ID + "/members")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	members := body(t, resp)
	assert.Contains(t, members, "Bob Kahn")
	assert.Contains(t, members, "carol@example.com")
}

func TestRemoveMember(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	bob := env.CreateUser(t, "Bob", "Kahn", "bob@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	env.AddMember(t, tr, bob)
	signIn(t, ts, "ada@example.com")

	resp := ts.HXPOST("/trips/"+tr.ID+"/members/"+ada.ID+"/remove", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.HXPOST("/trips/"+tr.ID+"/members/"+bob.ID+"/remove", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, testutil.HXTrigger(t, resp), "memberListChanged")

	isMember, err := env.TripRepo.IsMember(context.Background(), tr.ID, bob.ID)
	require.NoError(t, err)
	assert.False(t, isMember)
}

func TestNotes(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	signIn(t, ts, "ada@example.com")

	resp := ts.HXPOST("/trips/"+tr.ID+"/notes/new", url.Values{"title": {"Day 1"}, "content": {"**Belém** tower"}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, testutil.HXTrigger(t, resp), "noteListChanged")
	assert.Equal(t, []string{web.MsgNoteCreated}, testutil.HXMessages(t, resp))

	resp = ts.HXGET("/trips/" + tr.ID + "/notes")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := body(t, resp)
	assert.Contains(t, list, "Day 1")
	assert.Contains(t, list, "<strong>Belém</strong>")

	notes, err := env.Notes.ListForTrip(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	resp = ts.HXPOST("/notes/"+notes[0].ID+"/edit", url.Values{"title": {"Day one"}, "content": {""}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{web.MsgNoteUpdated}, testutil.HXMessages(t, resp))

	resp = ts.HXPOST("/notes/"+notes[0].ID+"/delete", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{web.MsgNoteDeleted}, testutil.HXMessages(t, resp))

	// Missing title re-renders the form
	resp = ts.HXPOST("/trips/"+tr.ID+"/notes/new", url.Values{"title": {""}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("HX-Trigger"))
}

func TestBills(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	bob := env.CreateUser(t, "Bob", "Kahn", "bob@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	env.AddMember(t, tr, bob)
	signIn(t, ts, "bob@example.com")

	resp := ts.HXGET("/trips/" + tr.ID + "/bills/new")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.HXPOST("/trips/"+tr.ID+"/bills/new", url.Values{
		"expense_category": {"food"},
		"paid_by":          {bob.ID},
		"total_amount":     {"30.00"},
		"currency":         {"eur"},
		"share_type":       {"custom_values"},
		ada.ID:             {"20.00"},
		bob.ID:             {"5.00"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, "shares do not add up")
	assert.Empty(t, resp.Header.Get("HX-Trigger"))

	resp = ts.HXPOST("/trips/"+tr.ID+"/bills/new", url.Values{
		"expense_category": {"food"},
		"paid_by":          {bob.ID},
		"total_amount":     {"30.00"},
		"currency":         {"eur"},
		"comment":          {"Dinner"},
		"share_type":       {"equal"},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, testutil.HXTrigger(t, resp), "billListChanged")
	assert.Equal(t, []string{web.MsgBillAdded}, testutil.HXMessages(t, resp))

	bills, err := env.Bills.ListForTrip(context.Background(), tr.ID)
	require.NoError(t, err)
	require.Len(t, bills, 1)
	assert.Equal(t, int64(3000), bills[0].TotalAmount)
	assert.Equal(t, "EUR", bills[0].Currency)

	resp = ts.HXGET("/trips/" + tr.ID + "/bills")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body(t, resp), "Dinner")

	resp = ts.HXGET("/trips/" + tr.ID + "/balances")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.HXPOST("/bills/"+bills[0].ID+"/delete", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, []string{web.MsgBillDeleted}, testutil.HXMessages(t, resp))
}

func TestItineraryPDF(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")
	signIn(t, ts, "ada@example.com")

	resp := ts.GET("/trips/" + tr.ID + "/itinerary.pdf")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="itinerary_Lisbon.pdf"`, resp.Header.Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(body(t, resp), "%PDF-"))
}

func TestSettingsPage(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	signIn(t, ts, "ada@example.com")

	resp := ts.GET("/settings")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.POSTForm("/settings", url.Values{"default_currency": {"usd"}})
	require.Less(t, resp.StatusCode, http.StatusBadRequest)

	assert.Equal(t, "USD", env.Settings.DefaultCurrency(context.Background(), ada.ID))
	assert.False(t, env.Settings.WantsEmailNotifications(context.Background(), ada.ID))
}

func TestAPI(t *testing.T) {
	env, ts := newApp(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	tr := env.CreateTrip(t, ada, "Lisbon")

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/trips", nil)
	require.NoError(t, err)
	resp := ts.Do(req)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err = http.NewRequest(http.MethodPost, ts.URL+"/api/v1/auth/token",
		strings.NewReader(`{"email":"ada@example.com","password":"`+testutil.TestPassword+`"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	var token struct {
		Token string `json:"token"`
	}
	testutil.AssertJSONResponse(t, ts.Do(req), http.StatusOK, &token)
	require.NotEmpty(t, token.Token)

	get := func(path string) *http.Response {
		req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token.Token)
		return ts.Do(req)
	}

	var trips []*models.Trip
	testutil.AssertJSONResponse(t, get("/api/v1/trips"), http.StatusOK, &trips)
	require.Len(t, trips, 1)
	assert.Equal(t, tr.ID, trips[0].ID)
	assert.Equal(t, 1, trips[0].MemberCount)

	var events []*models.EventLog
	testutil.AssertJSONResponse(t, get("/api/v1/trips/"+tr.ID+"/events"), http.StatusOK, &events)
	require.NotEmpty(t, events)
	assert.Equal(t, models.TripCreated, events[0].Type)

	resp = get("/api/v1/trips/does-not-exist")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHXTriggerCarriesFlashAfterRedirect(t *testing.T) {
	env, ts := newApp(t)
	env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	signIn(t, ts, "ada@example.com")

	resp := ts.HXPOST("/trips/new", url.Values{
		"title":      {"Lisbon"},
		"start_date": {"2026-07-01"},
		"end_date":   {"2026-07-07"},
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	target := resp.Header.Get("HX-Redirect")
	require.True(t, strings.HasPrefix(target, "/trips/"), target)

	resp = ts.HXGET(target + "/activity")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	raw, ok := testutil.HXTrigger(t, resp)["messages"]
	require.True(t, ok)
	var messages []web.Message
	require.NoError(t, json.Unmarshal(raw, &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, web.MsgTripCreated, messages[0].Message)
}
