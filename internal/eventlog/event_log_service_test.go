package eventlog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripplanner/internal/auth"
	"tripplanner/internal/eventlog"
	"tripplanner/internal/testutil"
	"tripplanner/models"
)

func TestGenerateDescription(t *testing.T) {
	ada := &models.User{FirstName: "Ada", LastName: "Lovelace"}
	tests := []struct {
		eventType models.EEventLogType
		actor     *models.User
		subject   string
		want      string
	}{
		{models.TripCreated, ada, "Lisbon", "Ada Lovelace created the trip [Lisbon]"},
		{models.TripUpdated, ada, "Lisbon", "Ada Lovelace updated the trip details"},
		{models.MemberInvited, ada, "bob@example.com", "Ada Lovelace invited [bob@example.com]"},
		{models.MemberJoined, ada, "Ada Lovelace", "[Ada Lovelace] joined the trip"},
		{models.MemberRemoved, ada, "Bob", "Ada Lovelace removed [Bob] from the trip"},
		{models.MemberLeft, nil, "", "Someone left the trip"},
		{models.BillAdded, ada, "12.50 EUR", "Ada Lovelace added a bill of 12.50 EUR"},
		{models.EEventLogType("unknown"), ada, "", "Event occurred"},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			assert.Equal(t, tt.want, eventlog.GenerateDescription(tt.eventType, tt.actor, tt.subject))
		})
	}
}

func TestRecordAndLatest(t *testing.T) {
	env := testutil.NewEnv(t)
	ctx := context.Background()
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	lisbon := env.CreateTrip(t, ada, "Lisbon")

	for i := 0; i < eventlog.DefaultLimit+5; i++ {
		env.EventLogs.Record(ctx, lisbon.ID, ada, models.TripUpdated, lisbon.Title)
	}

	logs, err := env.EventLogs.GetLatestByTrip(ctx, lisbon.ID, 0)
	require.NoError(t, err)
	assert.Len(t, logs, eventlog.DefaultLimit)
	require.NotNil(t, logs[0].UserID)
	assert.Equal(t, ada.ID, *logs[0].UserID)

	logs, err = env.EventLogs.GetLatestByTrip(ctx, lisbon.ID, 3)
	require.NoError(t, err)
	assert.Len(t, logs, 3)
}

func TestFindLatestByTripHandler(t *testing.T) {
	env := testutil.NewEnv(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	eve := env.CreateUser(t, "Eve", "Outsider", "eve@example.com", true)
	lisbon := env.CreateTrip(t, ada, "Lisbon")
	h := eventlog.NewEventLogHandlers(env.EventLogs, env.Trips)

	request := func(userID string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/trips/"+lisbon.ID+"/events", nil)
		r = mux.SetURLVars(r, map[string]string{"id": lisbon.ID})
		r = r.WithContext(auth.WithUserID(r.Context(), userID))
		rec := httptest.NewRecorder()
		h.FindLatestByTrip(rec, r)
		return rec
	}

	rec := request(ada.ID)
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.EventLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	require.Len(t, logs, 1)
	assert.Equal(t, models.TripCreated, logs[0].Type)

	assert.Equal(t, http.StatusNotFound, request(eve.ID).Code)
}

func TestFindLatestByTripHandler_Limit(t *testing.T) {
	env := testutil.NewEnv(t)
	ada := env.CreateUser(t, "Ada", "Lovelace", "ada@example.com", true)
	lisbon := env.CreateTrip(t, ada, "Lisbon")
	for i := 0; i < 3; i++ {
		env.EventLogs.Record(context.Background(), lisbon.ID, ada, models.NoteCreated, "Day "+strconv.Itoa(i))
	}
	h := eventlog.NewEventLogHandlers(env.EventLogs, env.Trips)

	request := func(query string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/api/v1/trips/"+lisbon.ID+"/events"+query, nil)
		r = mux.SetURLVars(r, map[string]string{"id": lisbon.ID})
		r = r.WithContext(auth.WithUserID(r.Context(), ada.ID))
		rec := httptest.NewRecorder()
		h.FindLatestByTrip(rec, r)
		return rec
	}

	rec := request("?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var logs []models.EventLog
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&logs))
	assert.Len(t, logs, 2)

	assert.Equal(t, http.StatusBadRequest, request("?limit=0").Code)
	assert.Equal(t, http.StatusBadRequest, request("?limit=abc").Code)
}
