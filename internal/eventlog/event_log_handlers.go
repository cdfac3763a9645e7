package eventlog

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tripplanner/internal/auth"
)

// MembershipChecker tells whether a user belongs to a trip
type MembershipChecker interface {
	IsMember(ctx context.Context, tripID, userID string) (bool, error)
}

type EventLogHandlers struct {
	Service *EventLogService
	Trips   MembershipChecker
}

func NewEventLogHandlers(service *EventLogService, trips MembershipChecker) *EventLogHandlers {
	return &EventLogHandlers{Service: service, Trips: trips}
}

// FindLatestByTrip returns a trip's activity feed as JSON
func (h *EventLogHandlers) FindLatestByTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	tripID := mux.Vars(r)["id"]
	member, err := h.Trips.IsMember(r.Context(), tripID, userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !member {
		http.Error(w, "trip not found", http.StatusNotFound)
		return
	}

	limit := DefaultLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, MaxLimit)
	}

	eventLogs, err := h.Service.GetLatestByTrip(r.Context(), tripID, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(eventLogs)
}
