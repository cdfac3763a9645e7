package trip

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"tripplanner/internal/auth"
	"tripplanner/internal/domain"
	"tripplanner/models"
)

type TripHandlers struct {
	Service *TripService
}

func NewTripHandlers(service *TripService) *TripHandlers {
	return &TripHandlers{Service: service}
}

type tripDetail struct {
	*models.Trip
	Members []*models.TripMember `json:"members"`
}

// FindAll lists the trips of the token's user
func (h *TripHandlers) FindAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	trips, err := h.Service.ListForUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing trips for %s: %v", userID, err)
		http.Error(w, "failed to list trips", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trips)
}

// FindByID returns one trip with its members
func (h *TripHandlers) FindByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	trip, err := h.Service.GetForMember(r.Context(), mux.Vars(r)["id"], userID)
	if err != nil {
		if domain.IsNotFound(err) {
			http.Error(w, "trip not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading trip: %v", err)
		http.Error(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	members, err := h.Service.Members(r.Context(), trip.ID)
	if err != nil {
		log.Printf("Error loading members of trip %s: %v", trip.ID, err)
		http.Error(w, "failed to load trip", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tripDetail{Trip: trip, Members: members})
}
