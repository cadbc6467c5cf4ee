package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"nearby-server/middleware"
	"nearby-server/services"
)

type healthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// NewRouter registers every route. ws may be nil when realtime events are disabled.
func NewRouter(svc *services.Services, ws http.HandlerFunc) *mux.Router {
	authHandler := NewAuthHandler(svc.Users)
	userHandler := NewUserHandler(svc.Users)
	matchHandler := NewMatchHandler(svc.Matches)
	messageHandler := NewMessageHandler(svc.Chat)

	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Hello, the server is alive")
	}).Methods("GET")
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Message: "Nearby server is connected"})
	}).Methods("GET")

	r.HandleFunc("/login", authHandler.Login).Methods("POST", "OPTIONS")

	// Profile routes
	r.HandleFunc("/profile/update", userHandler.UpdateProfile).Methods("POST", "OPTIONS")
	r.HandleFunc("/profile/{email}", userHandler.GetProfile).Methods("GET", "OPTIONS")
	r.HandleFunc("/activate", userHandler.Activate).Methods("POST", "OPTIONS")
	r.HandleFunc("/deactivate", userHandler.Deactivate).Methods("POST", "OPTIONS")

	// Match routes
	matchRouter := r.PathPrefix("/matches").Subrouter()
	matchRouter.HandleFunc("", matchHandler.List).Methods("GET", "OPTIONS")
	matchRouter.HandleFunc("/accept", matchHandler.Accept).Methods("POST", "OPTIONS")
	matchRouter.HandleFunc("/ignore", matchHandler.Ignore).Methods("POST", "OPTIONS")
	matchRouter.HandleFunc("/reveal/request", matchHandler.RequestReveal).Methods("POST", "OPTIONS")
	matchRouter.HandleFunc("/reveal/accept", matchHandler.AcceptReveal).Methods("POST", "OPTIONS")

	// Message routes
	r.HandleFunc("/messages/send", messageHandler.Send).Methods("POST", "OPTIONS")
	r.HandleFunc("/messages", messageHandler.List).Methods("GET", "OPTIONS")

	if ws != nil {
		r.HandleFunc("/ws", ws).Methods("GET")
	}
	return r
}
