package handlers

import (
	"context"
	"net/http"

	"nearby-server/middleware"
	"nearby-server/models"
	"nearby-server/services"
)

type MatchHandler struct {
	matchService *services.MatchService
}

type matchRequest struct {
	MatchID string `json:"matchId"`
	Email   string `json:"email"`
}

func NewMatchHandler(matchService *services.MatchService) *MatchHandler {
	return &MatchHandler{matchService: matchService}
}

func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.List(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, matches)
}

func (h *MatchHandler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.matchService.Accept)
}

func (h *MatchHandler) Ignore(w http.ResponseWriter, r *http.Request) {
	var input matchRequest
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	if err := h.matchService.Ignore(r.Context(), input.MatchID, input.Email); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *MatchHandler) RequestReveal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.matchService.RequestReveal)
}

func (h *MatchHandler) AcceptReveal(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.matchService.AcceptReveal)
}

// transition decodes {matchId, email}, applies op and writes the resulting match.
func (h *MatchHandler) transition(w http.ResponseWriter, r *http.Request, op func(context.Context, string, string) (models.Match, error)) {
	var input matchRequest
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	match, err := op(r.Context(), input.MatchID, input.Email)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, match)
}
