package handlers

import (
	"net/http"

	"nearby-server/middleware"
	"nearby-server/services"
)

type MessageHandler struct {
	chatService *services.ChatService
}

func NewMessageHandler(chatService *services.ChatService) *MessageHandler {
	return &MessageHandler{chatService: chatService}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var input struct {
		MatchID string `json:"matchId"`
		Sender  string `json:"sender"`
		Text    string `json:"text"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	if _, err := h.chatService.Send(r.Context(), input.MatchID, input.Sender, input.Text); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatService.Messages(r.Context(), r.URL.Query().Get("matchId"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, messages)
}
