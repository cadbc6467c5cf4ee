package handlers

import (
	"net/http"

	"nearby-server/middleware"
	"nearby-server/models"
	"nearby-server/services"
)

type AuthHandler struct {
	userService *services.UserService
}

type LoginResponse struct {
	User models.User `json:"user"`
}

func NewAuthHandler(userService *services.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.userService.Login(r.Context(), input.Email)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, LoginResponse{User: user})
}
