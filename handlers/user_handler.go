package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"nearby-server/middleware"
	"nearby-server/models"
	"nearby-server/services"
)

type UserHandler struct {
	userService *services.UserService
}

type ProfileUpdateResponse struct {
	Success bool                `json:"success"`
	Profile UpdatedProfileState `json:"profile"`
}

// UpdatedProfileState is the profile plus its completion flag, returned to the owner.
type UpdatedProfileState struct {
	models.Profile
	ProfileCompleted bool `json:"profileCompleted"`
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
		models.ProfileUpdate
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), input.Email, input.ProfileUpdate)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, ProfileUpdateResponse{
		Success: true,
		Profile: UpdatedProfileState{Profile: user.Profile(), ProfileCompleted: user.ProfileCompleted},
	})
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	email := mux.Vars(r)["email"]
	requestingUser := r.URL.Query().Get("requestingUser")

	profile, err := h.userService.GetProfile(r.Context(), email, requestingUser)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email     string      `json:"email"`
		Mode      models.Mode `json:"mode"`
		Latitude  *float64    `json:"latitude"`
		Longitude *float64    `json:"longitude"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.userService.Activate(r.Context(), input.Email, input.Mode, input.Latitude, input.Longitude)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}

func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &input); err != nil {
		middleware.WriteError(w, err)
		return
	}

	user, err := h.userService.Deactivate(r.Context(), input.Email)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, user)
}
