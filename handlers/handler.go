package handlers

import (
	"encoding/json"
	"net/http"

	apierrors "nearby-server/utils/errors"
)

// decodeJSON reads a JSON request body into v. Malformed bodies are a 400.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apierrors.NewAPIError(
			apierrors.ErrInvalidInput.Code,
			apierrors.ErrInvalidInput.Message,
			http.StatusBadRequest,
			err.Error(),
		)
	}
	return nil
}

type successResponse struct {
	Success bool `json:"success"`
}
