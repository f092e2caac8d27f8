package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"exam-drill-service/internal/domain"
)

type errorPayload struct {
	Message  string `json:"message"`
	Required int    `json:"required,omitempty"`
	Selected int    `json:"selected,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, err error) {
	respondJSON(w, statusFor(err), errorBody(err))
}

func errorBody(err error) errorPayload {
	body := errorPayload{Message: err.Error()}
	var incomplete *domain.SelectionIncompleteError
	if errors.As(err, &incomplete) {
		body.Required = incomplete.Required
		body.Selected = incomplete.Selected
	}
	return body
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrDatasetNotFound),
		errors.Is(err, domain.ErrHistoryNotFound),
		errors.Is(err, domain.ErrQuestionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrSelectionIncomplete):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSessionFinished),
		errors.Is(err, domain.ErrSessionPaused),
		errors.Is(err, domain.ErrIntroActive),
		errors.Is(err, domain.ErrConfirmationPending),
		errors.Is(err, domain.ErrNoPendingConfirmation),
		errors.Is(err, domain.ErrSessionInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrOptionNotFound),
		errors.Is(err, domain.ErrUnknownResolution),
		errors.Is(err, domain.ErrUnknownCommand),
		errors.Is(err, domain.ErrEmptyPool),
		errors.Is(err, domain.ErrInvalidTimeLimit):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
