package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"exam-drill-service/internal/app"
	"exam-drill-service/internal/engine"
)

// API serves the session REST endpoints.
type API struct {
	service *app.SessionService
}

func NewAPI(service *app.SessionService) *API {
	return &API{service: service}
}

// commandResponse carries the view even when the command was rejected, so
// clients can re-render alongside the error notice.
type commandResponse struct {
	View  app.SessionView `json:"view"`
	Error *errorPayload   `json:"error,omitempty"`
}

func (a *API) listExams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, a.service.Exams())
}

func (a *API) listDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := a.service.Datasets(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request) {
	var req app.SetupRequest
	if err := decodeBody(r, &req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid setup payload"})
		return
	}
	view, err := a.service.Start(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.View(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (a *API) abandonSession(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Abandon(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) dispatch(w http.ResponseWriter, r *http.Request) {
	var cmd engine.Command
	if err := decodeBody(r, &cmd); err != nil {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid command payload"})
		return
	}
	view, err := a.service.Dispatch(r.Context(), chi.URLParam(r, "sessionID"), cmd)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			respondError(w, err)
			return
		}
		body := errorBody(err)
		respondJSON(w, status, commandResponse{View: view, Error: &body})
		return
	}
	respondJSON(w, http.StatusOK, commandResponse{View: view})
}

func (a *API) copyText(w http.ResponseWriter, r *http.Request) {
	text, err := a.service.CopyText(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (a *API) result(w http.ResponseWriter, r *http.Request) {
	res, err := a.service.Result(chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (a *API) retryWrong(w http.ResponseWriter, r *http.Request) {
	view, err := a.service.RetryWrong(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("userId")
	if id == "" {
		respondJSON(w, http.StatusBadRequest, errorPayload{Message: "missing userId"})
		return "", false
	}
	return id, true
}

func (a *API) listHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	records, err := a.service.History(r.Context(), uid)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, records)
}

func (a *API) deleteHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := a.service.DeleteHistory(r.Context(), uid, chi.URLParam(r, "recordID")); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) clearHistory(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	if err := a.service.ClearHistory(r.Context(), uid); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
