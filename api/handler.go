// Package api exposes the HTTP surface: application CRUD, run
// control, the interrupt/resume answer endpoint, profiles, and the
// per-user event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/c360studio/applyflow/application"
	"github.com/c360studio/applyflow/notify"
)

// maxBodySize limits request bodies to prevent DoS.
const maxBodySize = 1 << 20 // 1 MB

// TaskQueue enqueues application runs for the runner to pick up.
type TaskQueue interface {
	Enqueue(ctx context.Context, applicationID string) error
}

// Handler serves the applyflow HTTP API.
type Handler struct {
	store    application.Store
	profiles application.ProfileStore
	events   *notify.Registry
	queue    TaskQueue
	logger   *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	store application.Store,
	profiles application.ProfileStore,
	events *notify.Registry,
	queue TaskQueue,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:    store,
		profiles: profiles,
		events:   events,
		queue:    queue,
		logger:   logger,
	}
}

// RegisterHTTPHandlers registers the API endpoints. The prefix should
// be "/api/v1" (without trailing slash).
func (h *Handler) RegisterHTTPHandlers(prefix string, mux *http.ServeMux) {
	prefix = strings.TrimSuffix(prefix, "/")

	mux.HandleFunc("POST "+prefix+"/applications", h.handleCreate)
	mux.HandleFunc("GET "+prefix+"/applications", h.handleList)
	mux.HandleFunc("GET "+prefix+"/applications/{id}", h.handleGet)
	mux.HandleFunc("POST "+prefix+"/applications/{id}/start", h.handleStart)
	mux.HandleFunc("POST "+prefix+"/applications/{id}/answers", h.handleAnswers)
	mux.HandleFunc("POST "+prefix+"/applications/{id}/status", h.handleStatus)

	mux.HandleFunc("PUT "+prefix+"/profiles/{user}", h.handlePutProfile)
	mux.HandleFunc("GET "+prefix+"/profiles/{user}", h.handleGetProfile)

	mux.HandleFunc("GET "+prefix+"/events/{user}", h.handleEvents)

	mux.HandleFunc("GET /healthz", h.handleHealthz)
}

// CreateApplicationRequest is the body for POST /applications.
type CreateApplicationRequest struct {
	UserID   string `json:"user_id"`
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`
	ApplyURL string `json:"apply_url"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var req CreateApplicationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" || req.ApplyURL == "" {
		h.writeError(w, http.StatusBadRequest, "user_id and apply_url are required")
		return
	}
	if !strings.HasPrefix(req.ApplyURL, "http://") && !strings.HasPrefix(req.ApplyURL, "https://") {
		h.writeError(w, http.StatusBadRequest, "apply_url must be an http(s) URL")
		return
	}

	app := application.New(req.UserID, req.JobTitle, req.Company, req.ApplyURL)
	if err := h.store.Put(r.Context(), app); err != nil {
		h.logger.Error("failed to create application", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to create application")
		return
	}

	h.writeJSON(w, http.StatusCreated, app)
}

// ListApplicationsResponse is the response for GET /applications.
type ListApplicationsResponse struct {
	Applications []*application.Application `json:"applications"`
	Total        int                        `json:"total"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	statusParam := r.URL.Query().Get("status")

	var status application.Status
	if statusParam != "" && statusParam != "all" {
		status = application.Status(statusParam)
		if !status.IsValid() {
			h.writeError(w, http.StatusBadRequest, "invalid status filter")
			return
		}
	}

	apps, err := h.store.List(r.Context(), userID, status)
	if err != nil {
		h.logger.Error("failed to list applications", "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list applications")
		return
	}

	h.writeJSON(w, http.StatusOK, ListApplicationsResponse{
		Applications: apps,
		Total:        len(apps),
	})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, app)
}

// handleStart queues a pending application for an automation run.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	if app.Status != application.StatusPending {
		h.writeError(w, http.StatusConflict,
			fmt.Sprintf("application is %s, only pending applications can start", app.Status))
		return
	}

	if err := h.queue.Enqueue(r.Context(), app.ID); err != nil {
		h.logger.Error("failed to enqueue run", "application_id", app.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to queue application run")
		return
	}

	h.logger.Info("application run queued", "application_id", app.ID, "user_id", app.UserID)
	h.writeJSON(w, http.StatusAccepted, app)
}

// AnswersRequest is the body for POST /applications/{id}/answers:
// answers keyed by the field label the question was raised for.
type AnswersRequest struct {
	Answers map[string]string `json:"answers"`
}

// handleAnswers folds the applicant's answers into a blocked
// application and queues it for another run.
func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	if app.Status != application.StatusNeedsInfo {
		h.writeError(w, http.StatusConflict,
			fmt.Sprintf("application is %s, only blocked applications accept answers", app.Status))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req AnswersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Answers) == 0 {
		h.writeError(w, http.StatusBadRequest, "answers are required")
		return
	}

	// Partial answers are fine: the resumed run re-asks whatever is
	// still open, so each round only has to shrink the unanswered set.
	app.AnswerQuestions(req.Answers)

	if err := app.SetStatus(application.StatusPending, "answers received, run queued"); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err := h.store.Put(r.Context(), app); err != nil {
		h.logger.Error("failed to persist answers", "application_id", app.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save answers")
		return
	}

	if err := h.queue.Enqueue(r.Context(), app.ID); err != nil {
		h.logger.Error("failed to enqueue resumed run", "application_id", app.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to queue application run")
		return
	}

	h.logger.Info("application resumed",
		"application_id", app.ID,
		"answers", len(req.Answers))
	h.writeJSON(w, http.StatusOK, app)
}

// StatusRequest is the body for POST /applications/{id}/status,
// covering the post-submission transitions the applicant records by
// hand (rejected, interview_scheduled, offer_received, withdrawn).
type StatusRequest struct {
	Status application.Status `json:"status"`
	Reason string             `json:"reason,omitempty"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	app, ok := h.loadApplication(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := app.SetStatus(req.Status, req.Reason); err != nil {
		if errors.Is(err, application.ErrInvalidTransition) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Put(r.Context(), app); err != nil {
		h.logger.Error("failed to persist status", "application_id", app.ID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	h.writeJSON(w, http.StatusOK, app)
}

func (h *Handler) handlePutProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user ID required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var profile application.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	profile.UserID = userID

	if err := profile.Validate(); err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.profiles.Put(r.Context(), &profile); err != nil {
		h.logger.Error("failed to save profile", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to save profile")
		return
	}

	h.writeJSON(w, http.StatusOK, &profile)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("user")
	if userID == "" {
		h.writeError(w, http.StatusBadRequest, "user ID required")
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "profile not found")
			return
		}
		h.logger.Error("failed to get profile", "user_id", userID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get profile")
		return
	}

	h.writeJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loadApplication resolves the {id} path value, writing the error
// response itself when the application cannot be served.
func (h *Handler) loadApplication(w http.ResponseWriter, r *http.Request) (*application.Application, bool) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "application ID required")
		return nil, false
	}
	if !strings.HasPrefix(id, "app-") {
		h.writeError(w, http.StatusBadRequest, "invalid application ID format (must start with 'app-')")
		return nil, false
	}

	app, err := h.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, application.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "application not found")
			return nil, false
		}
		h.logger.Error("failed to get application", "id", id, "error", err)
		h.writeError(w, http.StatusInternalServerError, "failed to get application")
		return nil, false
	}
	return app, true
}

// writeJSON writes a JSON response.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write JSON response", "error", err)
	}
}

// writeError writes an error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
