package profiles

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// Handler serves the admin user-management endpoints.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

// NewHandler creates a profiles handler.
func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListUsersResponse is the response for listing portal users.
type ListUsersResponse struct {
	Users []*Profile `json:"users"`
	Count int        `json:"count"`
}

// ListUsers handles GET /admin/users requests.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit := 50
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	users, err := h.repo.List(r.Context(), r.URL.Query().Get("role"), limit, offset)
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		http.Error(w, "failed to list users", http.StatusInternalServerError)
		return
	}
	if users == nil {
		users = []*Profile{}
	}

	writeJSON(w, http.StatusOK, ListUsersResponse{Users: users, Count: len(users)})
}

// CreateUser handles POST /admin/users requests.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.repo.Create(r.Context(), &req)
	if err != nil {
		if isValidationErr(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create user", "error", err)
		http.Error(w, "failed to create user", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user created", "id", profile.ID, "role", profile.Role)
	writeJSON(w, http.StatusCreated, profile)
}

// GetUser handles GET /admin/users/{userID} requests.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.repo.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load user", "error", err)
		http.Error(w, "failed to load user", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateUser handles PATCH /admin/users/{userID} requests.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.repo.Update(r.Context(), chi.URLParam(r, "userID"), &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileNotFound):
			http.Error(w, "user not found", http.StatusNotFound)
		case isValidationErr(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update user", "error", err)
			http.Error(w, "failed to update user", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrMissingName) || errors.Is(err, ErrMissingEmail) || errors.Is(err, ErrInvalidRole)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
