package appointments

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile-labs/dental-portal-api/internal/identity"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// Handler serves the appointment endpoints.
type Handler struct {
	directory *Directory
	lifecycle *Lifecycle
	logger    *logging.Logger
}

// NewHandler creates an appointments handler.
func NewHandler(directory *Directory, lifecycle *Lifecycle, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{directory: directory, lifecycle: lifecycle, logger: logger}
}

// List handles GET /appointments requests. Patients see only their own
// appointments; clinicians see all. The response always succeeds; failed
// sub-queries are reported in the incomplete field instead.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	filter := Filter{
		Status: r.URL.Query().Get("status"),
		Search: r.URL.Query().Get("q"),
	}
	if !user.IsClinician() {
		filter.PatientID = user.ID
	}
	if filter.Status != "" && !ValidStatus(filter.Status) {
		http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
		return
	}

	result := h.directory.List(r.Context(), filter)
	writeJSON(w, http.StatusOK, result)
}

// SetStatus handles PATCH /appointments/{appointmentID}/status requests.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	appt, err := h.lifecycle.SetStatus(r.Context(), appointmentID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to set status", "error", err, "appointment_id", appointmentID)
			http.Error(w, "failed to update appointment", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, appt)
}

// SetDuration handles PUT /appointments/{appointmentID}/duration requests.
func (h *Handler) SetDuration(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")

	var req SetDurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.lifecycle.SetDuration(r.Context(), appointmentID, req.Minutes); err != nil {
		switch {
		case errors.Is(err, ErrInvalidDuration):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, ErrAppointmentNotFound):
			http.Error(w, "appointment not found", http.StatusNotFound)
		default:
			h.logger.Error("failed to set duration", "error", err, "appointment_id", appointmentID)
			http.Error(w, "failed to record duration", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id":   appointmentID,
		"duration_minutes": req.Minutes,
	})
}

// GetDuration handles GET /appointments/{appointmentID}/duration requests.
func (h *Handler) GetDuration(w http.ResponseWriter, r *http.Request) {
	appointmentID := chi.URLParam(r, "appointmentID")

	minutes, err := h.lifecycle.GetDuration(r.Context(), appointmentID)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to read duration", "error", err, "appointment_id", appointmentID)
		http.Error(w, "failed to read duration", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"appointment_id":   appointmentID,
		"duration_minutes": minutes,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
