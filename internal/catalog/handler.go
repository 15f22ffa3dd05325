package catalog

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// Handler serves the read-only catalog endpoints.
type Handler struct {
	services ServiceLister
	repo     *Repository
	logger   *logging.Logger
}

// NewHandler creates a catalog handler. services is typically the Cache
// wrapping repo.
func NewHandler(services ServiceLister, repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{services: services, repo: repo, logger: logger}
}

// ListServices handles GET /catalog/services requests.
func (h *Handler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.ListServices(r.Context())
	if err != nil {
		h.logger.Error("failed to list services", "error", err)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if services == nil {
		services = []*Service{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": services, "count": len(services)})
}

// ListDoctorPricing handles GET /catalog/doctors/{doctorID}/pricing requests.
func (h *Handler) ListDoctorPricing(w http.ResponseWriter, r *http.Request) {
	doctorID := chi.URLParam(r, "doctorID")
	if doctorID == "" {
		http.Error(w, "missing doctor id", http.StatusBadRequest)
		return
	}
	pricing, err := h.repo.ListDoctorPricing(r.Context(), doctorID)
	if err != nil {
		h.logger.Error("failed to list doctor pricing", "error", err, "doctor_id", doctorID)
		http.Error(w, "failed to list pricing", http.StatusInternalServerError)
		return
	}
	if pricing == nil {
		pricing = []*DoctorPrice{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"pricing": pricing, "count": len(pricing)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
