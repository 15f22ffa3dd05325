package billing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/brightsmile-labs/dental-portal-api/internal/identity"
	"github.com/brightsmile-labs/dental-portal-api/internal/storage"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// maxProofFormMemory bounds the in-memory portion of multipart parsing.
const maxProofFormMemory = 1 << 20

// Handler serves the invoice and payment endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a billing handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, logger: logger}
}

// ListInvoicesResponse is the response for listing invoices.
type ListInvoicesResponse struct {
	Invoices []*Invoice `json:"invoices"`
	Count    int        `json:"count"`
}

// ListInvoices handles GET /invoices requests. Patients see only their own
// invoices; clinicians may scope with ?patient_id=.
func (h *Handler) ListInvoices(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	patientID := r.URL.Query().Get("patient_id")
	if !user.IsClinician() {
		patientID = user.ID
	}

	invoices, err := h.service.ListInvoices(r.Context(), patientID)
	if err != nil {
		h.logger.Error("failed to list invoices", "error", err)
		http.Error(w, "failed to list invoices", http.StatusInternalServerError)
		return
	}
	if invoices == nil {
		invoices = []*Invoice{}
	}
	writeJSON(w, http.StatusOK, ListInvoicesResponse{Invoices: invoices, Count: len(invoices)})
}

// GetInvoice handles GET /invoices/{invoiceID} requests.
func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}

	inv, err := h.service.GetInvoice(r.Context(), chi.URLParam(r, "invoiceID"))
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get invoice", "error", err)
		http.Error(w, "failed to get invoice", http.StatusInternalServerError)
		return
	}
	if !user.IsClinician() && inv.PatientID != user.ID {
		http.Error(w, "invoice not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// SubmitPaymentResponse is the response for a recorded payment.
type SubmitPaymentResponse struct {
	Payment *Payment `json:"payment"`
	Invoice *Invoice `json:"invoice"`
}

// SubmitPayment handles POST /invoices/{invoiceID}/payments requests. The
// body is multipart/form-data with amount, method, reference_number, notes
// and an optional proof file field.
func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	invoiceID := chi.URLParam(r, "invoiceID")

	if !user.IsClinician() {
		inv, err := h.service.GetInvoice(r.Context(), invoiceID)
		if err != nil {
			if errors.Is(err, ErrInvoiceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			h.logger.Error("failed to get invoice", "error", err)
			http.Error(w, "failed to get invoice", http.StatusInternalServerError)
			return
		}
		if inv.PatientID != user.ID {
			http.Error(w, "invoice not found", http.StatusNotFound)
			return
		}
	}

	if err := r.ParseMultipartForm(maxProofFormMemory); err != nil {
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue("amount")), 64)
	if err != nil {
		http.Error(w, "invalid amount", http.StatusBadRequest)
		return
	}
	req := &SubmitPaymentRequest{
		Amount:          amount,
		Method:          strings.TrimSpace(r.FormValue("method")),
		ReferenceNumber: strings.TrimSpace(r.FormValue("reference_number")),
		Notes:           strings.TrimSpace(r.FormValue("notes")),
	}
	if req.Method == "" {
		req.Method = "bank_transfer"
	}

	var proof *ProofFile
	if file, header, err := r.FormFile("proof"); err == nil {
		defer file.Close()
		proof = &ProofFile{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		}
	}

	payment, inv, err := h.service.SubmitPayment(r.Context(), user.ID, invoiceID, req, proof)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvoiceNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidAmount),
			errors.Is(err, ErrAmountExceedsBalance),
			errors.Is(err, ErrMissingProofOrReference),
			errors.Is(err, storage.ErrProofTooLarge),
			errors.Is(err, storage.ErrProofBadType):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to submit payment", "invoice_id", invoiceID, "error", err)
			http.Error(w, "failed to submit payment", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusCreated, SubmitPaymentResponse{Payment: payment, Invoice: inv})
}

// ListPaymentsResponse is the response for listing an invoice's payments.
type ListPaymentsResponse struct {
	Payments []*Payment `json:"payments"`
	Count    int        `json:"count"`
}

// ListPayments handles GET /invoices/{invoiceID}/payments and
// GET /payments?invoice_id= requests.
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthenticated", http.StatusUnauthorized)
		return
	}
	invoiceID := chi.URLParam(r, "invoiceID")
	if invoiceID == "" {
		invoiceID = r.URL.Query().Get("invoice_id")
	}
	if invoiceID == "" {
		http.Error(w, "missing invoice id", http.StatusBadRequest)
		return
	}

	if !user.IsClinician() {
		inv, err := h.service.GetInvoice(r.Context(), invoiceID)
		if err != nil {
			if errors.Is(err, ErrInvoiceNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			h.logger.Error("failed to get invoice", "error", err)
			http.Error(w, "failed to get invoice", http.StatusInternalServerError)
			return
		}
		if inv.PatientID != user.ID {
			http.Error(w, "invoice not found", http.StatusNotFound)
			return
		}
	}

	payments, err := h.service.ListPayments(r.Context(), invoiceID)
	if err != nil {
		h.logger.Error("failed to list payments", "invoice_id", invoiceID, "error", err)
		http.Error(w, "failed to list payments", http.StatusInternalServerError)
		return
	}
	if payments == nil {
		payments = []*Payment{}
	}
	writeJSON(w, http.StatusOK, ListPaymentsResponse{Payments: payments, Count: len(payments)})
}

// Approve handles POST /payments/{paymentID}/approve requests.
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, ApprovalApproved)
}

// Reject handles POST /payments/{paymentID}/reject requests.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.setApproval(w, r, ApprovalRejected)
}

func (h *Handler) setApproval(w http.ResponseWriter, r *http.Request, status string) {
	paymentID := chi.URLParam(r, "paymentID")
	payment, err := h.service.SetApproval(r.Context(), paymentID, status)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to set payment approval", "payment_id", paymentID, "error", err)
		http.Error(w, "failed to update payment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, payment)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
