package billing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/brightsmile-labs/dental-portal-api/internal/observability/metrics"
	"github.com/brightsmile-labs/dental-portal-api/internal/storage"
	"github.com/brightsmile-labs/dental-portal-api/pkg/logging"
)

// ProofUploader stores payment proof files; satisfied by storage.ProofStore.
type ProofUploader interface {
	Enabled() bool
	Upload(ctx context.Context, userID, filename, contentType string, size int64, body io.Reader) (string, error)
}

// PaymentStore is the repository subset the service needs.
type PaymentStore interface {
	GetInvoice(ctx context.Context, id string) (*Invoice, error)
	ListInvoices(ctx context.Context, patientID string) ([]*Invoice, error)
	RecordPayment(ctx context.Context, invoiceID string, req *SubmitPaymentRequest, proofURL string) (*Payment, *Invoice, error)
	GetPayment(ctx context.Context, id string) (*Payment, error)
	ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error)
	SetApproval(ctx context.Context, paymentID, status string) error
}

// ProofFile is an uploaded proof attachment from a multipart submission.
type ProofFile struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Service implements payment submission and doctor approval on top of the
// repository and the proof store.
type Service struct {
	store   PaymentStore
	proofs  ProofUploader
	metrics *metrics.PortalMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService creates a billing service. proofs may be nil when proof storage
// is not configured.
func NewService(store PaymentStore, proofs ProofUploader, m *metrics.PortalMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{store: store, proofs: proofs, metrics: m, logger: logger, now: time.Now}
}

// GetInvoice returns an invoice with its line items.
func (s *Service) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	return s.store.GetInvoice(ctx, id)
}

// ListInvoices returns invoices, optionally scoped to one patient.
func (s *Service) ListInvoices(ctx context.Context, patientID string) ([]*Invoice, error) {
	return s.store.ListInvoices(ctx, patientID)
}

// SubmitPayment validates and records a payment against an invoice.
//
// A submission needs a reference number or a proof file; when the reference
// is absent one is synthesized from the submission timestamp. An oversize or
// wrong-type proof rejects the submission. A storage-side upload failure does
// not block the payment; the row is recorded without a proof URL and the
// failure is logged.
func (s *Service) SubmitPayment(ctx context.Context, userID, invoiceID string, req *SubmitPaymentRequest, proof *ProofFile) (*Payment, *Invoice, error) {
	if req.Amount <= 0 {
		s.metrics.ObservePayment("invalid")
		return nil, nil, ErrInvalidAmount
	}
	if req.ReferenceNumber == "" && proof == nil {
		s.metrics.ObservePayment("invalid")
		return nil, nil, ErrMissingProofOrReference
	}

	inv, err := s.store.GetInvoice(ctx, invoiceID)
	if err != nil {
		s.metrics.ObservePayment("error")
		return nil, nil, err
	}
	if req.Amount > inv.Remaining() {
		s.metrics.ObservePayment("rejected")
		return nil, nil, ErrAmountExceedsBalance
	}

	if req.ReferenceNumber == "" {
		req.ReferenceNumber = fmt.Sprintf("PAY-%d", s.now().UTC().Unix())
	}

	proofURL := ""
	if proof != nil {
		if s.proofs == nil || !s.proofs.Enabled() {
			s.logger.Warn("proof storage not configured, recording payment without proof", "invoice_id", invoiceID)
			s.metrics.ObserveProofUpload("skipped")
		} else {
			url, err := s.proofs.Upload(ctx, userID, proof.Filename, proof.ContentType, proof.Size, proof.Body)
			if err != nil {
				if errors.Is(err, storage.ErrProofTooLarge) || errors.Is(err, storage.ErrProofBadType) {
					s.metrics.ObserveProofUpload("rejected")
					return nil, nil, err
				}
				s.logger.Warn("proof upload failed, recording payment without proof",
					"invoice_id", invoiceID, "error", err)
				s.metrics.ObserveProofUpload("error")
			} else {
				proofURL = url
				s.metrics.ObserveProofUpload("ok")
			}
		}
	}

	payment, updated, err := s.store.RecordPayment(ctx, invoiceID, req, proofURL)
	if err != nil {
		s.metrics.ObservePayment("error")
		return nil, nil, err
	}
	s.metrics.ObservePayment("submitted")
	s.logger.Info("payment submitted",
		"payment_id", payment.ID, "invoice_id", invoiceID,
		"amount", payment.Amount, "invoice_status", updated.Status)
	return payment, updated, nil
}

// ListPayments returns payments for an invoice with the approval status
// resolved for legacy rows.
func (s *Service) ListPayments(ctx context.Context, invoiceID string) ([]*Payment, error) {
	payments, err := s.store.ListPayments(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		p.ApprovalStatus = DeriveApprovalStatus(p)
	}
	return payments, nil
}

// SetApproval records a doctor's approval decision on a payment and returns
// the updated row.
func (s *Service) SetApproval(ctx context.Context, paymentID, status string) (*Payment, error) {
	if status != ApprovalApproved && status != ApprovalRejected {
		return nil, fmt.Errorf("billing: invalid approval status %q", status)
	}
	if err := s.store.SetApproval(ctx, paymentID, status); err != nil {
		return nil, err
	}
	p, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	p.ApprovalStatus = DeriveApprovalStatus(p)
	s.logger.Info("payment approval updated", "payment_id", paymentID, "status", status)
	return p, nil
}
