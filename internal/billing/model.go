package billing

import "time"

// Invoice statuses.
const (
	InvoicePending = "pending"
	InvoicePartial = "partial"
	InvoicePaid    = "paid"
)

// Doctor approval statuses for payments.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Invoice is a bill issued to a patient.
type Invoice struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	PatientID     string         `json:"patient_id"`
	IssueDate     time.Time      `json:"issue_date"`
	DueDate       *time.Time     `json:"due_date,omitempty"`
	TotalAmount   float64        `json:"total_amount"`
	AmountPaid    float64        `json:"amount_paid"`
	Status        string         `json:"status"`
	Items         []*InvoiceItem `json:"items,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// Remaining returns the unpaid balance.
func (i *Invoice) Remaining() float64 {
	return i.TotalAmount - i.AmountPaid
}

// InvoiceItem is one line on an invoice.
type InvoiceItem struct {
	ID          string  `json:"id"`
	InvoiceID   string  `json:"invoice_id"`
	ServiceName string  `json:"service_name"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
}

// Payment is a submitted payment against an invoice.
//
// ApprovalStatus is the source of truth for doctor approval. Legacy rows
// predate that column: some carry the status in approval_status, the oldest
// embed an annotation phrase in the free-text notes. DeriveApprovalStatus
// reads through all three in order.
type Payment struct {
	ID              string    `json:"id"`
	InvoiceID       string    `json:"invoice_id"`
	Amount          float64   `json:"amount"`
	Method          string    `json:"method"`
	ReferenceNumber string    `json:"reference_number"`
	Notes           string    `json:"notes,omitempty"`
	ProofURL        string    `json:"proof_url,omitempty"`
	ApprovalStatus  string    `json:"doctor_approval_status"`
	LegacyApproval  string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubmitPaymentRequest carries the parsed form fields of a payment
// submission. Proof file handling happens in the handler.
type SubmitPaymentRequest struct {
	Amount          float64
	Method          string
	ReferenceNumber string
	Notes           string
}
