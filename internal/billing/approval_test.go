package billing

import "testing"

func TestDeriveApprovalStatusColumnWins(t *testing.T) {
	p := &Payment{
		ApprovalStatus: "approved",
		LegacyApproval: "rejected",
		Notes:          "Payment proof: https://x (Rejected by doctor)",
	}
	if got := DeriveApprovalStatus(p); got != ApprovalApproved {
		t.Fatalf("expected dedicated column to win, got %s", got)
	}
}

func TestDeriveApprovalStatusLegacyColumn(t *testing.T) {
	p := &Payment{LegacyApproval: " Rejected ", Notes: "(Approved by doctor)"}
	if got := DeriveApprovalStatus(p); got != ApprovalRejected {
		t.Fatalf("expected legacy column before notes, got %s", got)
	}
}

func TestDeriveApprovalStatusFromNotes(t *testing.T) {
	tests := []struct {
		notes string
		want  string
	}{
		{"Payment proof: https://bucket/p.pdf (Approved by doctor)", ApprovalApproved},
		{"Payment proof: https://bucket/p.pdf(Approved by doctor)", ApprovalApproved},
		{"paid in cash (Approved)", ApprovalApproved},
		{"Payment proof: https://bucket/p.pdf (Rejected by doctor)", ApprovalRejected},
		{"bank transfer (Rejected)", ApprovalRejected},
		{"no annotation here", ApprovalPending},
		{"", ApprovalPending},
	}
	for _, tt := range tests {
		if got := DeriveApprovalStatus(&Payment{Notes: tt.notes}); got != tt.want {
			t.Errorf("DeriveApprovalStatus(notes=%q) = %s, want %s", tt.notes, got, tt.want)
		}
	}
}

func TestDeriveApprovalStatusIdempotent(t *testing.T) {
	// Re-deriving from a notes string that carries the annotation written
	// for a derived status yields the same status.
	for _, status := range []string{ApprovalApproved, ApprovalRejected} {
		notes := "Payment proof: https://bucket/p.pdf" + AnnotationForStatus(status)
		derived := DeriveApprovalStatus(&Payment{Notes: notes})
		if derived != status {
			t.Fatalf("first derivation: got %s, want %s", derived, status)
		}
		again := DeriveApprovalStatus(&Payment{Notes: "x" + AnnotationForStatus(derived)})
		if again != derived {
			t.Errorf("derivation not idempotent: %s -> %s", derived, again)
		}
	}
}

func TestExtractProofURLRoundTrip(t *testing.T) {
	url := "https://portal-proofs.s3.ap-southeast-1.amazonaws.com/payment-proofs/u-1/1700000000-receipt.pdf"
	variants := []string{
		" (Approved by doctor)",
		"(Approved by doctor)",
		" (Approved)",
		"(Approved)",
		" (Rejected by doctor)",
		"(Rejected by doctor)",
		" (Rejected)",
		"(Rejected)",
		"",
	}
	for _, v := range variants {
		notes := proofPrefix + url + v
		if got := ExtractProofURL(notes); got != url {
			t.Errorf("ExtractProofURL(%q) = %q, want %q", notes, got, url)
		}
	}
}

func TestExtractProofURLNoProof(t *testing.T) {
	if got := ExtractProofURL("GCash ref 12345 (Approved by doctor)"); got != "" {
		t.Fatalf("expected empty url, got %q", got)
	}
}
