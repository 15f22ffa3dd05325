package billing

import "strings"

// proofPrefix introduces a proof URL embedded in legacy payment notes.
const proofPrefix = "Payment proof: "

// Legacy approval annotations, as historically appended to payment notes.
// Order matters: the "by doctor" variants must be checked before the bare
// ones so the bare phrases do not shadow them during stripping.
var approvedAnnotations = []string{
	" (Approved by doctor)",
	"(Approved by doctor)",
	" (Approved)",
	"(Approved)",
}

var rejectedAnnotations = []string{
	" (Rejected by doctor)",
	"(Rejected by doctor)",
	" (Rejected)",
	"(Rejected)",
}

// DeriveApprovalStatus resolves a payment's doctor approval through the
// compatibility chain: the dedicated column, then the legacy column, then
// annotation phrases embedded in the notes. Defaults to pending.
func DeriveApprovalStatus(p *Payment) string {
	if s := normalizeApproval(p.ApprovalStatus); s != "" {
		return s
	}
	if s := normalizeApproval(p.LegacyApproval); s != "" {
		return s
	}
	for _, a := range approvedAnnotations {
		if strings.Contains(p.Notes, a) {
			return ApprovalApproved
		}
	}
	for _, a := range rejectedAnnotations {
		if strings.Contains(p.Notes, a) {
			return ApprovalRejected
		}
	}
	return ApprovalPending
}

func normalizeApproval(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ApprovalApproved:
		return ApprovalApproved
	case ApprovalRejected:
		return ApprovalRejected
	case ApprovalPending:
		return ApprovalPending
	}
	return ""
}

// AnnotationForStatus returns the notes annotation historically written for
// a status. Used only to keep legacy readers working; new rows carry the
// status in the dedicated column.
func AnnotationForStatus(status string) string {
	switch status {
	case ApprovalApproved:
		return " (Approved by doctor)"
	case ApprovalRejected:
		return " (Rejected by doctor)"
	}
	return ""
}

// ExtractProofURL recovers the upload URL from a legacy notes string of the
// form "Payment proof: <url>", possibly followed by an approval annotation.
// Returns "" when the notes carry no proof.
func ExtractProofURL(notes string) string {
	_, rest, found := strings.Cut(notes, proofPrefix)
	if !found {
		return ""
	}
	for _, a := range approvedAnnotations {
		if idx := strings.Index(rest, a); idx >= 0 {
			rest = rest[:idx]
		}
	}
	for _, a := range rejectedAnnotations {
		if idx := strings.Index(rest, a); idx >= 0 {
			rest = rest[:idx]
		}
	}
	return strings.TrimSpace(rest)
}
