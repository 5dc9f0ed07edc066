package ledger

import (
	"regexp"
	"strings"

	"accounting_atlas/pkg/core/xero"
)

// DefaultDoctorPatterns seeds the doctor-rule UI with the clinic's known
// practitioner surnames.
var DefaultDoctorPatterns = []string{"ryan", "roytowski", "teo", "roberts", "ho", "lesslar"}

var doctorPattern = regexp.MustCompile(`(?i)(?:dr\.?\s+|doctor\s+)([a-zA-Z][a-zA-Z'\-]*(?:\s+[a-zA-Z][a-zA-Z'\-]*){0,2})`)

// InferDoctorLabel scans a transaction's description and reference for a
// "Dr <name>" mention and returns a normalised "Dr Name" label, or "" when
// no doctor is mentioned.
func InferDoctorLabel(txn xero.GLTxn) string {
	haystack := strings.TrimSpace(txn.Description + " " + txn.Reference)
	if haystack == "" {
		return ""
	}
	m := doctorPattern.FindStringSubmatch(haystack)
	if m == nil || m[1] == "" {
		return ""
	}
	return "Dr " + strings.TrimSpace(m[1])
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeContactID turns a doctor label into a stable slug used as the
// rule key ("Dr Jane Roytowski" becomes "dr-jane-roytowski").
func NormalizeContactID(label string) string {
	slug := nonAlnum.ReplaceAllString(strings.ToLower(label), "-")
	return strings.Trim(slug, "-")
}

// IsAPBillTxn reports whether the transaction looks like an accounts-payable
// bill line.
func IsAPBillTxn(txn xero.GLTxn) bool {
	return strings.Contains(strings.ToLower(txn.Account), "payable") ||
		strings.Contains(strings.ToLower(txn.Source), "bill") ||
		strings.Contains(strings.ToLower(txn.Description), "bill")
}

// IsPaymentTxn reports whether the transaction looks like a payment against
// a bill or invoice.
func IsPaymentTxn(txn xero.GLTxn) bool {
	return strings.Contains(strings.ToLower(txn.Source), "payment") ||
		strings.Contains(strings.ToLower(txn.Description), "payment")
}
