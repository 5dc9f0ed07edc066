package ledger

import (
	"strconv"
	"strings"
	"unicode/utf16"

	"accounting_atlas/pkg/core/xero"
)

// hashString is the classic shift-accumulate string hash over UTF-16 code
// units with 32-bit wraparound, rendered as lowercase hex of the absolute
// value. Kept bit-compatible with stored override hashes.
func hashString(s string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 16)
}

// TxnHash is the stable content identity of a ledger transaction. Overrides
// are keyed by it, so two identical rows share one hash (and one override).
func TxnHash(txn xero.GLTxn) string {
	raw := strings.Join([]string{
		txn.Account,
		txn.Date,
		formatAmount(txn.Amount),
		txn.Description,
		txn.Reference,
		txn.Source,
	}, "|")
	return hashString(raw)
}

// formatAmount renders the amount the shortest-round-trip way so the hash is
// stable across parse/serialize cycles.
func formatAmount(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
