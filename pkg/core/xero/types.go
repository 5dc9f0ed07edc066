// Package xero parses exported accounting spreadsheets (Profit & Loss and
// General Ledger detail, xlsx or CSV) into normalized in-memory tables.
//
// Parsing is deliberately tolerant: malformed individual cells degrade to zero
// and bad month headers fall back to raw strings. The only fatal condition is
// a missing header row, which aborts the whole file with no partial result.
package xero

// MonthKey is a "YYYY-MM" month identifier. Keys that could not be parsed
// from the source header keep the raw header string so column order survives.
type MonthKey = string

// Section is the raw P&L section an account was filed under, inferred from
// the nearest preceding section-header row.
type Section string

const (
	SectionTradingIncome     Section = "trading_income"
	SectionCostOfSales       Section = "cost_of_sales"
	SectionOtherIncome       Section = "other_income"
	SectionOperatingExpenses Section = "operating_expenses"
	SectionUnknown           Section = "unknown"
)

// Account is one P&L account row. Values are aligned to PL.Months; missing
// cells are zero-filled, never absent.
type Account struct {
	Name    string    `json:"name"`
	Section Section   `json:"section"`
	Values  []float64 `json:"values"`
	Total   float64   `json:"total"`
}

// PL is a parsed Profit & Loss export. Created whole by the parser and
// replaced wholesale on re-upload; never partially mutated.
type PL struct {
	Months      []MonthKey `json:"months"`
	MonthLabels []string   `json:"monthLabels"`
	Accounts    []Account  `json:"accounts"`
}

// GLTxn is one General Ledger transaction. Account references PL accounts by
// name but is not enforced. Amount is debit minus credit (positive = debit).
type GLTxn struct {
	Account     string  `json:"account"`
	Date        string  `json:"date"` // ISO date YYYY-MM-DD
	Source      string  `json:"source,omitempty"`
	Description string  `json:"description,omitempty"`
	Reference   string  `json:"reference,omitempty"`
	Debit       float64 `json:"debit"`
	Credit      float64 `json:"credit"`
	Amount      float64 `json:"amount"`
}

// GL is a parsed General Ledger detail export.
type GL struct {
	Txns []GLTxn `json:"txns"`
}
