// Package ledger resolves per-transaction treatments over a parsed general
// ledger: user overrides and doctor-level rules decide whether each
// transaction stays operating, is reclassified, deferred across months, or
// excluded. The result feeds an "effective" P&L rebuilt from the ledger.
package ledger

import "accounting_atlas/pkg/core/xero"

// Treatment classifies how a transaction participates in reporting.
type Treatment string

const (
	TreatmentOperating    Treatment = "OPERATING"
	TreatmentNonOperating Treatment = "NON_OPERATING"
	TreatmentDeferred     Treatment = "DEFERRED"
	TreatmentExclude      Treatment = "EXCLUDE"
)

// DeferralConfig describes a straight-line spread of a transaction amount
// across consecutive calendar months.
type DeferralConfig struct {
	Method                 string        `json:"method"` // always STRAIGHT_LINE
	StartMonth             xero.MonthKey `json:"startMonth"`
	Months                 int           `json:"months"`
	IncludeInOperatingKPIs bool          `json:"includeInOperatingKPIs"`
}

// TxnOverride pins a treatment to one transaction, addressed by its content
// hash. Unset optional fields fall through to the doctor rule, then to the
// defaults.
type TxnOverride struct {
	Hash                           string    `json:"hash"`
	Treatment                      Treatment `json:"treatment,omitempty"`
	DeferralStartMonth             string    `json:"deferral_start_month,omitempty"`
	DeferralMonths                 *int      `json:"deferral_months,omitempty"`
	DeferralIncludeInOperatingKPIs *bool     `json:"deferral_include_in_operating_kpis,omitempty"`
	Note                           string    `json:"note,omitempty"`
}

// DoctorRule applies a default treatment to every transaction attributed to
// one doctor contact. Disabled rules are ignored.
type DoctorRule struct {
	ContactID                      string    `json:"contact_id"`
	Label                          string    `json:"label,omitempty"`
	Enabled                        bool      `json:"enabled"`
	DefaultTreatment               Treatment `json:"default_treatment,omitempty"`
	DeferralStartMonth             string    `json:"deferral_start_month,omitempty"`
	DeferralMonths                 *int      `json:"deferral_months,omitempty"`
	DeferralIncludeInOperatingKPIs *bool     `json:"deferral_include_in_operating_kpis,omitempty"`
}

// EffectiveTxn is a ledger transaction after treatment resolution. A deferred
// source transaction expands into several of these, one per schedule month.
type EffectiveTxn struct {
	xero.GLTxn

	Key             string          `json:"key"`
	Month           xero.MonthKey   `json:"month"`
	Treatment       Treatment       `json:"treatment"`
	NonOperating    bool            `json:"nonOperating"`
	Deferral        *DeferralConfig `json:"deferral,omitempty"`
	OriginalDate    string          `json:"originalDate,omitempty"`
	DoctorContactID string          `json:"doctorContactId,omitempty"`
	DoctorLabel     string          `json:"doctorLabel,omitempty"`
	BillID          string          `json:"billId,omitempty"`
	IsBill          bool            `json:"isBill"`
	IsPayment       bool            `json:"isPayment"`
}

// ScheduleEntry is one month's slice of a deferred amount.
type ScheduleEntry struct {
	Month  xero.MonthKey `json:"month"`
	Amount float64       `json:"amount"`
}
