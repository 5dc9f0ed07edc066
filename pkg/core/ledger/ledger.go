package ledger

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"accounting_atlas/pkg/core/xero"
)

// MonthKeyFromDate truncates an ISO date to its "YYYY-MM" month key.
func MonthKeyFromDate(date string) xero.MonthKey {
	if len(date) < 7 {
		return date
	}
	return date[:7]
}

// Resolution is the outcome of treatment precedence for one transaction.
type Resolution struct {
	Treatment Treatment
	Deferral  *DeferralConfig
}

// ResolveTreatment applies the precedence chain: explicit override, then an
// enabled doctor rule, then OPERATING. For DEFERRED the deferral parameters
// fall through the same chain, defaulting to 12 months starting at the
// transaction's own month, counted in operating KPIs.
func ResolveTreatment(txn xero.GLTxn, override *TxnOverride, rule *DoctorRule) Resolution {
	treatment := TreatmentOperating
	if rule != nil && rule.DefaultTreatment != "" {
		treatment = rule.DefaultTreatment
	}
	if override != nil && override.Treatment != "" {
		treatment = override.Treatment
	}

	if treatment != TreatmentDeferred {
		return Resolution{Treatment: treatment}
	}

	deferral := &DeferralConfig{
		Method:                 "STRAIGHT_LINE",
		StartMonth:             MonthKeyFromDate(txn.Date),
		Months:                 12,
		IncludeInOperatingKPIs: true,
	}
	if rule != nil {
		if rule.DeferralStartMonth != "" {
			deferral.StartMonth = rule.DeferralStartMonth
		}
		if rule.DeferralMonths != nil {
			deferral.Months = *rule.DeferralMonths
		}
		if rule.DeferralIncludeInOperatingKPIs != nil {
			deferral.IncludeInOperatingKPIs = *rule.DeferralIncludeInOperatingKPIs
		}
	}
	if override != nil {
		if override.DeferralStartMonth != "" {
			deferral.StartMonth = override.DeferralStartMonth
		}
		if override.DeferralMonths != nil {
			deferral.Months = *override.DeferralMonths
		}
		if override.DeferralIncludeInOperatingKPIs != nil {
			deferral.IncludeInOperatingKPIs = *override.DeferralIncludeInOperatingKPIs
		}
	}
	return Resolution{Treatment: treatment, Deferral: deferral}
}

// BuildDeferralSchedule spreads an amount straight-line over the configured
// months. It works in integer cents so the schedule always sums back to the
// source amount exactly; any rounding remainder lands in the final month.
func BuildDeferralSchedule(amount float64, config DeferralConfig) []ScheduleEntry {
	months := config.Months
	if months < 1 {
		months = 1
	}
	cents := int64(math.Round(amount * 100))
	base := cents / int64(months)
	remainder := cents - base*int64(months)

	startYear, startMonth := splitMonthKey(config.StartMonth)

	out := make([]ScheduleEntry, 0, months)
	for i := 0; i < months; i++ {
		d := time.Date(startYear, time.Month(startMonth+i), 1, 0, 0, 0, 0, time.UTC)
		key := fmt.Sprintf("%04d-%02d", d.Year(), int(d.Month()))
		centsValue := base
		if i == months-1 {
			centsValue += remainder
		}
		out = append(out, ScheduleEntry{Month: key, Amount: float64(centsValue) / 100})
	}
	return out
}

func splitMonthKey(key xero.MonthKey) (year, month int) {
	parts := strings.SplitN(string(key), "-", 2)
	year, _ = strconv.Atoi(parts[0])
	month = 1
	if len(parts) > 1 {
		if m, err := strconv.Atoi(parts[1]); err == nil {
			month = m
		}
	}
	return year, month
}

// BuildEffectiveLedger resolves every transaction's treatment and expands the
// results: EXCLUDE drops the row, DEFERRED fans out into one row per schedule
// month (keyed "<hash>-def-<idx>"), everything else passes through with its
// resolved classification attached.
func BuildEffectiveLedger(txns []xero.GLTxn, overrides []TxnOverride, rules []DoctorRule) []EffectiveTxn {
	overrideMap := make(map[string]*TxnOverride, len(overrides))
	for i := range overrides {
		if overrides[i].Hash != "" {
			overrideMap[overrides[i].Hash] = &overrides[i]
		}
	}
	ruleMap := make(map[string]*DoctorRule, len(rules))
	for i := range rules {
		if rules[i].Enabled {
			ruleMap[rules[i].ContactID] = &rules[i]
		}
	}

	effective := make([]EffectiveTxn, 0, len(txns))
	for _, txn := range txns {
		key := TxnHash(txn)
		month := MonthKeyFromDate(txn.Date)
		doctorLabel := InferDoctorLabel(txn)
		doctorContactID := ""
		var rule *DoctorRule
		if doctorLabel != "" {
			doctorContactID = NormalizeContactID(doctorLabel)
			rule = ruleMap[doctorContactID]
		}
		resolved := ResolveTreatment(txn, overrideMap[key], rule)

		if resolved.Treatment == TreatmentExclude {
			continue
		}

		base := EffectiveTxn{
			GLTxn:           txn,
			Key:             key,
			Month:           month,
			Treatment:       resolved.Treatment,
			NonOperating:    resolved.Treatment == TreatmentNonOperating,
			Deferral:        resolved.Deferral,
			OriginalDate:    txn.Date,
			DoctorContactID: doctorContactID,
			DoctorLabel:     doctorLabel,
			BillID:          billID(txn, key),
			IsBill:          IsAPBillTxn(txn) && !IsPaymentTxn(txn),
			IsPayment:       IsPaymentTxn(txn),
		}

		if resolved.Treatment == TreatmentDeferred && resolved.Deferral != nil {
			for idx, entry := range BuildDeferralSchedule(txn.Amount, *resolved.Deferral) {
				row := base
				row.Amount = entry.Amount
				row.Date = string(entry.Month) + "-01"
				row.Key = fmt.Sprintf("%s-def-%d", key, idx)
				row.Month = entry.Month
				row.NonOperating = !resolved.Deferral.IncludeInOperatingKPIs
				effective = append(effective, row)
			}
			continue
		}

		effective = append(effective, base)
	}
	return effective
}

func billID(txn xero.GLTxn, key string) string {
	if txn.Reference != "" {
		return txn.Reference
	}
	if txn.Description != "" {
		return txn.Description
	}
	return key
}

// BuildEffectivePL rebuilds the monthly P&L from effective ledger rows.
// Accounts that never appear in the ledger keep their imported values.
// Ledger amounts are debit-minus-credit, so income-section amounts are sign
// flipped to read as positive revenue.
func BuildEffectivePL(pl *xero.PL, rows []EffectiveTxn, includeNonOperating bool) *xero.PL {
	monthIndex := make(map[xero.MonthKey]int, len(pl.Months))
	for i, m := range pl.Months {
		monthIndex[m] = i
	}
	sectionByAccount := make(map[string]xero.Section, len(pl.Accounts))
	for _, a := range pl.Accounts {
		sectionByAccount[a.Name] = a.Section
	}

	rebuilt := map[string][]float64{}
	for _, row := range rows {
		if !includeNonOperating && row.NonOperating {
			continue
		}
		idx, ok := monthIndex[row.Month]
		if !ok {
			continue
		}
		vals, ok := rebuilt[row.Account]
		if !ok {
			vals = make([]float64, len(pl.Months))
			rebuilt[row.Account] = vals
		}
		amount := row.Amount
		switch sectionByAccount[row.Account] {
		case xero.SectionTradingIncome, xero.SectionOtherIncome:
			amount = -amount
		}
		vals[idx] += amount
	}

	out := &xero.PL{
		Months:      pl.Months,
		MonthLabels: pl.MonthLabels,
		Accounts:    make([]xero.Account, len(pl.Accounts)),
	}
	for i, a := range pl.Accounts {
		next := a
		if vals, ok := rebuilt[a.Name]; ok {
			next.Values = vals
		}
		var total float64
		for _, v := range next.Values {
			total += v
		}
		next.Total = total
		out.Accounts[i] = next
	}
	return out
}
