package dream

import (
	"regexp"

	"accounting_atlas/pkg/core/xero"
)

// Computed holds per-line and per-account month series for one P&L/template
// pairing. Always derived, never stored.
type Computed struct {
	Months      []xero.MonthKey      `json:"months"`
	MonthLabels []string             `json:"monthLabels"`
	ByLineID    map[string][]float64 `json:"byLineId"`
	ByAccount   map[string][]float64 `json:"byAccountName"`
}

// Totals is the three-bucket monthly rollup. Net is always recomputed as
// revenue - cogs - opex by every producer.
type Totals struct {
	Revenue []float64 `json:"revenue"`
	Cogs    []float64 `json:"cogs"`
	Opex    []float64 `json:"opex"`
	Net     []float64 `json:"net"`
}

// NewTotals returns zeroed totals for n months.
func NewTotals(n int) Totals {
	return Totals{
		Revenue: make([]float64, n),
		Cogs:    make([]float64, n),
		Opex:    make([]float64, n),
		Net:     make([]float64, n),
	}
}

// Clone deep-copies the totals.
func (t Totals) Clone() Totals {
	out := Totals{
		Revenue: append([]float64{}, t.Revenue...),
		Cogs:    append([]float64{}, t.Cogs...),
		Opex:    append([]float64{}, t.Opex...),
		Net:     append([]float64{}, t.Net...),
	}
	return out
}

// RecomputeNet enforces the net invariant in place.
func (t *Totals) RecomputeNet() {
	for i := range t.Net {
		t.Net[i] = t.Revenue[i] - t.Cogs[i] - t.Opex[i]
	}
}

// ComputeDream sums each line's mapped account series across the P&L months.
// Accounts missing from the current P&L contribute zero, not an error.
func ComputeDream(pl *xero.PL, t *Template) *Computed {
	byAccount := map[string][]float64{}
	for _, a := range pl.Accounts {
		byAccount[a.Name] = a.Values
	}

	byLineID := map[string][]float64{}
	for _, ln := range FlattenLines(t.Root) {
		sums := make([]float64, len(pl.Months))
		for _, accName := range ln.MappedAccounts {
			vals, ok := byAccount[accName]
			if !ok {
				continue
			}
			for i := range sums {
				if i < len(vals) {
					sums[i] += vals[i]
				}
			}
		}
		byLineID[ln.ID] = sums
	}

	return &Computed{
		Months:      pl.Months,
		MonthLabels: pl.MonthLabels,
		ByLineID:    byLineID,
		ByAccount:   byAccount,
	}
}

// SectionBucket returns which totals bucket a raw section feeds, or nil for
// unknown sections (excluded from all three).
func SectionBucket(t *Totals, section xero.Section) []float64 {
	switch section {
	case xero.SectionTradingIncome, xero.SectionOtherIncome:
		return t.Revenue
	case xero.SectionCostOfSales:
		return t.Cogs
	case xero.SectionOperatingExpenses:
		return t.Opex
	}
	return nil
}

// ComputeXeroTotals buckets accounts by their raw section directly (the
// "Legacy" view). Unknown-section accounts are excluded.
func ComputeXeroTotals(pl *xero.PL) Totals {
	totals := NewTotals(len(pl.Months))
	for _, a := range pl.Accounts {
		target := SectionBucket(&totals, a.Section)
		if target == nil {
			continue
		}
		for i := range target {
			if i < len(a.Values) {
				target[i] += a.Values[i]
			}
		}
	}
	totals.RecomputeNet()
	return totals
}

// ComputeDreamTotals sums only the lines under the template's configured
// section groups. Lines outside those subtrees are silently excluded from
// totals even when mapped.
func ComputeDreamTotals(pl *xero.PL, t *Template, computed *Computed) Totals {
	n := len(pl.Months)
	totals := NewTotals(n)

	sections := t.Sections
	if sections == (SectionGroups{}) {
		sections = DefaultSectionGroups()
	}

	sumGroup := func(groupID string, into []float64) {
		g := FindGroup(t.Root, groupID)
		if g == nil {
			return
		}
		for _, ln := range FlattenLines(g) {
			vals := computed.ByLineID[ln.ID]
			for i := 0; i < n && i < len(vals); i++ {
				into[i] += vals[i]
			}
		}
	}

	sumGroup(sections.RevenueGroupID, totals.Revenue)
	sumGroup(sections.CogsGroupID, totals.Cogs)
	sumGroup(sections.OpexGroupID, totals.Opex)

	totals.RecomputeNet()
	return totals
}

var depAmortPattern = regexp.MustCompile(`(?i)(depreciat|amorti[sz]e|amorti[sz]ation|amort)`)

// ComputeDepAmort approximates Depreciation + Amortisation by scanning
// operating-expense account names for D&A keywords. Used only as an EBITDA
// add-back display value; returns zeros when no D&A accounts exist.
func ComputeDepAmort(pl *xero.PL) []float64 {
	out := make([]float64, len(pl.Months))
	for _, a := range pl.Accounts {
		if a.Section != xero.SectionOperatingExpenses {
			continue
		}
		if !depAmortPattern.MatchString(a.Name) {
			continue
		}
		for i := range out {
			if i < len(a.Values) {
				out[i] += a.Values[i]
			}
		}
	}
	return out
}
