package dream

import (
	"math"
	"testing"

	"accounting_atlas/pkg/core/xero"
)

func samplePL() *xero.PL {
	return &xero.PL{
		Months:      []string{"2025-07", "2025-08", "2025-09"},
		MonthLabels: []string{"Jul 2025", "Aug 2025", "Sep 2025"},
		Accounts: []xero.Account{
			{Name: "TMS Revenue", Section: xero.SectionTradingIncome, Values: []float64{1000, 1100, 1200}, Total: 3300},
			{Name: "Sundry Income", Section: xero.SectionOtherIncome, Values: []float64{10, 10, 10}, Total: 30},
			{Name: "Radiology", Section: xero.SectionCostOfSales, Values: []float64{300, 330, 360}, Total: 990},
			{Name: "Rent", Section: xero.SectionOperatingExpenses, Values: []float64{500, 500, 500}, Total: 1500},
			{Name: "Depreciation - Equipment", Section: xero.SectionOperatingExpenses, Values: []float64{50, 50, 50}, Total: 150},
			{Name: "Suspense", Section: xero.SectionUnknown, Values: []float64{999, 999, 999}, Total: 2997},
		},
	}
}

func assertNetInvariant(t *testing.T, totals Totals) {
	t.Helper()
	for i := range totals.Net {
		want := totals.Revenue[i] - totals.Cogs[i] - totals.Opex[i]
		if math.Abs(totals.Net[i]-want) > 1e-9 {
			t.Errorf("net[%d] = %f, want %f", i, totals.Net[i], want)
		}
	}
}

func TestComputeXeroTotals(t *testing.T) {
	totals := ComputeXeroTotals(samplePL())

	if math.Abs(totals.Revenue[0]-1010) > 1e-9 {
		t.Errorf("revenue[0] = %f, want 1010", totals.Revenue[0])
	}
	if math.Abs(totals.Cogs[2]-360) > 1e-9 {
		t.Errorf("cogs[2] = %f, want 360", totals.Cogs[2])
	}
	if math.Abs(totals.Opex[0]-550) > 1e-9 {
		t.Errorf("opex[0] = %f, want 550 (unknown section must be excluded)", totals.Opex[0])
	}
	assertNetInvariant(t, totals)
}

func TestComputeDream_MappedAndDangling(t *testing.T) {
	tpl := testTemplate()
	tpl = SetLineMappings(tpl, "rev_a", []string{"TMS Revenue", "Ghost Account"})
	tpl = SetLineMappings(tpl, "rev_b", []string{"TMS Revenue"})

	computed := ComputeDream(samplePL(), tpl)

	// dangling reference contributes zero
	if math.Abs(computed.ByLineID["rev_a"][0]-1000) > 1e-9 {
		t.Errorf("rev_a[0] = %f, want 1000", computed.ByLineID["rev_a"][0])
	}
	// multi-mapping sums into both lines
	if math.Abs(computed.ByLineID["rev_b"][1]-1100) > 1e-9 {
		t.Errorf("rev_b[1] = %f, want 1100", computed.ByLineID["rev_b"][1])
	}
	// unmapped lines stay zeroed, aligned to months
	if got := computed.ByLineID["opex_a"]; len(got) != 3 || got[0] != 0 {
		t.Errorf("opex_a = %v", got)
	}
}

func TestComputeDreamTotals_SectionSubtreesOnly(t *testing.T) {
	tpl := testTemplate()
	tpl = SetLineMappings(tpl, "rev_a", []string{"TMS Revenue"})
	tpl = SetLineMappings(tpl, "cogs_a", []string{"Radiology"})
	tpl = SetLineMappings(tpl, "opex_a", []string{"Rent"})
	// a mapped line outside the section groups must not leak into totals
	tpl = AddGroup(tpl, "root", group("parked", "Parked"))
	tpl = AddLine(tpl, "parked", line("parked_line", "Parked Line"))
	tpl = SetLineMappings(tpl, "parked_line", []string{"Sundry Income"})

	pl := samplePL()
	computed := ComputeDream(pl, tpl)
	totals := ComputeDreamTotals(pl, tpl, computed)

	if math.Abs(totals.Revenue[0]-1000) > 1e-9 {
		t.Errorf("revenue[0] = %f, want 1000 (parked line excluded)", totals.Revenue[0])
	}
	if math.Abs(totals.Cogs[0]-300) > 1e-9 {
		t.Errorf("cogs[0] = %f, want 300", totals.Cogs[0])
	}
	if math.Abs(totals.Opex[0]-500) > 1e-9 {
		t.Errorf("opex[0] = %f, want 500", totals.Opex[0])
	}
	assertNetInvariant(t, totals)
}

func TestComputeDepAmort(t *testing.T) {
	da := ComputeDepAmort(samplePL())
	if math.Abs(da[0]-50) > 1e-9 {
		t.Errorf("depAmort[0] = %f, want 50", da[0])
	}

	// income accounts with matching names are ignored
	pl := samplePL()
	pl.Accounts = append(pl.Accounts, xero.Account{
		Name: "Amortised Income", Section: xero.SectionTradingIncome, Values: []float64{7, 7, 7},
	})
	da = ComputeDepAmort(pl)
	if math.Abs(da[0]-50) > 1e-9 {
		t.Errorf("depAmort must only scan operating expenses, got %f", da[0])
	}
}
