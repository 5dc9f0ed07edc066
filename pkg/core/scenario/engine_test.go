package scenario

import (
	"math"
	"reflect"
	"testing"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/xero"
)

func scenarioPL() *xero.PL {
	return &xero.PL{
		Months:      []string{"2025-07", "2025-08", "2025-09"},
		MonthLabels: []string{"Jul 2025", "Aug 2025", "Sep 2025"},
		Accounts: []xero.Account{
			{Name: "TMS Revenue", Section: xero.SectionTradingIncome, Values: []float64{200, 220, 240}},
			{Name: "Consultation Fees", Section: xero.SectionTradingIncome, Values: []float64{100, 100, 100}},
			{Name: "Other Revenue", Section: xero.SectionTradingIncome, Values: []float64{700, 680, 660}},
			{Name: "Radiology", Section: xero.SectionCostOfSales, Values: []float64{150, 150, 150}},
			{Name: "Rent", Section: xero.SectionOperatingExpenses, Values: []float64{500, 500, 500}},
		},
	}
}

func baseTotals(pl *xero.PL) dream.Totals {
	return dream.ComputeXeroTotals(pl)
}

func checkNet(t *testing.T, totals dream.Totals) {
	t.Helper()
	for i := range totals.Net {
		want := totals.Revenue[i] - totals.Cogs[i] - totals.Opex[i]
		if math.Abs(totals.Net[i]-want) > 1e-9 {
			t.Errorf("net[%d] = %f, want %f", i, totals.Net[i], want)
		}
	}
}

func TestApply_DisabledIsIdentity(t *testing.T) {
	pl := scenarioPL()
	base := baseTotals(pl)

	in := DefaultInputs()
	in.Enabled = false
	in.CbaMonthlyCount = 99
	in.RentEnabled = true
	in.RentFixedMonthly = 1

	got := Apply(base, pl, in)
	if !reflect.DeepEqual(got, base) {
		t.Errorf("disabled scenario must pass base through: %+v", got)
	}
}

func TestApply_RemovesMatchedLegacyStreams(t *testing.T) {
	pl := scenarioPL()
	base := baseTotals(pl)

	in := DefaultInputs()
	in.Enabled = true
	in.LegacyTmsAccountMatchers = []string{"tms"}
	in.AddBundleCostsToScenario = false

	got := Apply(base, pl, in)
	// 200+100+700 base revenue, minus the 200 TMS stream
	if math.Abs(got.Revenue[0]-800) > 1e-9 {
		t.Errorf("revenue[0] = %f, want 800", got.Revenue[0])
	}
	// consults stay unless folded into the bundle
	in.IncludeDoctorConsultsInBundle = true
	in.LegacyConsultAccountMatchers = []string{"consult"}
	got = Apply(base, pl, in)
	if math.Abs(got.Revenue[0]-700) > 1e-9 {
		t.Errorf("revenue[0] = %f, want 700 with consults folded in", got.Revenue[0])
	}
	checkNet(t, got)

	// the inputs themselves are never mutated
	if math.Abs(base.Revenue[0]-1000) > 1e-9 {
		t.Errorf("base mutated: %f", base.Revenue[0])
	}
	if math.Abs(pl.Accounts[0].Values[0]-200) > 1e-9 {
		t.Errorf("pl mutated: %f", pl.Accounts[0].Values[0])
	}
}

func TestApply_AddsBundleEconomics(t *testing.T) {
	pl := scenarioPL()
	base := baseTotals(pl)

	in := DefaultInputs()
	in.Enabled = true
	in.LegacyTmsAccountMatchers = nil
	in.CbaMonthlyCount = 10
	in.CbaPrice = 100
	in.ProgramMonthlyCount = 5
	in.ProgramPrice = 200
	in.AddBundleCostsToScenario = true

	got := Apply(base, pl, in)
	// 10*100 + 5*200 = 2000 on top of every month
	for i := range got.Revenue {
		want := base.Revenue[i] + 2000
		if math.Abs(got.Revenue[i]-want) > 1e-9 {
			t.Errorf("revenue[%d] = %f, want %f", i, got.Revenue[i], want)
		}
	}
	if got.Cogs[0] <= base.Cogs[0] {
		t.Error("bundle costs should raise cogs when enabled")
	}

	in.AddBundleCostsToScenario = false
	got = Apply(base, pl, in)
	if math.Abs(got.Cogs[0]-base.Cogs[0]) > 1e-9 {
		t.Errorf("cogs must be untouched with bundle costs off: %f", got.Cogs[0])
	}
	checkNet(t, got)
}

func TestApply_InvalidMatcherIsDropped(t *testing.T) {
	pl := scenarioPL()
	base := baseTotals(pl)

	in := DefaultInputs()
	in.Enabled = true
	in.LegacyTmsAccountMatchers = []string{"[", "  "}
	in.AddBundleCostsToScenario = false

	got := Apply(base, pl, in)
	if math.Abs(got.Revenue[0]-base.Revenue[0]) > 1e-9 {
		t.Errorf("no valid matchers means no removal, got %f", got.Revenue[0])
	}
}

func TestEffectiveProgramCount_MachineCapacity(t *testing.T) {
	in := DefaultInputs()
	in.ProgramMonthlyCount = 7

	if got := EffectiveProgramCount(in); got != 7 {
		t.Errorf("manual count = %f, want 7", got)
	}

	in.MachinesEnabled = true
	in.TmsMachines = 1
	in.PatientsPerMachinePerWeek = 4
	in.WeeksPerYear = 52
	in.Utilisation = 0.65
	want := 1 * 4 * (52.0 / 12.0) * 0.65
	if got := EffectiveProgramCount(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("derived count = %f, want %f (must stay unrounded)", got, want)
	}

	// out-of-range utilisation is clamped
	in.Utilisation = 1.7
	want = 1 * 4 * (52.0 / 12.0)
	if got := EffectiveProgramCount(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("clamped count = %f, want %f", got, want)
	}
}

func TestDoctorPayoutFactor(t *testing.T) {
	if got := DoctorPayoutFactor(15); math.Abs(got-0.85) > 1e-9 {
		t.Errorf("factor(15) = %f", got)
	}
	if got := DoctorPayoutFactor(-5); got != 1 {
		t.Errorf("factor(-5) = %f, want clamp to 1", got)
	}
	if got := DoctorPayoutFactor(250); got != 0 {
		t.Errorf("factor(250) = %f, want clamp to 0", got)
	}
}

func TestProgCostPerProgram_SixWeekConsultMirrored(t *testing.T) {
	in := Inputs{
		DoctorServiceFeePct: 15,
		ProgInclude6WkConsult: true,
		Prog6WkConsultFee:     450,
		Prog6WkConsultCount:   1,
	}
	// 450 * 0.85 * 1, doubled for the 6-month review
	want := 450 * 0.85 * 2
	if got := ProgCostPerProgram(in); math.Abs(got-want) > 1e-9 {
		t.Errorf("program cost = %f, want %f", got, want)
	}
}

func TestApply_RentLever(t *testing.T) {
	pl := scenarioPL()
	base := baseTotals(pl)

	in := DefaultInputs()
	in.Enabled = true
	in.LegacyTmsAccountMatchers = nil
	in.RentEnabled = true
	in.RentMode = RentFixed
	in.RentFixedMonthly = 300

	got := Apply(base, pl, in)
	for i := range got.Opex {
		// matched rent of 500 replaced by 300
		want := base.Opex[i] - 200
		if math.Abs(got.Opex[i]-want) > 1e-9 {
			t.Errorf("fixed opex[%d] = %f, want %f", i, got.Opex[i], want)
		}
	}

	in.RentMode = RentPercent
	in.RentPercentPerMonth = 10
	got = Apply(base, pl, in)
	if math.Abs(got.Opex[0]-base.Opex[0]) > 1e-9 {
		t.Errorf("percent mode month 0 should be unchanged: %f", got.Opex[0])
	}
	wantDelta := 500*1.1 - 500
	if math.Abs(got.Opex[1]-(base.Opex[1]+wantDelta)) > 1e-9 {
		t.Errorf("percent opex[1] = %f, want +%f", got.Opex[1], wantDelta)
	}
	checkNet(t, got)
}

func TestMriDefaultForState(t *testing.T) {
	if MriDefaultForState(StateNSWQLD) != 380 || MriDefaultForState(StateWA) != 750 || MriDefaultForState(StateVIC) != 0 {
		t.Error("state MRI defaults wrong")
	}
}
