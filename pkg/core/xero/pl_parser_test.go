package xero

import (
	"math"
	"testing"
)

const plFixture = `Profit and Loss,,,,
Demo Clinic,,,,
,,,,
Account,Jul 2025,Aug 2025,Sept 2025,Total
,,,,
Trading Income,,,,
cgTMS Program Revenue,"10,000",12000,(500),21500
Dr Ryan Medical Sales,4950,0,0,4950
Total Trading Income,14950,12000,-500,26450
,,,,
Cost of Sales,,,,
Radiology Services,380,$760,-,1140
Total Cost of Sales,380,760,0,1140
Gross Profit,14570,11240,-500,25310
,,,,
Operating Expenses,,,,
Management Fee,6066.97,6066.97,6066.97,18200.91
Depreciation,100,100,100,300
Zero Account,0,0,0,0
Total Operating Expenses,6166.97,6166.97,6166.97,18500.91
Net Profit,8403.03,5073.03,-6666.97,6809.09
`

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestParseProfitAndLoss_Fixture(t *testing.T) {
	pl, err := ParseProfitAndLoss([]byte(plFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(pl.Months) != 3 {
		t.Fatalf("expected 3 months, got %d (%v)", len(pl.Months), pl.Months)
	}
	if pl.Months[0] != "2025-07" || pl.Months[2] != "2025-09" {
		t.Errorf("month keys wrong: %v", pl.Months)
	}
	if pl.MonthLabels[2] != "Sep 2025" {
		t.Errorf("expected Sept header normalized to 'Sep 2025', got %q", pl.MonthLabels[2])
	}

	byName := map[string]Account{}
	for _, a := range pl.Accounts {
		byName[a.Name] = a
	}

	// summary and subtotal rows must never become accounts
	for _, forbidden := range []string{"Total Trading Income", "Total Operating Expenses", "Net Profit", "Gross Profit"} {
		if _, ok := byName[forbidden]; ok {
			t.Errorf("summary row %q leaked into accounts", forbidden)
		}
	}

	tms, ok := byName["cgTMS Program Revenue"]
	if !ok {
		t.Fatal("missing cgTMS Program Revenue account")
	}
	if tms.Section != SectionTradingIncome {
		t.Errorf("section = %s, want trading_income", tms.Section)
	}
	if !almostEqual(tms.Values[0], 10000) || !almostEqual(tms.Values[2], -500) {
		t.Errorf("tolerant numeric parse failed: %v", tms.Values)
	}
	if !almostEqual(tms.Total, 21500) {
		t.Errorf("total = %f, want 21500", tms.Total)
	}

	radiology := byName["Radiology Services"]
	if radiology.Section != SectionCostOfSales {
		t.Errorf("section = %s, want cost_of_sales", radiology.Section)
	}
	if !almostEqual(radiology.Values[1], 760) || !almostEqual(radiology.Values[2], 0) {
		t.Errorf("currency/dash cells mishandled: %v", radiology.Values)
	}

	mgmt := byName["Management Fee"]
	if mgmt.Section != SectionOperatingExpenses {
		t.Errorf("section = %s, want operating_expenses", mgmt.Section)
	}
	if !almostEqual(mgmt.Values[1], 6066.97) {
		t.Errorf("Management Fee Aug = %f, want 6066.97", mgmt.Values[1])
	}

	// explicit zeros are kept, spacer rows are dropped
	if _, ok := byName["Zero Account"]; !ok {
		t.Error("row of explicit zeros should be kept as an account")
	}

	for _, a := range pl.Accounts {
		if len(a.Values) != len(pl.Months) {
			t.Errorf("account %q values length %d != months %d", a.Name, len(a.Values), len(pl.Months))
		}
	}
}

func TestParseProfitAndLoss_HeaderNotFound(t *testing.T) {
	_, err := ParseProfitAndLoss([]byte("no,header,here\n1,2,3\n"))
	if err == nil {
		t.Fatal("expected error for missing header row")
	}
}

func TestNormalizeMonthLabel_Fallbacks(t *testing.T) {
	cases := []struct {
		in      string
		wantKey string
	}{
		{"Dec 2025", "2025-12"},
		{"Sept 2024", "2024-09"},
		{"December 2025", "2025-12"},
		{"12/1/2025", "2025-12"},
		{"46023", "2026-01"}, // excel serial for 2026-01-01
		{"Totally Bogus", "Totally Bogus"},
	}
	for _, c := range cases {
		key, _, ok := normalizeMonthLabel(c.in)
		if !ok {
			t.Errorf("normalizeMonthLabel(%q) not ok", c.in)
			continue
		}
		if key != c.wantKey {
			t.Errorf("normalizeMonthLabel(%q) key = %q, want %q", c.in, key, c.wantKey)
		}
	}
}

func TestToNumber_Tolerance(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"-":         0,
		"(500)":     -500,
		"$1,234.50": 1234.5,
		"12.5":      12.5,
		"garbage":   0,
	}
	for in, want := range cases {
		if got := toNumber(in); !almostEqual(got, want) {
			t.Errorf("toNumber(%q) = %f, want %f", in, got, want)
		}
	}
}
