package xero

import (
	"testing"
)

const glFixture = `General Ledger Detail,,,,,
Demo Clinic,,,,,
,,,,,
Date,Source,Description,Reference,Debit,Credit
,,,,,
Sales,,,,,
01/07/2025,Receivable Invoice,cgTMS Program - Dr Ryan,INV-0042,,"10,000.00"
15/07/2025,Receivable Invoice,Initial Consult,INV-0043,,650.00
Total Sales,,,,,10650.00
Net Movement,,,,,10650.00
,,,,,
Rent,,,,,
2025-07-03,Payable Invoice,July clinic rent,BILL-991,8250.00,
bad-date-row,Payable Invoice,should be skipped,,10.00,
Total Rent,,,,,
`

func TestParseGeneralLedger_Fixture(t *testing.T) {
	gl, err := ParseGeneralLedger([]byte(glFixture))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	if len(gl.Txns) != 3 {
		t.Fatalf("expected 3 transactions, got %d: %+v", len(gl.Txns), gl.Txns)
	}

	first := gl.Txns[0]
	if first.Account != "Sales" {
		t.Errorf("account scoping failed: %q", first.Account)
	}
	if first.Date != "2025-07-01" {
		t.Errorf("date = %q, want 2025-07-01", first.Date)
	}
	if !almostEqual(first.Credit, 10000) || !almostEqual(first.Amount, -10000) {
		t.Errorf("credit/amount wrong: credit=%f amount=%f", first.Credit, first.Amount)
	}

	rent := gl.Txns[2]
	if rent.Account != "Rent" {
		t.Errorf("account scoping failed for rent: %q", rent.Account)
	}
	if rent.Date != "2025-07-03" {
		t.Errorf("ISO date passthrough failed: %q", rent.Date)
	}
	if !almostEqual(rent.Amount, 8250) {
		t.Errorf("amount = %f, want 8250 (debit minus credit)", rent.Amount)
	}
}

func TestParseGeneralLedger_HeaderNotFound(t *testing.T) {
	if _, err := ParseGeneralLedger([]byte("a,b,c\n1,2,3\n")); err == nil {
		t.Fatal("expected error for missing Date header")
	}
}
