package xero

import (
	"fmt"
	"strings"
)

const glHeaderScanWindow = 100

// isAccountHeaderRow reports whether a GL row is an account-scoping row: a
// label in column 0 with the next few columns blank. These set the "current
// account" for the transaction rows that follow.
func isAccountHeaderRow(row []string) bool {
	first := strings.TrimSpace(cellAt(row, 0))
	if first == "" {
		return false
	}
	if totalRowPattern.MatchString(first) || strings.EqualFold(first, "net movement") {
		return false
	}
	end := 6
	if end > len(row) {
		end = len(row)
	}
	for i := 1; i < end; i++ {
		if !isBlank(row[i]) {
			return false
		}
	}
	return true
}

// ParseGeneralLedger parses a raw General Ledger detail workbook or CSV.
// Columns are identified by header name (case-insensitive); rows without a
// parseable date are skipped.
func ParseGeneralLedger(data []byte) (*GL, error) {
	rows, err := loadRows(data)
	if err != nil {
		return nil, err
	}

	headerIdx := -1
	limit := len(rows)
	if limit > glHeaderScanWindow {
		limit = glHeaderScanWindow
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if strings.EqualFold(strings.TrimSpace(cell), "date") {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("could not find GL header row (Date): %w", ErrHeaderNotFound)
	}

	colIdx := func(name string) int {
		for i, h := range rows[headerIdx] {
			if strings.EqualFold(strings.TrimSpace(h), name) {
				return i
			}
		}
		return -1
	}
	dateCol := colIdx("date")
	sourceCol := colIdx("source")
	descCol := colIdx("description")
	refCol := colIdx("reference")
	debitCol := colIdx("debit")
	creditCol := colIdx("credit")

	txns := []GLTxn{}
	currentAccount := ""

	for r := headerIdx + 1; r < len(rows); r++ {
		row := rows[r]
		if rowAllBlank(row) {
			continue
		}

		if isAccountHeaderRow(row) {
			currentAccount = strings.TrimSpace(cellAt(row, 0))
			continue
		}
		if currentAccount == "" {
			continue
		}

		first := strings.TrimSpace(cellAt(row, 0))
		if totalRowPattern.MatchString(first) || strings.EqualFold(first, "net movement") {
			continue
		}

		date := toISODate(cellAt(row, dateCol))
		if date == "" {
			continue
		}

		debit := toNumber(cellAt(row, debitCol))
		credit := toNumber(cellAt(row, creditCol))

		txns = append(txns, GLTxn{
			Account:     currentAccount,
			Date:        date,
			Source:      strings.TrimSpace(cellAt(row, sourceCol)),
			Description: strings.TrimSpace(cellAt(row, descCol)),
			Reference:   strings.TrimSpace(cellAt(row, refCol)),
			Debit:       debit,
			Credit:      credit,
			Amount:      debit - credit,
		})
	}

	return &GL{Txns: txns}, nil
}
