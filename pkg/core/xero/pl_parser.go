package xero

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrHeaderNotFound is returned when the expected header row cannot be located
// within the scan window. This is fatal for the whole file; there is no
// partial result.
var ErrHeaderNotFound = errors.New("header row not found")

const plHeaderScanWindow = 250

var totalRowPattern = regexp.MustCompile(`(?i)^total\s+`)

var summaryLabels = map[string]bool{
	"net profit":       true,
	"net income":       true,
	"gross profit":     true,
	"gross margin":     true,
	"operating profit": true,
	"operating income": true,
}

func sectionFromHeader(label string) Section {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(s, "trading income"):
		return SectionTradingIncome
	case strings.Contains(s, "cost of sales"), strings.Contains(s, "costs of sales"), strings.Contains(s, "cogs"):
		return SectionCostOfSales
	case strings.Contains(s, "other income"):
		return SectionOtherIncome
	case strings.Contains(s, "operating expenses"):
		return SectionOperatingExpenses
	}
	return SectionUnknown
}

// isSectionHeaderRow reports whether a row only carries a label in the first
// column. Xero section headers leave every data column blank.
func isSectionHeaderRow(first string, rest []string) bool {
	if isBlank(first) {
		return false
	}
	for _, c := range rest {
		if !isBlank(c) {
			return false
		}
	}
	return true
}

func isTotalRow(first string) bool {
	return totalRowPattern.MatchString(strings.TrimSpace(first))
}

// isSummaryRow catches presentation rows like "Net Profit" that must never be
// double-counted as accounts.
func isSummaryRow(first string) bool {
	return summaryLabels[strings.ToLower(strings.TrimSpace(first))]
}

// ParseProfitAndLoss parses a raw P&L workbook or CSV into a PL. Column 0 is
// the account name, columns 1..last-1 are months by position and the final
// column is a total (recomputed downstream if blank).
func ParseProfitAndLoss(data []byte) (*PL, error) {
	rows, err := loadRows(data)
	if err != nil {
		return nil, err
	}

	// 1) find the header row containing "Account"
	headerIdx := -1
	limit := len(rows)
	if limit > plHeaderScanWindow {
		limit = plHeaderScanWindow
	}
	for i := 0; i < limit; i++ {
		for _, cell := range rows[i] {
			if strings.EqualFold(strings.TrimSpace(cell), "account") {
				headerIdx = i
				break
			}
		}
		if headerIdx >= 0 {
			break
		}
	}
	if headerIdx == -1 {
		return nil, fmt.Errorf("could not find P&L header row (Account): %w", ErrHeaderNotFound)
	}

	header := rows[headerIdx]
	// 2) months are positional: col 0 is the account, the last col is a total
	totalCol := len(header) - 1
	if totalCol < 1 {
		totalCol = 1
	}
	monthCount := totalCol - 1
	if monthCount < 0 {
		monthCount = 0
	}

	months := make([]MonthKey, 0, monthCount)
	monthLabels := make([]string, 0, monthCount)
	for c := 1; c <= monthCount; c++ {
		if key, label, ok := normalizeMonthLabel(cellAt(header, c)); ok {
			months = append(months, key)
			monthLabels = append(monthLabels, label)
		} else {
			months = append(months, fmt.Sprintf("col_%d", c))
			monthLabels = append(monthLabels, fmt.Sprintf("Col %d", c))
		}
	}

	// 3) walk data rows, tracking the current section
	accounts := []Account{}
	section := SectionUnknown

	for r := headerIdx + 1; r < len(rows); r++ {
		row := rows[r]
		first := cellAt(row, 0)
		rest := make([]string, monthCount)
		for i := 0; i < monthCount; i++ {
			rest[i] = cellAt(row, 1+i)
		}

		if isBlank(first) && allBlank(rest) {
			continue
		}
		if isTotalRow(first) || isSummaryRow(first) {
			continue
		}
		if isSectionHeaderRow(first, rest) {
			section = sectionFromHeader(first)
			continue
		}

		name := strings.TrimSpace(first)
		if name == "" {
			continue
		}

		values := make([]float64, len(months))
		anyNonBlank := false
		anyNonZero := false
		for i, cell := range rest {
			if i >= len(values) {
				break
			}
			values[i] = toNumber(cell)
			if !isBlank(cell) {
				anyNonBlank = true
			}
			if values[i] != 0 {
				anyNonZero = true
			}
		}
		// a row of explicit zeros is kept; a genuinely empty spacer is dropped
		if !anyNonBlank && !anyNonZero {
			continue
		}

		accounts = append(accounts, Account{
			Name:    name,
			Section: section,
			Values:  values,
			Total:   toNumber(cellAt(row, 1+monthCount)),
		})
	}

	return &PL{Months: months, MonthLabels: monthLabels, Accounts: accounts}, nil
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if !isBlank(c) {
			return false
		}
	}
	return true
}
