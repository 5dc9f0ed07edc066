package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/xero"
)

// DataHealthSummary describes structural problems with the imported P&L:
// month gaps, duplicate columns, padded accounts and months with no activity.
type DataHealthSummary struct {
	MonthsDetected int      `json:"monthsDetected"`
	RangeLabel     string   `json:"rangeLabel"`
	Gaps           []string `json:"gaps"`
	Anomalies      []string `json:"anomalies"`
}

type yearMonth struct {
	year  int
	month int
}

func parseMonthKey(key xero.MonthKey) (yearMonth, bool) {
	parts := strings.SplitN(string(key), "-", 2)
	if len(parts) != 2 {
		return yearMonth{}, false
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || y == 0 || m < 1 || m > 12 {
		return yearMonth{}, false
	}
	return yearMonth{year: y, month: m}, true
}

func (ym yearMonth) add(delta int) yearMonth {
	d := time.Date(ym.year, time.Month(ym.month+delta), 1, 0, 0, 0, 0, time.UTC)
	return yearMonth{year: d.Year(), month: int(d.Month())}
}

func (ym yearMonth) label() string {
	return time.Date(ym.year, time.Month(ym.month), 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

// AnalyzeDataHealth scans the P&L for gaps and anomalies worth surfacing
// before anyone trusts the report built on top of it.
func AnalyzeDataHealth(pl *xero.PL) DataHealthSummary {
	summary := DataHealthSummary{
		MonthsDetected: len(pl.Months),
		Gaps:           []string{},
		Anomalies:      []string{},
	}

	valid := make([]yearMonth, 0, len(pl.Months))
	for _, m := range pl.Months {
		if ym, ok := parseMonthKey(m); ok {
			valid = append(valid, ym)
		}
	}

	switch {
	case len(valid) > 1:
		summary.RangeLabel = valid[0].label() + " → " + valid[len(valid)-1].label()
	case len(pl.MonthLabels) > 0:
		summary.RangeLabel = pl.MonthLabels[0]
	default:
		summary.RangeLabel = "—"
	}

	for i := 0; i+1 < len(valid); i++ {
		cur, next := valid[i], valid[i+1]
		diff := (next.year-cur.year)*12 + (next.month - cur.month)
		if diff <= 1 {
			continue
		}
		missing := diff - 1
		plural := ""
		if missing > 1 {
			plural = "s"
		}
		summary.Gaps = append(summary.Gaps,
			fmt.Sprintf("%s → %s (%d month gap%s)", cur.label(), next.label(), missing, plural))
	}

	seen := map[xero.MonthKey]bool{}
	duplicate := false
	for _, m := range pl.Months {
		if seen[m] {
			duplicate = true
			break
		}
		seen[m] = true
	}
	if duplicate {
		summary.Anomalies = append(summary.Anomalies, "Duplicate month columns detected")
	}

	mismatched := 0
	for _, a := range pl.Accounts {
		if len(a.Values) != len(pl.Months) {
			mismatched++
		}
	}
	if mismatched > 0 {
		summary.Anomalies = append(summary.Anomalies,
			fmt.Sprintf("%d accounts had missing month values (padded)", mismatched))
	}

	totals := dream.ComputeXeroTotals(pl)
	var quiet []string
	for i := range pl.Months {
		if totals.Revenue[i] == 0 && totals.Cogs[i] == 0 && totals.Opex[i] == 0 {
			label := fmt.Sprintf("Month %d", i+1)
			if i < len(pl.MonthLabels) && pl.MonthLabels[i] != "" {
				label = pl.MonthLabels[i]
			}
			quiet = append(quiet, label)
		}
	}
	if len(quiet) > 0 {
		shown := quiet
		suffix := ""
		if len(quiet) > 4 {
			shown = quiet[:4]
			suffix = "…"
		}
		summary.Anomalies = append(summary.Anomalies,
			"No activity detected for "+strings.Join(shown, ", ")+suffix)
	}

	return summary
}
