package report

import (
	"fmt"
	"math"

	"accounting_atlas/pkg/core/xero"
)

// Insight is one generated narrative line.
type Insight struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// VarianceInsights narrates the scenario-vs-current delta across the modeled
// period.
func VarianceInsights(current, scenarioSeries []float64) []Insight {
	if len(current) == 0 || len(scenarioSeries) == 0 {
		return []Insight{{
			Title:  "Data quality",
			Detail: "Scenario overlay is off or missing. Turn scenario on to see variance insights.",
		}}
	}
	delta := sumSeries(scenarioSeries) - sumSeries(current)
	direction := "uplift"
	if delta < 0 {
		direction = "decline"
	}
	return []Insight{{
		Title:  "Variance",
		Detail: fmt.Sprintf("Scenario shows a %s of %s across the modeled period.", direction, money(math.Abs(delta))),
	}}
}

// TrendInsights compares the last 3 months against the prior 3.
func TrendInsights(series []float64) []Insight {
	if len(series) < 6 {
		return []Insight{{Title: "Not enough history", Detail: "Upload more history to unlock trend insights."}}
	}
	n := len(series)
	last3 := mean(series[n-3:])
	prev3 := mean(series[n-6 : n-3])
	dir := "improving"
	if last3 < prev3 {
		dir = "softening"
	}
	var pct float64
	if prev3 != 0 {
		pct = (last3 - prev3) / math.Abs(prev3) * 100
	}
	return []Insight{{Title: "Trend", Detail: fmt.Sprintf("Last 3 months are %s vs prior 3 (%.1f%%).", dir, pct)}}
}

// AnomalyInsights flags months more than 1.5 standard deviations off the
// series mean, capped at three callouts.
func AnomalyInsights(series []float64, labels []string) []Insight {
	if len(series) < 6 {
		return nil
	}
	m := mean(series)
	var variance float64
	for _, v := range series {
		variance += (v - m) * (v - m)
	}
	sd := math.Sqrt(variance / float64(len(series)))

	var out []Insight
	for i, v := range series {
		if math.Abs(v-m) <= 1.5*sd {
			continue
		}
		label := fmt.Sprintf("Month %d", i+1)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		out = append(out, Insight{
			Title:  "Anomaly",
			Detail: fmt.Sprintf("%s: %s vs avg %s.", label, money(v), money(m)),
		})
		if len(out) == 3 {
			break
		}
	}
	return out
}

// DataQualityInsights gives a one-line readiness check on the loaded P&L.
func DataQualityInsights(pl *xero.PL) []Insight {
	if pl == nil {
		return []Insight{{Title: "Missing data", Detail: "Upload a P&L to generate insights."}}
	}
	if len(pl.Accounts) == 0 {
		return []Insight{{Title: "Mapping needed", Detail: "No accounts mapped yet. Complete mapping to unlock drivers."}}
	}
	return []Insight{{
		Title:  "Data quality",
		Detail: fmt.Sprintf("%d accounts loaded. Ensure key revenue/COGS/opex are mapped for best fidelity.", len(pl.Accounts)),
	}}
}

// AllInsights runs the full insight battery for the insights panel.
func AllInsights(pl *xero.PL, current, scenarioSeries []float64, labels []string) []Insight {
	var out []Insight
	out = append(out, VarianceInsights(current, scenarioSeries)...)
	out = append(out, TrendInsights(current)...)
	out = append(out, AnomalyInsights(current, labels)...)
	out = append(out, DataQualityInsights(pl)...)
	return out
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sumSeries(vals) / float64(len(vals))
}
