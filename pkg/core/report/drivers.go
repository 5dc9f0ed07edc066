package report

import (
	"math"
	"sort"

	"accounting_atlas/pkg/core/dream"
)

type comparison struct {
	currentTotal *float64
	compareTotal *float64
	delta        *float64
	pctDelta     *float64
	label        string
}

func sumSeries(vals []float64) float64 {
	var s float64
	for _, v := range vals {
		s += v
	}
	return s
}

// last3VsPrev3 returns the rolling 3-month window totals, or ok=false with
// under 6 months of history.
func last3VsPrev3(values []float64) (currentTotal, compareTotal float64, ok bool) {
	if len(values) < 6 {
		return 0, 0, false
	}
	n := len(values)
	return sumSeries(values[n-3:]), sumSeries(values[n-6 : n-3]), true
}

// computeComparison evaluates one series under the active comparison window.
// In scenario mode, compareSeries carries the scenario values and the
// comparison reads scenario-minus-current.
func computeComparison(mode ComparisonMode, currentSeries, compareSeries []float64, hasScenario bool) comparison {
	switch mode {
	case CompareScenarioVsCurrent:
		label := "Scenario TTM – Current TTM"
		if !hasScenario {
			return comparison{label: label}
		}
		cur := sumSeries(compareSeries)
		cmp := sumSeries(currentSeries)
		return withDelta(cur, cmp, label)
	case CompareMonthVsPrior:
		label := "Last month vs prior month"
		if len(currentSeries) < 2 {
			return comparison{label: label}
		}
		cur := currentSeries[len(currentSeries)-1]
		cmp := currentSeries[len(currentSeries)-2]
		return withDelta(cur, cmp, label)
	}
	label := "Last 3 months vs prior 3 months"
	cur, cmp, ok := last3VsPrev3(currentSeries)
	if !ok {
		return comparison{label: label}
	}
	return withDelta(cur, cmp, label)
}

func withDelta(currentTotal, compareTotal float64, label string) comparison {
	delta := currentTotal - compareTotal
	out := comparison{
		currentTotal: fptr(currentTotal),
		compareTotal: fptr(compareTotal),
		delta:        fptr(delta),
		label:        label,
	}
	if compareTotal != 0 {
		out.pctDelta = fptr(delta / math.Abs(compareTotal) * 100)
	}
	return out
}

// sectionedLine is a template line annotated with the section group it lives
// under, resolved from the template's configured section group ids.
type sectionedLine struct {
	line    *dream.Node
	section string // "rev", "cogs", "opex" or "" when outside all three
}

func flattenLinesWithSection(t *dream.Template) []sectionedLine {
	sections := t.Sections
	if sections == (dream.SectionGroups{}) {
		sections = dream.DefaultSectionGroups()
	}
	var walk func(n *dream.Node, section string) []sectionedLine
	walk = func(n *dream.Node, section string) []sectionedLine {
		switch n.ID {
		case sections.RevenueGroupID:
			section = "rev"
		case sections.CogsGroupID:
			section = "cogs"
		case sections.OpexGroupID:
			section = "opex"
		}
		var out []sectionedLine
		for _, child := range n.Children {
			if child.Kind == dream.KindLine {
				out = append(out, sectionedLine{line: child, section: section})
			} else {
				out = append(out, walk(child, section)...)
			}
		}
		return out
	}
	if t.Root == nil {
		return nil
	}
	return walk(t.Root, "")
}

// driverEntry is one candidate series for driver ranking.
type driverEntry struct {
	label       string
	values      []float64
	sectionType SectionType
}

// rankDrivers evaluates every entry under the comparison window, keeps the
// five largest absolute deltas, and assigns each a contribution share. A
// ranking whose top deltas all sit within a dollar of each other is flagged
// suspicious; the caller falls back to legacy data when that happens.
func rankDrivers(entries []driverEntry, mode ComparisonMode, hasScenario bool, scenarioEntries []driverEntry) DriverResult {
	if len(entries) == 0 {
		return DriverResult{DisabledReason: "Not enough mapped data to show drivers."}
	}
	if mode == CompareLast3VsPrev3 {
		allShort := true
		for _, e := range entries {
			if len(e.values) >= 6 {
				allShort = false
				break
			}
		}
		if allShort {
			return DriverResult{DisabledReason: "Need at least 6 months of data for drivers."}
		}
	}

	items := make([]DriverItem, 0, len(entries))
	for idx, e := range entries {
		compareSeries := e.values
		if mode == CompareScenarioVsCurrent && idx < len(scenarioEntries) {
			compareSeries = scenarioEntries[idx].values
		}
		cmp := computeComparison(mode, e.values, compareSeries, hasScenario)
		if cmp.delta == nil {
			continue
		}
		polarity := 1.0
		if e.sectionType == SectionExpense {
			polarity = -1
		}
		items = append(items, DriverItem{
			Label:        e.label,
			SectionType:  e.sectionType,
			CurrentValue: cmp.currentTotal,
			CompareValue: cmp.compareTotal,
			Delta:        cmp.delta,
			PctDelta:     cmp.pctDelta,
			ProfitImpact: fptr(*cmp.delta * polarity),
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return math.Abs(*items[i].Delta) > math.Abs(*items[j].Delta)
	})
	top := make([]DriverItem, 0, 5)
	for _, it := range items {
		if math.Abs(*it.Delta) > 0 {
			top = append(top, it)
		}
		if len(top) == 5 {
			break
		}
	}
	if len(top) == 0 {
		return DriverResult{DisabledReason: "Not enough movement to rank drivers."}
	}

	maxAbs, minAbs := math.Inf(-1), math.Inf(1)
	var denom float64
	for _, it := range top {
		abs := math.Abs(*it.Delta)
		denom += abs
		maxAbs = math.Max(maxAbs, abs)
		minAbs = math.Min(minAbs, abs)
	}
	if denom == 0 {
		denom = 1
	}
	for i := range top {
		top[i].ContributionPct = math.Abs(*top[i].Delta) / denom * 100
	}

	suspicious := len(top) >= 2 && maxAbs-minAbs < 1
	return DriverResult{Items: top, Suspicious: suspicious}
}
