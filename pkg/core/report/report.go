package report

import (
	"fmt"
	"math"
	"strings"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/xero"
)

const defaultCompletenessThreshold = 0.85

type mappingStats struct {
	completeness       float64
	missingAccounts    []string
	missingKeyAccounts []string
}

// calcMappingStats measures how much of the P&L's absolute dollar volume is
// covered by the template's mapped accounts. Key accounts are sectioned
// accounts with a nonzero total; those missing from the mapping are called
// out separately.
func calcMappingStats(pl *xero.PL, t *dream.Template) mappingStats {
	stats := mappingStats{missingAccounts: []string{}, missingKeyAccounts: []string{}}
	if pl == nil {
		return stats
	}
	mapped := map[string]bool{}
	for _, sl := range flattenLinesWithSection(t) {
		for _, acc := range sl.line.MappedAccounts {
			mapped[acc] = true
		}
	}

	var absMapped, absTotal float64
	for _, acc := range pl.Accounts {
		totalAbs := math.Abs(acc.Total)
		absTotal += totalAbs
		if !mapped[acc.Name] {
			stats.missingAccounts = append(stats.missingAccounts, acc.Name)
			if isKeyAccount(acc) {
				stats.missingKeyAccounts = append(stats.missingKeyAccounts, acc.Name)
			}
		} else {
			absMapped += totalAbs
		}
	}
	if absTotal != 0 {
		stats.completeness = absMapped / absTotal
	}
	return stats
}

func isKeyAccount(acc xero.Account) bool {
	return acc.Section != xero.SectionUnknown && math.Abs(acc.Total) > 0
}

// buildVarianceAttribution decomposes the scenario's net delta into the three
// lever families. Cost deltas are negated so every bar reads "contribution to
// net profit".
func buildVarianceAttribution(base, scenarioTotals dream.Totals) []VarianceAttribution {
	revenueDelta := sumSeries(scenarioTotals.Revenue) - sumSeries(base.Revenue)
	cogsDelta := sumSeries(scenarioTotals.Cogs) - sumSeries(base.Cogs)
	opexDelta := sumSeries(scenarioTotals.Opex) - sumSeries(base.Opex)
	netDelta := sumSeries(scenarioTotals.Net) - sumSeries(base.Net)
	unattributed := netDelta - (revenueDelta - cogsDelta - opexDelta)

	attribution := []VarianceAttribution{
		{Label: "Volume & pricing uplift", Amount: revenueDelta, Tone: toneFor(revenueDelta >= 0)},
		{Label: "Bundle & consult costs", Amount: -cogsDelta, Tone: toneFor(cogsDelta <= 0)},
		{Label: "Opex levers (rent/efficiency)", Amount: -opexDelta, Tone: toneFor(opexDelta <= 0)},
	}
	if math.Abs(unattributed) > 1 {
		attribution = append(attribution, VarianceAttribution{Label: "Unattributed / rounding", Amount: unattributed})
	}
	return attribution
}

func toneFor(good bool) Tone {
	if good {
		return ToneGood
	}
	return ToneBad
}

// DescribeScenario renders the scenario assumptions as display lines.
func DescribeScenario(in scenario.Inputs) []string {
	capacityNote := ""
	if in.MachinesEnabled {
		capacityNote = " (machine capacity applied)"
	}
	consultNote := "consults left in legacy revenue"
	if in.IncludeDoctorConsultsInBundle {
		consultNote = "consults removed from legacy revenue"
	}
	costsNote := "excluded"
	if in.AddBundleCostsToScenario {
		costsNote = "included"
	}
	return []string{
		fmt.Sprintf("Pricing: $%g CBA, $%g cgTMS; State %s", in.CbaPrice, in.ProgramPrice, in.State),
		fmt.Sprintf("Volume: %g CBA / %g cgTMS per month%s", in.CbaMonthlyCount, in.ProgramMonthlyCount, capacityNote),
		"Consult treatment: " + consultNote,
		fmt.Sprintf("Bundle costs %s; Doctor service fee %g%% share", costsNote, in.DoctorServiceFeePct),
	}
}

func makeDataQualityBadge(source DataSource, completeness float64, missingKeyCount int) string {
	if source == SourceLegacy {
		return "Data quality: Legacy (Good)"
	}
	if completeness >= defaultCompletenessThreshold {
		return "Data quality: Good"
	}
	pctMapped := int(math.Round(completeness * 100))
	if completeness >= 0.5 {
		return fmt.Sprintf("Data quality: Partial (%d%% mapped; missing %d key)", pctMapped, missingKeyCount)
	}
	return fmt.Sprintf("Data quality: Incomplete (%d%% mapped; missing %d key)", pctMapped, missingKeyCount)
}

// GetReportData assembles the full report for the requested source. When the
// mapped model's driver ranking comes back suspicious (all top deltas nearly
// identical), the report silently rebuilds from legacy data and records the
// fallback reason.
func GetReportData(opts Options) ReportData {
	threshold := opts.CompletenessThreshold
	if threshold == 0 {
		threshold = defaultCompletenessThreshold
	}
	mapping := calcMappingStats(opts.PL, opts.Template)
	recommended := SourceLegacy
	if mapping.completeness >= threshold {
		recommended = SourceDream
	}
	scenarioActive := opts.IncludeScenario && opts.Scenario.Enabled
	mode := opts.ComparisonMode
	if mode == "" {
		if scenarioActive {
			mode = CompareScenarioVsCurrent
		} else {
			mode = CompareLast3VsPrev3
		}
	}

	report := buildForSource(opts, opts.DataSource, mapping, recommended, threshold, scenarioActive, mode)
	if opts.DataSource == SourceDream && opts.PL != nil &&
		(report.RevenueDrivers.Suspicious || report.CostDrivers.Suspicious) {
		report = buildForSource(opts, SourceLegacy, mapping, recommended, threshold, scenarioActive, mode)
		report.DataSourceRequested = SourceDream
		report.DataSourceUsed = SourceLegacy
		report.FallbackReason = "Dream drivers looked identical. Fell back to Legacy data."
	}
	return report
}

func buildForSource(opts Options, source DataSource, mapping mappingStats, recommended DataSource, threshold float64, scenarioActive bool, mode ComparisonMode) ReportData {
	pl := opts.PL
	if pl == nil {
		return emptyReport(opts, source, mapping, recommended, mode)
	}

	var baseTotals dream.Totals
	var computed *dream.Computed
	var completenessWarnings []string
	if source == SourceDream {
		computed = dream.ComputeDream(pl, opts.Template)
		baseTotals = dream.ComputeDreamTotals(pl, opts.Template, computed)
		if mapping.completeness < threshold {
			completenessWarnings = append(completenessWarnings, "Dream mapping below 85%. Some sections disabled.")
		}
	} else {
		baseTotals = dream.ComputeXeroTotals(pl)
	}

	var scenarioTotals *dream.Totals
	if scenarioActive {
		st := scenario.Apply(baseTotals, pl, opts.Scenario)
		scenarioTotals = &st
	}

	depAmort := dream.ComputeDepAmort(pl)
	ebitdaCurrent := make([]float64, len(baseTotals.Net))
	for i, v := range baseTotals.Net {
		ebitdaCurrent[i] = v + depAmort[i]
	}
	var ebitdaScenario []float64
	if scenarioTotals != nil {
		ebitdaScenario = make([]float64, len(scenarioTotals.Net))
		for i, v := range scenarioTotals.Net {
			ebitdaScenario[i] = v + depAmort[i]
		}
	}

	periodLabel := "Through Current period"
	if len(pl.MonthLabels) > 0 {
		periodLabel = "Through " + pl.MonthLabels[len(pl.MonthLabels)-1]
	}

	var netDelta *float64
	if scenarioTotals != nil {
		netDelta = fptr(sumSeries(scenarioTotals.Net) - sumSeries(baseTotals.Net))
	}

	kpis := buildKPIs(baseTotals, scenarioTotals, ebitdaCurrent, ebitdaScenario, netDelta)
	whatChanged, trendStats := buildWhatChanged(baseTotals)
	trendRows := buildTrendRows(pl.MonthLabels, baseTotals, scenarioTotals)

	revenueEntries, costEntries := driverEntries(source, pl, opts.Template, computed)
	revenueDrivers := rankDrivers(revenueEntries, mode, scenarioTotals != nil, nil)
	costDrivers := rankDrivers(costEntries, mode, scenarioTotals != nil, nil)

	pnlSummary := buildPnlSummary(baseTotals, scenarioTotals, ebitdaCurrent, ebitdaScenario, netDelta)

	comparisonSeries := baseTotals.Net
	if scenarioTotals != nil {
		comparisonSeries = scenarioTotals.Net
	}
	comp := computeComparison(mode, baseTotals.Net, comparisonSeries, scenarioTotals != nil)

	executiveSummary := buildExecutiveSummary(source, netDelta, comp.label, whatChanged, revenueDrivers, costDrivers)

	quality := DataQuality{
		MappingCompleteness: mapping.completeness,
		MissingAccounts:     mapping.missingAccounts,
		MissingKeyAccounts:  mapping.missingKeyAccounts,
		DisabledSections:    []string{},
		Warnings:            append([]string{}, completenessWarnings...),
	}
	if source == SourceDream && mapping.completeness < threshold {
		quality.DisabledSections = append(quality.DisabledSections, "drivers")
		if scenarioActive {
			quality.DisabledSections = append(quality.DisabledSections, "waterfall")
		}
	}

	sourceLabel := "Legacy P&L (Xero export)"
	sourceShort := "Actuals"
	if source == SourceDream {
		sourceLabel = "Management P&L (mapped model)"
		sourceShort = "Mapped model"
	}

	var attribution []VarianceAttribution
	if scenarioTotals != nil {
		attribution = buildVarianceAttribution(baseTotals, *scenarioTotals)
	}

	return ReportData{
		DataSourceRequested: opts.DataSource,
		DataSourceUsed:      source,
		RecommendedSource:   recommended,
		PeriodLabel:         periodLabel,
		DataSourceLabel:     sourceLabel,
		DataQualityBadge:    makeDataQualityBadge(source, mapping.completeness, len(mapping.missingKeyAccounts)),
		BaseTotals:          &baseTotals,
		ScenarioTotals:      scenarioTotals,
		TrendRows:           trendRows,
		TrendStats:          trendStats,
		KPIs:                kpis,
		ExecutiveSummary:    executiveSummary,
		WhatChanged:         whatChanged,
		VarianceAttribution: attribution,
		RevenueDrivers:      revenueDrivers,
		CostDrivers:         costDrivers,
		PnlSummary:          pnlSummary,
		DataQuality:         quality,
		ScenarioNotes:       DescribeScenario(opts.Scenario),
		ComparisonMode:      mode,
		ComparisonLabel:     comp.label,
		MovementBadge:       fmt.Sprintf("Movement = %s (%s)", comp.label, sourceShort),
	}
}

func emptyReport(opts Options, source DataSource, mapping mappingStats, recommended DataSource, mode ComparisonMode) ReportData {
	return ReportData{
		DataSourceRequested: opts.DataSource,
		DataSourceUsed:      source,
		RecommendedSource:   recommended,
		FallbackReason:      "No P&L uploaded.",
		PeriodLabel:         "Upload a P&L export to begin.",
		DataSourceLabel:     "No data",
		DataQualityBadge:    "Data quality: Missing",
		TrendRows:           []TrendRow{},
		KPIs:                []SummaryRow{},
		ExecutiveSummary:    []string{"Upload a P&L export to generate a report."},
		WhatChanged:         []string{},
		RevenueDrivers:      DriverResult{DisabledReason: "No data uploaded."},
		CostDrivers:         DriverResult{DisabledReason: "No data uploaded."},
		PnlSummary:          []SummaryRow{},
		DataQuality: DataQuality{
			MappingCompleteness: mapping.completeness,
			MissingAccounts:     mapping.missingAccounts,
			MissingKeyAccounts:  mapping.missingKeyAccounts,
			DisabledSections:    []string{"trend", "drivers", "pnl", "waterfall"},
			Warnings:            []string{"Upload a P&L export to enable reporting."},
		},
		ScenarioNotes:   DescribeScenario(opts.Scenario),
		ComparisonMode:  mode,
		ComparisonLabel: "No data",
		MovementBadge:   "Movement unavailable",
	}
}

func buildKPIs(base dream.Totals, scen *dream.Totals, ebitdaCurrent, ebitdaScenario []float64, netDelta *float64) []SummaryRow {
	netRow := SummaryRow{Label: "TTM net profit", Current: sumSeries(base.Net)}
	if scen != nil {
		netRow.Scenario = fptr(sumSeries(scen.Net))
		netRow.Variance = netDelta
		netRow.Tone = toneFor(*netDelta >= 0)
	}

	revRow := SummaryRow{Label: "TTM revenue", Current: sumSeries(base.Revenue)}
	if scen != nil {
		revRow.Scenario = fptr(sumSeries(scen.Revenue))
		revRow.Variance = fptr(sumSeries(scen.Revenue) - sumSeries(base.Revenue))
	}

	revTotal := sumSeries(base.Revenue)
	gmRow := SummaryRow{
		Label:   "Gross margin %",
		Current: (revTotal - sumSeries(base.Cogs)) / math.Max(1, math.Abs(revTotal)) * 100,
	}

	ebitdaRow := SummaryRow{Label: "EBITDA (est.)", Current: sumSeries(ebitdaCurrent)}
	if ebitdaScenario != nil {
		ebitdaRow.Scenario = fptr(sumSeries(ebitdaScenario))
		ebitdaRow.Variance = fptr(sumSeries(ebitdaScenario) - sumSeries(ebitdaCurrent))
	}

	return []SummaryRow{netRow, revRow, gmRow, ebitdaRow}
}

func buildWhatChanged(base dream.Totals) ([]string, TrendStats) {
	var out []string
	var stats TrendStats

	grossProfit := make([]float64, len(base.Revenue))
	for i := range grossProfit {
		grossProfit[i] = base.Revenue[i] - base.Cogs[i]
	}

	push := func(label string, series []float64) {
		cur, cmp, ok := last3VsPrev3(series)
		if !ok {
			return
		}
		out = append(out, fmt.Sprintf("%s moved %s vs prior 3 months.", label, money(cur-cmp)))
	}
	push("Net profit", base.Net)
	push("Revenue", base.Revenue)
	push("Gross profit", grossProfit)
	push("Opex", base.Opex)

	if cur, cmp, ok := last3VsPrev3(base.Net); ok {
		stats.Last3VsPrev3 = fmt.Sprintf("Net profit %s vs prior 3 months.", money(cur-cmp))
	}
	if len(out) == 0 {
		out = append(out, "Not enough history (need 6+ months) to explain recent movements.")
	}
	return out, stats
}

func buildTrendRows(monthLabels []string, base dream.Totals, scen *dream.Totals) []TrendRow {
	rows := make([]TrendRow, len(monthLabels))
	for i, m := range monthLabels {
		row := TrendRow{Month: m}
		if i < len(base.Net) {
			row.Current = base.Net[i]
		}
		if scen != nil && i < len(scen.Net) {
			row.Scenario = fptr(scen.Net[i])
		}
		rows[i] = row
	}
	return rows
}

func driverEntries(source DataSource, pl *xero.PL, t *dream.Template, computed *dream.Computed) (revenue, cost []driverEntry) {
	if source == SourceDream {
		for _, sl := range flattenLinesWithSection(t) {
			values := computed.ByLineID[sl.line.ID]
			if values == nil {
				values = make([]float64, len(pl.Months))
			}
			switch sl.section {
			case "rev":
				revenue = append(revenue, driverEntry{label: sl.line.Label, values: values, sectionType: SectionIncome})
			case "cogs", "opex":
				cost = append(cost, driverEntry{label: sl.line.Label, values: values, sectionType: SectionExpense})
			}
		}
		return revenue, cost
	}
	for _, a := range pl.Accounts {
		switch a.Section {
		case xero.SectionTradingIncome, xero.SectionOtherIncome:
			revenue = append(revenue, driverEntry{label: a.Name, values: a.Values, sectionType: SectionIncome})
		case xero.SectionCostOfSales, xero.SectionOperatingExpenses:
			cost = append(cost, driverEntry{label: a.Name, values: a.Values, sectionType: SectionExpense})
		}
	}
	return revenue, cost
}

func buildPnlSummary(base dream.Totals, scen *dream.Totals, ebitdaCurrent, ebitdaScenario []float64, netDelta *float64) []SummaryRow {
	row := func(label string, current float64, scenVal *float64, costTone bool) SummaryRow {
		r := SummaryRow{Label: label, Current: current}
		if scenVal != nil {
			r.Scenario = scenVal
			variance := *scenVal - current
			r.Variance = fptr(variance)
			if costTone {
				r.Tone = toneFor(variance <= 0)
			}
		}
		return r
	}

	var scenRev, scenCogs, scenGP, scenOpex, scenEbitda, scenNet *float64
	if scen != nil {
		scenRev = fptr(sumSeries(scen.Revenue))
		scenCogs = fptr(sumSeries(scen.Cogs))
		scenGP = fptr(sumSeries(scen.Revenue) - sumSeries(scen.Cogs))
		scenOpex = fptr(sumSeries(scen.Opex))
		scenNet = fptr(sumSeries(scen.Net))
	}
	if ebitdaScenario != nil {
		scenEbitda = fptr(sumSeries(ebitdaScenario))
	}

	rows := []SummaryRow{
		row("Revenue", sumSeries(base.Revenue), scenRev, false),
		row("COGS", sumSeries(base.Cogs), scenCogs, true),
		row("Gross profit", sumSeries(base.Revenue)-sumSeries(base.Cogs), scenGP, false),
		row("Opex", sumSeries(base.Opex), scenOpex, true),
		row("EBITDA (est.)", sumSeries(ebitdaCurrent), scenEbitda, false),
	}
	netRow := SummaryRow{Label: "Net profit", Current: sumSeries(base.Net)}
	if scen != nil {
		netRow.Scenario = scenNet
		netRow.Variance = netDelta
	}
	return append(rows, netRow)
}

func buildExecutiveSummary(source DataSource, netDelta *float64, comparisonLabel string, whatChanged []string, revenueDrivers, costDrivers DriverResult) []string {
	var out []string
	if source == SourceDream {
		out = append(out, "Datasource: Management P&L (mapped model)")
	} else {
		out = append(out, "Datasource: Legacy Xero export")
	}
	if netDelta != nil {
		out = append(out, fmt.Sprintf("Scenario impact: %s vs current.", money(*netDelta)))
	}
	out = append(out, "Comparison mode: "+comparisonLabel)
	if len(whatChanged) > 2 {
		out = append(out, whatChanged[:2]...)
	} else {
		out = append(out, whatChanged...)
	}

	movers := append(append([]DriverItem{}, revenueDrivers.Items...), costDrivers.Items...)
	for i := range movers {
		for j := i + 1; j < len(movers); j++ {
			if math.Abs(deref(movers[j].Delta)) > math.Abs(deref(movers[i].Delta)) {
				movers[i], movers[j] = movers[j], movers[i]
			}
		}
	}
	if len(movers) > 2 {
		movers = movers[:2]
	}
	var sentences []string
	for _, d := range movers {
		deltaStr := "—"
		if d.Delta != nil {
			deltaStr = money(*d.Delta)
		}
		sentences = append(sentences, fmt.Sprintf("%s Δ %s (%s)", d.Label, deltaStr, pctString(d.PctDelta)))
	}
	if len(sentences) > 0 {
		out = append(out, "Top movement drivers: "+strings.Join(sentences, " • "))
	}
	return out
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
