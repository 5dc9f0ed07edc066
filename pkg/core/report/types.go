// Package report assembles the board-facing report model: KPI rollups,
// trend and comparison windows, ranked movement drivers, scenario variance
// attribution, data quality badges and narrative insight lines.
package report

import (
	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/xero"
)

// DataSource selects which totals feed the report.
type DataSource string

const (
	// SourceLegacy buckets raw Xero accounts by their section headers.
	SourceLegacy DataSource = "legacy"
	// SourceDream uses the mapped management-view template.
	SourceDream DataSource = "dream"
)

// ComparisonMode selects the report's movement window.
type ComparisonMode string

const (
	CompareLast3VsPrev3      ComparisonMode = "last3_vs_prev3"
	CompareScenarioVsCurrent ComparisonMode = "scenario_vs_current"
	CompareMonthVsPrior      ComparisonMode = "month_vs_prior"
)

// SectionType tags a driver entry as revenue-side or cost-side, which decides
// the sign of its profit impact.
type SectionType string

const (
	SectionIncome  SectionType = "income"
	SectionExpense SectionType = "expense"
)

// Tone marks a value as favourable or unfavourable for display.
type Tone string

const (
	ToneGood Tone = "good"
	ToneBad  Tone = "bad"
)

// DriverItem is one ranked movement driver. Nil pointer fields mean the value
// could not be computed for the active comparison window.
type DriverItem struct {
	Label           string      `json:"label"`
	SectionType     SectionType `json:"sectionType"`
	CurrentValue    *float64    `json:"currentValue"`
	CompareValue    *float64    `json:"compareValue"`
	Delta           *float64    `json:"delta"`
	PctDelta        *float64    `json:"pctDelta"`
	ContributionPct float64     `json:"contributionPct"`
	ProfitImpact    *float64    `json:"profitImpact"`
}

// DriverResult carries ranked drivers or the reason the ranking is disabled.
// Suspicious flags rankings whose top deltas are all near-identical, which
// usually means the mapping collapsed distinct accounts into one line.
type DriverResult struct {
	Items          []DriverItem `json:"items"`
	DisabledReason string       `json:"disabledReason,omitempty"`
	Suspicious     bool         `json:"suspicious,omitempty"`
}

// SummaryRow is one KPI or P&L summary line with an optional scenario overlay.
type SummaryRow struct {
	Label    string   `json:"label"`
	Current  float64  `json:"current"`
	Scenario *float64 `json:"scenario,omitempty"`
	Variance *float64 `json:"variance,omitempty"`
	Tone     Tone     `json:"tone,omitempty"`
}

// TrendRow is one month of the net profit trend line.
type TrendRow struct {
	Month    string   `json:"month"`
	Current  float64  `json:"current"`
	Scenario *float64 `json:"scenario,omitempty"`
}

// TrendStats holds precomputed trend narration.
type TrendStats struct {
	Last3VsPrev3 string `json:"last3vsPrev3,omitempty"`
}

// VarianceAttribution is one bar of the scenario variance waterfall.
type VarianceAttribution struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Tone   Tone    `json:"tone,omitempty"`
}

// DataQuality summarises mapping coverage and any sections the report had to
// disable.
type DataQuality struct {
	MappingCompleteness float64  `json:"mappingCompleteness"`
	MissingAccounts     []string `json:"missingAccounts"`
	MissingKeyAccounts  []string `json:"missingKeyAccounts"`
	DisabledSections    []string `json:"disabledSections"`
	Warnings            []string `json:"warnings"`
}

// ReportData is the full assembled report.
type ReportData struct {
	DataSourceRequested DataSource            `json:"dataSourceRequested"`
	DataSourceUsed      DataSource            `json:"dataSourceUsed"`
	FallbackReason      string                `json:"fallbackReason,omitempty"`
	RecommendedSource   DataSource            `json:"recommendedSource"`
	PeriodLabel         string                `json:"periodLabel"`
	DataSourceLabel     string                `json:"dataSourceLabel"`
	DataQualityBadge    string                `json:"dataQualityBadge"`
	BaseTotals          *dream.Totals         `json:"baseTotals"`
	ScenarioTotals      *dream.Totals         `json:"scenarioTotals"`
	TrendRows           []TrendRow            `json:"trendRows"`
	TrendStats          TrendStats            `json:"trendStats"`
	KPIs                []SummaryRow          `json:"kpis"`
	ExecutiveSummary    []string              `json:"executiveSummary"`
	WhatChanged         []string              `json:"whatChanged"`
	VarianceAttribution []VarianceAttribution `json:"varianceAttribution,omitempty"`
	RevenueDrivers      DriverResult          `json:"revenueDrivers"`
	CostDrivers         DriverResult          `json:"costDrivers"`
	PnlSummary          []SummaryRow          `json:"pnlSummary"`
	DataQuality         DataQuality           `json:"dataQuality"`
	ScenarioNotes       []string              `json:"scenarioNotes"`
	ComparisonMode      ComparisonMode        `json:"comparisonMode"`
	ComparisonLabel     string                `json:"comparisonLabel"`
	MovementBadge       string                `json:"movementBadge"`
}

// Options configures report assembly. A zero CompletenessThreshold means the
// default of 0.85; an empty ComparisonMode picks the window automatically.
type Options struct {
	DataSource            DataSource
	PL                    *xero.PL
	Template              *dream.Template
	Scenario              scenario.Inputs
	IncludeScenario       bool
	CompletenessThreshold float64
	ComparisonMode        ComparisonMode
}

func fptr(v float64) *float64 { return &v }
