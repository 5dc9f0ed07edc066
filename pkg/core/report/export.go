package report

import (
	"bytes"
	"fmt"
	"math"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// PageSize is the export paper size.
type PageSize string

const (
	PageA4     PageSize = "a4"
	PageLetter PageSize = "letter"
)

// ExportSettings configures PDF/print export.
type ExportSettings struct {
	PageSize PageSize `json:"pageSize"`
	MarginMm float64  `json:"marginMm"`
}

// PageMetrics are the derived print dimensions for one export configuration.
type PageMetrics struct {
	PageSize        PageSize `json:"pageSize"`
	MarginMm        float64  `json:"marginMm"`
	MarginPt        float64  `json:"marginPt"`
	ContentWidthPx  float64  `json:"contentWidthPx"`
	ContentHeightPx float64  `json:"contentHeightPx"`
	PageLabel       string   `json:"pageLabel"`
}

type pageDims struct{ widthMm, heightMm float64 }

var pageDimensions = map[PageSize]pageDims{
	PageA4:     {widthMm: 210, heightMm: 297},
	PageLetter: {widthMm: 216, heightMm: 279},
}

func mmToPx(mm float64) float64 { return mm * 96 / 25.4 }
func mmToPt(mm float64) float64 { return mm * 72 / 25.4 }

// clampMargin keeps the margin between 4mm and a third of the page width.
func clampMargin(mm, pageWidthMm float64) float64 {
	if math.IsNaN(mm) || math.IsInf(mm, 0) {
		return 12
	}
	return math.Max(4, math.Min(pageWidthMm/3, mm))
}

// GetPageMetrics resolves export settings into concrete print dimensions.
func GetPageMetrics(settings ExportSettings) PageMetrics {
	dims, ok := pageDimensions[settings.PageSize]
	size := settings.PageSize
	if !ok {
		dims = pageDimensions[PageA4]
		size = PageA4
	}
	marginMm := clampMargin(settings.MarginMm, dims.widthMm)
	label := "A4"
	if size == PageLetter {
		label = "Letter"
	}
	return PageMetrics{
		PageSize:        size,
		MarginMm:        marginMm,
		MarginPt:        mmToPt(marginMm),
		ContentWidthPx:  mmToPx(math.Max(0, dims.widthMm-marginMm*2)),
		ContentHeightPx: mmToPx(math.Max(0, dims.heightMm-marginMm*2)),
		PageLabel:       label,
	}
}

// RenderMarkdown serialises the report as a markdown document for export.
func RenderMarkdown(r ReportData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Board Report\n\n")
	fmt.Fprintf(&b, "%s  \n%s  \n%s\n\n", r.PeriodLabel, r.DataSourceLabel, r.DataQualityBadge)

	b.WriteString("## Executive summary\n\n")
	for _, line := range r.ExecutiveSummary {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	if len(r.KPIs) > 0 {
		b.WriteString("\n## KPIs\n\n")
		b.WriteString("| KPI | Current | Scenario | Variance |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, k := range r.KPIs {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				k.Label, money(k.Current), moneyOrDash(k.Scenario), moneyOrDash(k.Variance))
		}
	}

	if len(r.PnlSummary) > 0 {
		b.WriteString("\n## P&L summary\n\n")
		b.WriteString("| Line | Current | Scenario | Variance |\n")
		b.WriteString("| --- | ---: | ---: | ---: |\n")
		for _, row := range r.PnlSummary {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				row.Label, money(row.Current), moneyOrDash(row.Scenario), moneyOrDash(row.Variance))
		}
	}

	writeDrivers := func(title string, result DriverResult) {
		fmt.Fprintf(&b, "\n## %s\n\n", title)
		if result.DisabledReason != "" {
			fmt.Fprintf(&b, "_%s_\n", result.DisabledReason)
			return
		}
		for _, item := range result.Items {
			fmt.Fprintf(&b, "- %s: %s (%s, %.0f%% of movement)\n",
				item.Label, moneyOrDash(item.Delta), pctString(item.PctDelta), item.ContributionPct)
		}
	}
	writeDrivers("Revenue drivers", r.RevenueDrivers)
	writeDrivers("Cost drivers", r.CostDrivers)

	if len(r.VarianceAttribution) > 0 {
		b.WriteString("\n## Scenario variance\n\n")
		for _, v := range r.VarianceAttribution {
			fmt.Fprintf(&b, "- %s: %s\n", v.Label, money(v.Amount))
		}
	}

	if len(r.ScenarioNotes) > 0 {
		b.WriteString("\n## Scenario assumptions\n\n")
		for _, note := range r.ScenarioNotes {
			fmt.Fprintf(&b, "- %s\n", note)
		}
	}

	return b.String()
}

func moneyOrDash(v *float64) string {
	if v == nil {
		return "—"
	}
	return money(*v)
}

var markdownRenderer = goldmark.New(goldmark.WithExtensions(extension.Table))

// RenderHTML converts the exported markdown into an HTML fragment for the
// print/PDF pipeline.
func RenderHTML(r ReportData) (string, error) {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(RenderMarkdown(r)), &buf); err != nil {
		return "", fmt.Errorf("render report html: %w", err)
	}
	return buf.String(), nil
}
