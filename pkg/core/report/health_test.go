package report

import (
	"strings"
	"testing"

	"accounting_atlas/pkg/core/xero"
)

func TestAnalyzeDataHealth_CleanData(t *testing.T) {
	summary := AnalyzeDataHealth(reportPL())
	if summary.MonthsDetected != 6 {
		t.Errorf("months = %d", summary.MonthsDetected)
	}
	if summary.RangeLabel != "Feb 2025 → Jul 2025" {
		t.Errorf("range = %q", summary.RangeLabel)
	}
	if len(summary.Gaps) != 0 || len(summary.Anomalies) != 0 {
		t.Errorf("gaps = %v anomalies = %v", summary.Gaps, summary.Anomalies)
	}
}

func TestAnalyzeDataHealth_GapsAndAnomalies(t *testing.T) {
	pl := &xero.PL{
		Months:      []string{"2025-01", "2025-02", "2025-05", "2025-05"},
		MonthLabels: []string{"Jan 2025", "Feb 2025", "May 2025", "May 2025"},
		Accounts: []xero.Account{
			{Name: "Sales", Section: xero.SectionTradingIncome, Values: []float64{100, 200, 0, 0}},
			{Name: "Short", Section: xero.SectionOperatingExpenses, Values: []float64{10, 10}},
		},
	}
	summary := AnalyzeDataHealth(pl)

	if len(summary.Gaps) != 1 || !strings.Contains(summary.Gaps[0], "2 month gaps") {
		t.Errorf("gaps = %v", summary.Gaps)
	}
	joined := strings.Join(summary.Anomalies, " | ")
	if !strings.Contains(joined, "Duplicate month columns detected") {
		t.Errorf("anomalies = %v", summary.Anomalies)
	}
	if !strings.Contains(joined, "1 accounts had missing month values (padded)") {
		t.Errorf("anomalies = %v", summary.Anomalies)
	}
	if !strings.Contains(joined, "No activity detected for") {
		t.Errorf("anomalies = %v", summary.Anomalies)
	}
}

func TestInsights(t *testing.T) {
	series := []float64{100, 100, 100, 200, 200, 200}

	trend := TrendInsights(series)
	if len(trend) != 1 || !strings.Contains(trend[0].Detail, "improving") {
		t.Errorf("trend = %+v", trend)
	}
	if !strings.Contains(trend[0].Detail, "100.0%") {
		t.Errorf("trend pct = %q", trend[0].Detail)
	}

	short := TrendInsights([]float64{1, 2})
	if short[0].Title != "Not enough history" {
		t.Errorf("short = %+v", short)
	}

	variance := VarianceInsights(series, []float64{150, 150, 150, 250, 250, 250})
	if !strings.Contains(variance[0].Detail, "uplift of $300") {
		t.Errorf("variance = %q", variance[0].Detail)
	}

	spike := []float64{100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 100, 1000}
	anomalies := AnomalyInsights(spike, nil)
	if len(anomalies) != 1 || !strings.Contains(anomalies[0].Detail, "Month 12") {
		t.Errorf("anomalies = %+v", anomalies)
	}

	if got := DataQualityInsights(nil); got[0].Title != "Missing data" {
		t.Errorf("quality = %+v", got)
	}
}

func TestPageMetrics(t *testing.T) {
	m := GetPageMetrics(ExportSettings{PageSize: PageA4, MarginMm: 12})
	if m.PageLabel != "A4" || m.MarginMm != 12 {
		t.Errorf("metrics = %+v", m)
	}

	// margin is clamped to [4, width/3]
	clamped := GetPageMetrics(ExportSettings{PageSize: PageLetter, MarginMm: 500})
	if clamped.MarginMm != 72 {
		t.Errorf("clamped margin = %f, want 72", clamped.MarginMm)
	}
	low := GetPageMetrics(ExportSettings{PageSize: PageA4, MarginMm: 1})
	if low.MarginMm != 4 {
		t.Errorf("low margin = %f, want 4", low.MarginMm)
	}

	// unknown size falls back to A4
	fallback := GetPageMetrics(ExportSettings{PageSize: "tabloid", MarginMm: 12})
	if fallback.PageSize != PageA4 {
		t.Errorf("fallback = %+v", fallback)
	}
}

func TestRenderMarkdownAndHTML(t *testing.T) {
	r := GetReportData(Options{
		DataSource: SourceLegacy,
		PL:         reportPL(),
		Template:   reportTemplate(),
	})

	md := RenderMarkdown(r)
	for _, want := range []string{"# Board Report", "## Executive summary", "## KPIs", "| TTM net profit |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}

	html, err := RenderHTML(r)
	if err != nil {
		t.Fatalf("render html: %v", err)
	}
	if !strings.Contains(html, "<h1") || !strings.Contains(html, "<table") {
		t.Errorf("html output incomplete: %.120s", html)
	}
}
