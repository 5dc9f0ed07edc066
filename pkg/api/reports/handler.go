// Package reports serves the assembled board report, narrative insights and
// markdown/HTML exports.
package reports

import (
	"encoding/json"
	"net/http"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/report"
	scen "accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/state"

	"github.com/rs/zerolog/log"
)

var workspace *state.Workspace

// InitHandler wires the handlers to the shared workspace.
func InitHandler(ws *state.Workspace) {
	workspace = ws
}

func cors(w http.ResponseWriter, methods string) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// configOverride carries optional per-request report settings. Omitted fields
// fall back to the workspace report config.
type configOverride struct {
	DataSource      report.DataSource     `json:"dataSource"`
	IncludeScenario *bool                 `json:"includeScenario"`
	ComparisonMode  report.ComparisonMode `json:"comparisonMode"`
}

func resolveConfig(r *http.Request) state.ReportConfig {
	cfg := state.EnsureReportConfig(workspace.ReportConfig())
	if r.Method != "POST" {
		return cfg
	}
	var override configOverride
	if err := json.NewDecoder(r.Body).Decode(&override); err != nil {
		return cfg
	}
	if override.DataSource != "" {
		cfg.DataSource = override.DataSource
	}
	if override.IncludeScenario != nil {
		cfg.IncludeScenario = *override.IncludeScenario
	}
	if override.ComparisonMode != "" {
		cfg.ComparisonMode = override.ComparisonMode
	}
	return cfg
}

func buildReport(cfg state.ReportConfig) report.ReportData {
	return report.GetReportData(report.Options{
		DataSource:      cfg.DataSource,
		PL:              workspace.PL(),
		Template:        workspace.Template(),
		Scenario:        workspace.Scenario(),
		IncludeScenario: cfg.IncludeScenario,
		ComparisonMode:  cfg.ComparisonMode,
	})
}

// HandleReport assembles the full report. GET uses the saved report config;
// POST accepts a config override in the body.
func HandleReport(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" && r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := resolveConfig(r)
	data := buildReport(cfg)
	log.Info().
		Str("requested", string(data.DataSourceRequested)).
		Str("used", string(data.DataSourceUsed)).
		Msg("report assembled")
	writeJSON(w, http.StatusOK, data)
}

// HandleReportConfig serves GET and PUT for the saved report configuration.
func HandleReportConfig(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, PUT, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, state.EnsureReportConfig(workspace.ReportConfig()))
	case "PUT":
		var cfg state.ReportConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		cfg = state.EnsureReportConfig(cfg)
		workspace.SetReportConfig(cfg)
		writeJSON(w, http.StatusOK, cfg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleInsights returns the narrative insight feed for the loaded P&L.
func HandleInsights(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	pl := workspace.PL()
	if pl == nil {
		writeJSON(w, http.StatusOK, []report.Insight{})
		return
	}
	base := dream.ComputeXeroTotals(pl)
	var scenarioNet []float64
	if in := workspace.Scenario(); in.Enabled {
		scenarioNet = scen.Apply(base, pl, in).Net
	}
	writeJSON(w, http.StatusOK, report.AllInsights(pl, base.Net, scenarioNet, pl.MonthLabels))
}

// HandleHealth returns the data health summary for the loaded P&L.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pl := workspace.PL()
	if pl == nil {
		writeJSON(w, http.StatusOK, report.DataHealthSummary{Gaps: []string{}, Anomalies: []string{}})
		return
	}
	writeJSON(w, http.StatusOK, report.AnalyzeDataHealth(pl))
}

// HandleExport renders the report as markdown (default) or HTML, controlled
// by the "format" query parameter. Page metrics come from the saved export
// settings.
func HandleExport(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data := buildReport(state.EnsureReportConfig(workspace.ReportConfig()))
	markdown := report.RenderMarkdown(data)
	settings := state.EnsureExportSettings(workspace.Defaults().ExportSettings)
	metrics := report.GetPageMetrics(settings)

	switch r.URL.Query().Get("format") {
	case "html":
		html, err := report.RenderHTML(data)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"html":    html,
			"metrics": metrics,
		})
	default:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"markdown": markdown,
			"metrics":  metrics,
		})
	}
}
