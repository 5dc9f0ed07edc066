// Package scenario serves the what-if assumption endpoints: read and save
// inputs, reset to recommended defaults and preview the transformed totals.
package scenario

import (
	"encoding/json"
	"io"
	"net/http"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/report"
	core "accounting_atlas/pkg/core/scenario"
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

// HandleScenario serves GET (current inputs) and PUT (save inputs). Saves are
// hydrated over the defaults, so a partial document from an older client
// cannot blank newer fields.
func HandleScenario(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, PUT, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, workspace.Scenario())
	case "PUT":
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		inputs, err := state.HydrateScenario(raw)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		workspace.SetScenario(inputs)
		log.Info().Bool("enabled", inputs.Enabled).Msg("scenario inputs saved")
		writeJSON(w, http.StatusOK, inputs)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleReset restores the recommended scenario inputs, keeping the clinic
// state and re-seeding state-dependent prices from the framework defaults.
func HandleReset(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	prev := workspace.Scenario()
	inputs := state.ScenarioForState(workspace.Defaults(), prev.State)
	workspace.SetScenario(inputs)
	writeJSON(w, http.StatusOK, inputs)
}

type previewResponse struct {
	Base           dream.Totals `json:"base"`
	Scenario       dream.Totals `json:"scenario"`
	Notes          []string     `json:"notes"`
	ProgramCount   float64      `json:"programCount"`
	PerProgramCost float64      `json:"perProgramCost"`
	PerAssessment  float64      `json:"perAssessmentCost"`
	MonthLabels    []string     `json:"monthLabels"`
}

// HandlePreview applies the saved inputs to the loaded P&L and returns base
// and transformed monthly totals side by side.
func HandlePreview(w http.ResponseWriter, r *http.Request) {
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
		http.Error(w, "no P&L loaded", http.StatusConflict)
		return
	}
	inputs := workspace.Scenario()
	base := dream.ComputeXeroTotals(pl)
	transformed := core.Apply(base, pl, inputs)

	writeJSON(w, http.StatusOK, previewResponse{
		Base:           base,
		Scenario:       transformed,
		Notes:          report.DescribeScenario(inputs),
		ProgramCount:   core.EffectiveProgramCount(inputs),
		PerProgramCost: core.ProgCostPerProgram(inputs),
		PerAssessment:  core.CbaCostPerAssessment(inputs),
		MonthLabels:    pl.MonthLabels,
	})
}
