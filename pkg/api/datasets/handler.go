// Package datasets serves spreadsheet upload and dataset status endpoints.
package datasets

import (
	"encoding/json"
	"io"
	"net/http"

	"accounting_atlas/pkg/core/report"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/xero"

	"github.com/rs/zerolog/log"
)

var workspace *state.Workspace

// InitHandler wires the handlers to the shared workspace.
func InitHandler(ws *state.Workspace) {
	workspace = ws
}

const maxUploadBytes = 32 << 20

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

// readUpload accepts either a multipart form with a "file" field or a raw
// request body, so curl uploads work without form plumbing.
func readUpload(r *http.Request) ([]byte, error) {
	ct := r.Header.Get("Content-Type")
	if len(ct) >= 19 && ct[:19] == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, err
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, err
		}
		defer file.Close()
		return io.ReadAll(file)
	}
	return io.ReadAll(io.LimitReader(r.Body, maxUploadBytes))
}

type plUploadResponse struct {
	Months      []xero.MonthKey           `json:"months"`
	MonthLabels []string                  `json:"monthLabels"`
	Accounts    int                       `json:"accounts"`
	Fingerprint *state.DatasetFingerprint `json:"fingerprint"`
	Health      report.DataHealthSummary  `json:"health"`
}

// HandleUploadPL parses a Profit & Loss export and replaces the loaded P&L.
func HandleUploadPL(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	pl, err := xero.ParseProfitAndLoss(data)
	if err != nil {
		log.Warn().Err(err).Msg("P&L upload rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	workspace.SetPL(pl)
	log.Info().Int("months", len(pl.Months)).Int("accounts", len(pl.Accounts)).Msg("P&L loaded")

	writeJSON(w, http.StatusOK, plUploadResponse{
		Months:      pl.Months,
		MonthLabels: pl.MonthLabels,
		Accounts:    len(pl.Accounts),
		Fingerprint: state.FingerprintPL(pl),
		Health:      report.AnalyzeDataHealth(pl),
	})
}

type glUploadResponse struct {
	Txns        int                       `json:"txns"`
	Fingerprint *state.DatasetFingerprint `json:"fingerprint"`
}

// HandleUploadGL parses a General Ledger detail export and replaces the
// loaded ledger.
func HandleUploadGL(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := readUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	gl, err := xero.ParseGeneralLedger(data)
	if err != nil {
		log.Warn().Err(err).Msg("GL upload rejected")
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	workspace.SetGL(gl)
	log.Info().Int("txns", len(gl.Txns)).Msg("general ledger loaded")

	writeJSON(w, http.StatusOK, glUploadResponse{
		Txns:        len(gl.Txns),
		Fingerprint: state.FingerprintGL(gl),
	})
}

type statusResponse struct {
	PL     *state.DatasetFingerprint `json:"pl"`
	GL     *state.DatasetFingerprint `json:"gl"`
	Health *report.DataHealthSummary `json:"health,omitempty"`
}

// HandleStatus reports which datasets are loaded plus P&L health diagnostics.
func HandleStatus(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	resp := statusResponse{
		PL: state.FingerprintPL(workspace.PL()),
		GL: state.FingerprintGL(workspace.GL()),
	}
	if pl := workspace.PL(); pl != nil {
		health := report.AnalyzeDataHealth(pl)
		resp.Health = &health
	}
	writeJSON(w, http.StatusOK, resp)
}
