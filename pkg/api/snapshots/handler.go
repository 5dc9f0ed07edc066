// Package snapshots serves saved workspace snapshots: create, list, restore
// and delete. When a database is configured snapshots persist across server
// restarts; otherwise they live in process memory only.
package snapshots

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/ledger"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/store"
	"accounting_atlas/pkg/core/xero"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	workspace *state.Workspace
	repo      *store.SnapshotRepo

	// memPayloads keeps snapshot payloads addressable when no database is
	// configured.
	memMu       sync.Mutex
	memPayloads = map[string]json.RawMessage{}
)

// InitHandler wires the handlers to the shared workspace. repo may be nil
// when the server runs without a database.
func InitHandler(ws *state.Workspace, r *store.SnapshotRepo) {
	workspace = ws
	repo = r
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

func userID(r *http.Request) string {
	if id := r.Header.Get("X-User-Id"); id != "" {
		return id
	}
	return "local"
}

func dbReady() bool {
	return repo != nil && store.GetPool() != nil
}

// snapshotPayload is the full workspace state frozen into one snapshot.
type snapshotPayload struct {
	PL             *xero.PL                 `json:"pl,omitempty"`
	GL             *xero.GL                 `json:"gl,omitempty"`
	Template       *dream.Template          `json:"template"`
	Scenario       scenario.Inputs          `json:"scenario"`
	Defaults       state.FrameworkDefaults  `json:"defaults"`
	ReportConfig   state.ReportConfig       `json:"reportConfig"`
	TxnOverrides   []ledger.TxnOverride     `json:"txnOverrides,omitempty"`
	DoctorRules    []ledger.DoctorRule      `json:"doctorRules,omitempty"`
	DoctorPatterns []string                 `json:"doctorPatterns,omitempty"`
}

func capturePayload() snapshotPayload {
	return snapshotPayload{
		PL:             workspace.PL(),
		GL:             workspace.GL(),
		Template:       workspace.Template(),
		Scenario:       workspace.Scenario(),
		Defaults:       workspace.Defaults(),
		ReportConfig:   workspace.ReportConfig(),
		TxnOverrides:   workspace.TxnOverrides(),
		DoctorRules:    workspace.DoctorRules(),
		DoctorPatterns: workspace.DoctorPatterns(),
	}
}

func restorePayload(p snapshotPayload) {
	workspace.SetPL(p.PL)
	workspace.SetGL(p.GL)
	if p.Template != nil {
		workspace.SetTemplate(p.Template, state.TemplateOptions{SkipHistory: true, PreserveVersion: true, Quiet: true})
	}
	workspace.SetScenario(p.Scenario)
	workspace.SetDefaults(p.Defaults)
	workspace.SetReportConfig(p.ReportConfig)
	for _, o := range p.TxnOverrides {
		workspace.UpsertTxnOverride(o)
	}
	for _, rule := range p.DoctorRules {
		workspace.UpsertDoctorRule(rule)
	}
	if len(p.DoctorPatterns) > 0 {
		workspace.SetDoctorPatterns(p.DoctorPatterns)
	}
}

// HandleSnapshots serves GET (list) and POST (create from current state).
func HandleSnapshots(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		if dbReady() {
			items, err := repo.ListSnapshots(r.Context(), userID(r))
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			if items == nil {
				items = []state.SnapshotItem{}
			}
			writeJSON(w, http.StatusOK, items)
			return
		}
		writeJSON(w, http.StatusOK, workspace.Snapshots())
	case "POST":
		var req struct {
			Name       string `json:"name"`
			OwnerEmail string `json:"ownerEmail"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			req.Name = "Snapshot " + time.Now().UTC().Format("2006-01-02 15:04")
		}

		payload := capturePayload()
		raw, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		summary := state.BuildSnapshotSummary(payload.PL, payload.Template, payload.Scenario, payload.ReportConfig)

		id := uuid.NewString()
		owner := userID(r)
		if dbReady() {
			stored, err := repo.CreateSnapshot(r.Context(), store.SnapshotRecord{
				ID:         id,
				Name:       req.Name,
				OwnerID:    owner,
				OwnerEmail: req.OwnerEmail,
				Role:       "owner",
				Payload:    raw,
				Summary:    &summary,
			})
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			id = stored
		} else {
			memMu.Lock()
			memPayloads[id] = raw
			memMu.Unlock()
		}

		now := time.Now().UTC().Format(time.RFC3339)
		item := state.SnapshotItem{
			ID:         id,
			Name:       req.Name,
			OwnerID:    owner,
			OwnerEmail: req.OwnerEmail,
			Role:       "owner",
			CreatedAt:  now,
			UpdatedAt:  now,
			Summary:    &summary,
		}
		workspace.UpsertSnapshot(item)
		workspace.SetActiveSnapshotID(id)
		log.Info().Str("id", id).Str("name", req.Name).Msg("snapshot created")
		writeJSON(w, http.StatusOK, item)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func loadPayload(r *http.Request, id string) (snapshotPayload, bool, error) {
	var payload snapshotPayload
	if dbReady() {
		rec, err := repo.GetSnapshot(r.Context(), id)
		if err != nil {
			return payload, false, err
		}
		if rec == nil {
			return payload, false, nil
		}
		if err := json.Unmarshal(rec.Payload, &payload); err != nil {
			return payload, false, err
		}
		return payload, true, nil
	}
	memMu.Lock()
	raw, ok := memPayloads[id]
	memMu.Unlock()
	if !ok {
		return payload, false, nil
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return payload, false, err
	}
	return payload, true, nil
}

// HandleSnapshot serves one snapshot by the "id" query parameter: GET returns
// it with its payload, POST restores it into the workspace, DELETE removes it.
func HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, DELETE, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id query parameter is required", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case "GET":
		payload, found, err := loadPayload(r, id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, payload)
	case "POST":
		payload, found, err := loadPayload(r, id)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if !found {
			http.Error(w, "snapshot not found", http.StatusNotFound)
			return
		}
		restorePayload(payload)
		workspace.SetActiveSnapshotID(id)
		log.Info().Str("id", id).Msg("snapshot restored")
		writeJSON(w, http.StatusOK, map[string]string{"restored": id})
	case "DELETE":
		if dbReady() {
			if err := repo.DeleteSnapshot(r.Context(), id); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
		} else {
			memMu.Lock()
			delete(memPayloads, id)
			memMu.Unlock()
		}
		workspace.RemoveSnapshot(id)
		writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
