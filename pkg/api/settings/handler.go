// Package settings serves the framework assumption defaults and moves the
// whole settings bundle (scenario, defaults, report config, doctor patterns)
// between the workspace and the database.
package settings

import (
	"encoding/json"
	"net/http"

	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/store"

	"github.com/rs/zerolog/log"
)

var (
	workspace *state.Workspace
	repo      *store.SettingsRepo
)

// InitHandler wires the handlers to the shared workspace. repo may be nil
// when the server runs without a database.
func InitHandler(ws *state.Workspace, r *store.SettingsRepo) {
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

// HandleDefaults serves GET and PUT for the framework assumption defaults.
// Saved documents are hydrated over the recommended set so partial payloads
// cannot blank a map.
func HandleDefaults(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, PUT, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, workspace.Defaults())
	case "PUT":
		var body json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defaults, err := state.HydrateDefaults(body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		workspace.SetDefaults(defaults)
		writeJSON(w, http.StatusOK, workspace.Defaults())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleResetDefaults restores the recommended assumption set.
func HandleResetDefaults(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	workspace.ResetDefaults()
	writeJSON(w, http.StatusOK, workspace.Defaults())
}

// HandleSave persists the current settings bundle to the database.
func HandleSave(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !dbReady() {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}

	blobs, err := marshalBlobs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := repo.SaveSettings(r.Context(), userID(r), blobs); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	log.Info().Str("user", userID(r)).Msg("settings saved")
	writeJSON(w, http.StatusOK, map[string]string{"status": string(state.SaveSaved)})
}

// HandleLoad hydrates the workspace from the database-stored settings.
func HandleLoad(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !dbReady() {
		http.Error(w, "no database configured", http.StatusServiceUnavailable)
		return
	}

	blobs, err := repo.GetSettings(r.Context(), userID(r))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	applyBlobs(blobs)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scenario":       workspace.Scenario(),
		"defaults":       workspace.Defaults(),
		"reportConfig":   workspace.ReportConfig(),
		"doctorPatterns": workspace.DoctorPatterns(),
	})
}

func marshalBlobs() (store.SettingsBlobs, error) {
	var blobs store.SettingsBlobs
	var err error
	if blobs.Scenario, err = json.Marshal(workspace.Scenario()); err != nil {
		return blobs, err
	}
	if blobs.Defaults, err = json.Marshal(workspace.Defaults()); err != nil {
		return blobs, err
	}
	if blobs.ReportConfig, err = json.Marshal(workspace.ReportConfig()); err != nil {
		return blobs, err
	}
	if blobs.DoctorPatterns, err = json.Marshal(workspace.DoctorPatterns()); err != nil {
		return blobs, err
	}
	return blobs, nil
}

// applyBlobs hydrates each stored blob over its defaults. A corrupt blob is
// logged and skipped rather than failing the whole load.
func applyBlobs(blobs store.SettingsBlobs) {
	if len(blobs.Scenario) > 0 {
		if inputs, err := state.HydrateScenario(blobs.Scenario); err == nil {
			workspace.SetScenario(inputs)
		} else {
			log.Warn().Err(err).Msg("stored scenario ignored")
		}
	}
	if len(blobs.Defaults) > 0 {
		if defaults, err := state.HydrateDefaults(blobs.Defaults); err == nil {
			workspace.SetDefaults(defaults)
		} else {
			log.Warn().Err(err).Msg("stored defaults ignored")
		}
	}
	if len(blobs.ReportConfig) > 0 {
		var cfg state.ReportConfig
		if err := json.Unmarshal(blobs.ReportConfig, &cfg); err == nil {
			workspace.SetReportConfig(cfg)
		} else {
			log.Warn().Err(err).Msg("stored report config ignored")
		}
	}
	if len(blobs.DoctorPatterns) > 0 {
		var patterns []string
		if err := json.Unmarshal(blobs.DoctorPatterns, &patterns); err == nil && len(patterns) > 0 {
			workspace.SetDoctorPatterns(patterns)
		}
	}
}
