// Package template serves the mapping template: load, save, tolerant import,
// structural edits and undo/redo.
package template

import (
	"encoding/json"
	"io"
	"net/http"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/store"
	"accounting_atlas/pkg/core/utils"

	"github.com/rs/zerolog/log"
)

var (
	workspace *state.Workspace
	repo      *store.TemplateRepo
)

// InitHandler wires the handlers to the shared workspace. repo may be nil
// when the server runs without a database.
func InitHandler(ws *state.Workspace, r *store.TemplateRepo) {
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

// persist saves the active template when a database is configured. Persistence
// failures are logged, not surfaced: the in-memory workspace stays the source
// of truth for the session.
func persist(r *http.Request) {
	if repo == nil || store.GetPool() == nil {
		return
	}
	if err := repo.SaveTemplate(r.Context(), userID(r), workspace.Template()); err != nil {
		log.Warn().Err(err).Msg("template persist failed")
	}
}

type templateResponse struct {
	Template    *dream.Template           `json:"template"`
	Issues      []dream.ValidationIssue   `json:"issues"`
	Fingerprint state.TemplateFingerprint `json:"fingerprint"`
	CanUndo     bool                      `json:"canUndo"`
	CanRedo     bool                      `json:"canRedo"`
}

func currentResponse() templateResponse {
	t := workspace.Template()
	return templateResponse{
		Template:    t,
		Issues:      dream.ValidateTemplate(t),
		Fingerprint: state.FingerprintTemplate(t),
		CanUndo:     workspace.CanUndo(),
		CanRedo:     workspace.CanRedo(),
	}
}

// HandleTemplate serves GET (current template) and PUT (replace template).
func HandleTemplate(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, PUT, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, currentResponse())
	case "PUT":
		var req struct {
			Template    *dream.Template `json:"template"`
			SkipHistory bool            `json:"skipHistory"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if req.Template == nil || req.Template.Root == nil {
			http.Error(w, "template with a root node is required", http.StatusBadRequest)
			return
		}
		if issues := dream.ValidateTemplate(req.Template); dream.HasErrors(issues) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"issues": issues})
			return
		}
		workspace.SetTemplate(req.Template, state.TemplateOptions{SkipHistory: req.SkipHistory})
		persist(r)
		writeJSON(w, http.StatusOK, currentResponse())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleImport accepts a pasted template document. The body may be strict
// JSON, sloppy JSON or HJSON; parsing is tolerant and falls back to the
// default template only on a hopeless document.
func HandleImport(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var t dream.Template
	normalized, err := utils.SmartParse(string(raw), &t)
	if err != nil || t.Root == nil {
		log.Warn().Err(err).Msg("template import rejected")
		http.Error(w, "could not parse template document", http.StatusUnprocessableEntity)
		return
	}
	hydrated, err := state.HydrateTemplate([]byte(normalized))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if issues := dream.ValidateTemplate(hydrated); dream.HasErrors(issues) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{"issues": issues})
		return
	}
	workspace.SetTemplate(hydrated, state.TemplateOptions{})
	persist(r)
	log.Info().Str("template", hydrated.ID).Msg("template imported")
	writeJSON(w, http.StatusOK, currentResponse())
}

type editRequest struct {
	Op             string      `json:"op"`
	NodeID         string      `json:"nodeId"`
	ParentID       string      `json:"parentId"`
	Label          string      `json:"label"`
	MappedAccounts []string    `json:"mappedAccounts"`
	Node           *dream.Node `json:"node"`
	FromIdx        int         `json:"fromIdx"`
	ToIdx          int         `json:"toIdx"`
}

// HandleEdit applies one structural edit to the active template. Every edit
// produces a fresh tree and an undo history entry.
func HandleEdit(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req editRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	t := workspace.Template()
	var next *dream.Template
	switch req.Op {
	case "updateLabel":
		next = dream.UpdateNodeLabel(t, req.NodeID, req.Label)
	case "setLineMappings":
		next = dream.SetLineMappings(t, req.NodeID, req.MappedAccounts)
	case "addLine":
		if req.Node == nil {
			http.Error(w, "node is required for addLine", http.StatusBadRequest)
			return
		}
		next = dream.AddLine(t, req.ParentID, req.Node)
	case "addGroup":
		if req.Node == nil {
			http.Error(w, "node is required for addGroup", http.StatusBadRequest)
			return
		}
		next = dream.AddGroup(t, req.ParentID, req.Node)
	case "removeNode":
		next = dream.RemoveNode(t, req.NodeID)
	case "moveChild":
		next = dream.MoveChild(t, req.ParentID, req.FromIdx, req.ToIdx)
	default:
		http.Error(w, "unknown edit op: "+req.Op, http.StatusBadRequest)
		return
	}

	workspace.SetTemplate(next, state.TemplateOptions{})
	persist(r)
	writeJSON(w, http.StatusOK, currentResponse())
}

// HandleHistory serves undo, redo and reset as POST actions.
func HandleHistory(w http.ResponseWriter, r *http.Request) {
	cors(w, "POST, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "POST" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Action string `json:"action"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	switch req.Action {
	case "undo":
		workspace.UndoTemplate()
	case "redo":
		workspace.RedoTemplate()
	case "reset":
		workspace.ResetTemplate()
	default:
		http.Error(w, "unknown history action: "+req.Action, http.StatusBadRequest)
		return
	}
	persist(r)
	writeJSON(w, http.StatusOK, currentResponse())
}
