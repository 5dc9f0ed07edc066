// Package ledger serves the transaction-level treatment endpoints: the
// effective ledger, per-transaction overrides, doctor rules and the
// override-aware P&L.
package ledger

import (
	"encoding/json"
	"net/http"
	"sort"

	core "accounting_atlas/pkg/core/ledger"
	"accounting_atlas/pkg/core/state"
	"accounting_atlas/pkg/core/store"

	"github.com/rs/zerolog/log"
)

var (
	workspace *state.Workspace
	repo      *store.LedgerRepo
)

// InitHandler wires the handlers to the shared workspace. repo may be nil
// when the server runs without a database.
func InitHandler(ws *state.Workspace, r *store.LedgerRepo) {
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

type effectiveLedgerResponse struct {
	Rows  []core.EffectiveTxn `json:"rows"`
	Total int                 `json:"total"`
}

// HandleEffectiveLedger resolves every loaded transaction through overrides
// and doctor rules and returns the expanded rows.
func HandleEffectiveLedger(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	gl := workspace.GL()
	if gl == nil {
		writeJSON(w, http.StatusOK, effectiveLedgerResponse{Rows: []core.EffectiveTxn{}})
		return
	}
	rows := core.BuildEffectiveLedger(gl.Txns, workspace.TxnOverrides(), workspace.DoctorRules())
	writeJSON(w, http.StatusOK, effectiveLedgerResponse{Rows: rows, Total: len(rows)})
}

// HandleEffectivePL rebuilds the P&L with ledger treatments applied. The
// includeNonOperating query flag keeps NON_OPERATING rows in the totals.
func HandleEffectivePL(w http.ResponseWriter, r *http.Request) {
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
	gl := workspace.GL()
	if pl == nil || gl == nil {
		http.Error(w, "both a P&L and a general ledger must be loaded", http.StatusConflict)
		return
	}
	rows := core.BuildEffectiveLedger(gl.Txns, workspace.TxnOverrides(), workspace.DoctorRules())
	include := r.URL.Query().Get("includeNonOperating") == "true"
	writeJSON(w, http.StatusOK, core.BuildEffectivePL(pl, rows, include))
}

// HandleOverrides serves the override collection: GET lists, POST upserts,
// DELETE removes by hash.
func HandleOverrides(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, DELETE, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, workspace.TxnOverrides())
	case "POST":
		var o core.TxnOverride
		if err := json.NewDecoder(r.Body).Decode(&o); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if o.Hash == "" {
			http.Error(w, "override hash is required", http.StatusBadRequest)
			return
		}
		workspace.UpsertTxnOverride(o)
		if dbReady() {
			if err := repo.SaveTxnOverride(r.Context(), userID(r), o); err != nil {
				log.Warn().Err(err).Str("hash", o.Hash).Msg("override persist failed")
			}
		}
		writeJSON(w, http.StatusOK, workspace.TxnOverrides())
	case "DELETE":
		hash := r.URL.Query().Get("hash")
		if hash == "" {
			http.Error(w, "hash query parameter is required", http.StatusBadRequest)
			return
		}
		workspace.RemoveTxnOverride(hash)
		if dbReady() {
			if err := repo.DeleteTxnOverride(r.Context(), userID(r), hash); err != nil {
				log.Warn().Err(err).Str("hash", hash).Msg("override delete failed")
			}
		}
		writeJSON(w, http.StatusOK, workspace.TxnOverrides())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleDoctorRules serves the doctor rule collection: GET lists, POST
// upserts, DELETE removes by contact id.
func HandleDoctorRules(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, POST, DELETE, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, workspace.DoctorRules())
	case "POST":
		var rule core.DoctorRule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if rule.ContactID == "" {
			http.Error(w, "contactId is required", http.StatusBadRequest)
			return
		}
		workspace.UpsertDoctorRule(rule)
		if dbReady() {
			if err := repo.SaveDoctorRule(r.Context(), userID(r), rule); err != nil {
				log.Warn().Err(err).Str("contactId", rule.ContactID).Msg("doctor rule persist failed")
			}
		}
		writeJSON(w, http.StatusOK, workspace.DoctorRules())
	case "DELETE":
		contactID := r.URL.Query().Get("contactId")
		if contactID == "" {
			http.Error(w, "contactId query parameter is required", http.StatusBadRequest)
			return
		}
		workspace.RemoveDoctorRule(contactID)
		if dbReady() {
			if err := repo.DeleteDoctorRule(r.Context(), userID(r), contactID); err != nil {
				log.Warn().Err(err).Str("contactId", contactID).Msg("doctor rule delete failed")
			}
		}
		writeJSON(w, http.StatusOK, workspace.DoctorRules())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// doctorEntry summarizes one inferred doctor from accounts-payable activity.
type doctorEntry struct {
	ContactID string  `json:"contactId"`
	Label     string  `json:"label"`
	Bills     int     `json:"bills"`
	Total     float64 `json:"total"`
	HasRule   bool    `json:"hasRule"`
}

// HandleDoctors scans the loaded ledger's payable rows and returns the
// inferred doctor directory, so rules can be created from real contacts
// instead of free-typed ids.
func HandleDoctors(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, OPTIONS")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return
	}
	if r.Method != "GET" {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	gl := workspace.GL()
	if gl == nil {
		writeJSON(w, http.StatusOK, []doctorEntry{})
		return
	}

	ruled := make(map[string]bool)
	for _, rule := range workspace.DoctorRules() {
		ruled[rule.ContactID] = true
	}

	byContact := make(map[string]*doctorEntry)
	for _, txn := range gl.Txns {
		if !core.IsAPBillTxn(txn) {
			continue
		}
		label := core.InferDoctorLabel(txn)
		if label == "" {
			continue
		}
		id := core.NormalizeContactID(label)
		entry, ok := byContact[id]
		if !ok {
			entry = &doctorEntry{ContactID: id, Label: label, HasRule: ruled[id]}
			byContact[id] = entry
		}
		entry.Bills++
		entry.Total += txn.Amount
	}

	out := make([]doctorEntry, 0, len(byContact))
	for _, entry := range byContact {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ContactID < out[j].ContactID })
	writeJSON(w, http.StatusOK, out)
}

// HandleDoctorPatterns serves GET and PUT for the doctor name patterns used
// by label inference.
func HandleDoctorPatterns(w http.ResponseWriter, r *http.Request) {
	cors(w, "GET, PUT, OPTIONS")
	switch r.Method {
	case "OPTIONS":
		w.WriteHeader(http.StatusOK)
	case "GET":
		writeJSON(w, http.StatusOK, workspace.DoctorPatterns())
	case "PUT":
		var patterns []string
		if err := json.NewDecoder(r.Body).Decode(&patterns); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		workspace.SetDoctorPatterns(patterns)
		writeJSON(w, http.StatusOK, workspace.DoctorPatterns())
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
