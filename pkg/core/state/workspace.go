package state

import (
	"sync"
	"time"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/ledger"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/xero"
)

const historyDepth = 20

// SaveStatus tracks persistence progress for one saved artifact.
type SaveStatus string

const (
	SaveIdle   SaveStatus = "idle"
	SaveSaving SaveStatus = "saving"
	SaveSaved  SaveStatus = "saved"
	SaveError  SaveStatus = "error"
)

// SnapshotItem is one saved workspace snapshot as listed in the UI.
type SnapshotItem struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	OwnerEmail string           `json:"ownerEmail"`
	OwnerID    string           `json:"ownerId"`
	Role       string           `json:"role"`
	CreatedAt  string           `json:"createdAt"`
	UpdatedAt  string           `json:"updatedAt"`
	Summary    *SnapshotSummary `json:"summary,omitempty"`
}

// TemplateOptions modifies how SetTemplate records the change.
type TemplateOptions struct {
	// SkipHistory applies the template without pushing an undo entry.
	SkipHistory bool
	// PreserveVersion keeps the stored version instead of bumping it. Used
	// when hydrating persisted state, never for user edits.
	PreserveVersion bool
	// Quiet leaves the last-saved timestamp untouched.
	Quiet bool
}

// Workspace is one user's in-memory working state. All methods are safe for
// concurrent use by API handlers.
type Workspace struct {
	mu sync.Mutex

	pl         *xero.PL
	plLoadedAt time.Time
	gl         *xero.GL
	glLoadedAt time.Time

	template            *dream.Template
	templateHistory     []*dream.Template
	templateFuture      []*dream.Template
	lastTemplateSavedAt time.Time

	scenario scenario.Inputs
	defaults FrameworkDefaults

	reportConfig     ReportConfig
	activeSnapshotID string
	snapshots        []SnapshotItem

	txnOverrides   []ledger.TxnOverride
	doctorRules    []ledger.DoctorRule
	doctorPatterns []string
}

// NewWorkspace returns a workspace seeded with the default template, scenario
// and framework assumptions.
func NewWorkspace() *Workspace {
	return &Workspace{
		template:     dream.DefaultTemplate(),
		scenario:     scenario.DefaultInputs(),
		defaults:     RecommendedDefaults(),
		reportConfig: DefaultReportConfig(),
	}
}

// SetPL installs a new P&L dataset (nil clears it).
func (w *Workspace) SetPL(pl *xero.PL) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.pl = pl
	if pl != nil {
		w.plLoadedAt = time.Now().UTC()
	} else {
		w.plLoadedAt = time.Time{}
	}
}

// PL returns the loaded P&L, or nil.
func (w *Workspace) PL() *xero.PL {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pl
}

// SetGL installs a new general ledger dataset (nil clears it).
func (w *Workspace) SetGL(gl *xero.GL) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.gl = gl
	if gl != nil {
		w.glLoadedAt = time.Now().UTC()
	} else {
		w.glLoadedAt = time.Time{}
	}
}

// GL returns the loaded ledger, or nil.
func (w *Workspace) GL() *xero.GL {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.gl
}

// Template returns the active template.
func (w *Workspace) Template() *dream.Template {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.template
}

// SetTemplate installs a template after metadata repair, pushing the previous
// one onto the undo stack and clearing redo.
func (w *Workspace) SetTemplate(t *dream.Template, opts TemplateOptions) {
	w.mu.Lock()
	defer w.mu.Unlock()
	next := dream.EnsureTemplateMetadata(t, dream.MetadataOptions{PreserveVersion: opts.PreserveVersion})
	if !opts.SkipHistory {
		w.templateHistory = pushHistory(w.templateHistory, w.template)
	}
	w.template = next
	w.templateFuture = nil
	if !opts.Quiet {
		w.lastTemplateSavedAt = time.Now().UTC()
	}
}

// ResetTemplate restores the default template, keeping the current one
// undoable.
func (w *Workspace) ResetTemplate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.templateHistory = pushHistory(w.templateHistory, w.template)
	w.templateFuture = nil
	w.template = dream.EnsureTemplateMetadata(dream.DefaultTemplate(), dream.MetadataOptions{PreserveVersion: true})
	w.lastTemplateSavedAt = time.Now().UTC()
}

// UndoTemplate steps back one template edit. Returns false with an empty
// history.
func (w *Workspace) UndoTemplate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.templateHistory) == 0 {
		return false
	}
	prev := w.templateHistory[0]
	w.templateHistory = w.templateHistory[1:]
	w.templateFuture = pushHistory(w.templateFuture, w.template)
	w.template = prev
	w.lastTemplateSavedAt = time.Now().UTC()
	return true
}

// RedoTemplate reapplies the most recently undone edit.
func (w *Workspace) RedoTemplate() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.templateFuture) == 0 {
		return false
	}
	next := w.templateFuture[0]
	w.templateFuture = w.templateFuture[1:]
	w.templateHistory = pushHistory(w.templateHistory, w.template)
	w.template = next
	w.lastTemplateSavedAt = time.Now().UTC()
	return true
}

// CanUndo reports whether an undo step exists.
func (w *Workspace) CanUndo() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.templateHistory) > 0
}

// CanRedo reports whether a redo step exists.
func (w *Workspace) CanRedo() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.templateFuture) > 0
}

func pushHistory(stack []*dream.Template, t *dream.Template) []*dream.Template {
	next := append([]*dream.Template{t}, stack...)
	if len(next) > historyDepth {
		next = next[:historyDepth]
	}
	return next
}

// Scenario returns the current scenario inputs.
func (w *Workspace) Scenario() scenario.Inputs {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scenario
}

// SetScenario replaces the scenario inputs wholesale.
func (w *Workspace) SetScenario(in scenario.Inputs) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scenario = in
}

// Defaults returns the framework assumption set.
func (w *Workspace) Defaults() FrameworkDefaults {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.defaults
}

// SetDefaults replaces the framework assumption set, repairing export
// settings.
func (w *Workspace) SetDefaults(d FrameworkDefaults) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d.ExportSettings = EnsureExportSettings(d.ExportSettings)
	w.defaults = d
}

// ResetDefaults restores the recommended assumption set.
func (w *Workspace) ResetDefaults() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.defaults = RecommendedDefaults()
}

// ReportConfig returns the pinned report configuration.
func (w *Workspace) ReportConfig() ReportConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reportConfig
}

// SetReportConfig replaces the report configuration, filling blanks.
func (w *Workspace) SetReportConfig(cfg ReportConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reportConfig = EnsureReportConfig(cfg)
}

// Snapshots lists the saved snapshots, most recent first.
func (w *Workspace) Snapshots() []SnapshotItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]SnapshotItem{}, w.snapshots...)
}

// UpsertSnapshot inserts or replaces a snapshot, moving it to the front.
func (w *Workspace) UpsertSnapshot(snap SnapshotItem) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rest := w.snapshots[:0:0]
	for _, s := range w.snapshots {
		if s.ID != snap.ID {
			rest = append(rest, s)
		}
	}
	w.snapshots = append([]SnapshotItem{snap}, rest...)
}

// RemoveSnapshot deletes a snapshot and clears it as active if needed.
func (w *Workspace) RemoveSnapshot(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.snapshots[:0:0]
	for _, s := range w.snapshots {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	w.snapshots = kept
	if w.activeSnapshotID == id {
		w.activeSnapshotID = ""
	}
}

// SetActiveSnapshotID marks the snapshot the workspace was loaded from.
func (w *Workspace) SetActiveSnapshotID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.activeSnapshotID = id
}

// ActiveSnapshotID returns the snapshot the workspace was loaded from, or "".
func (w *Workspace) ActiveSnapshotID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeSnapshotID
}

// TxnOverrides lists the per-transaction treatment overrides.
func (w *Workspace) TxnOverrides() []ledger.TxnOverride {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ledger.TxnOverride{}, w.txnOverrides...)
}

// UpsertTxnOverride inserts or replaces an override keyed by hash.
func (w *Workspace) UpsertTxnOverride(o ledger.TxnOverride) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rest := w.txnOverrides[:0:0]
	for _, existing := range w.txnOverrides {
		if existing.Hash != o.Hash {
			rest = append(rest, existing)
		}
	}
	w.txnOverrides = append([]ledger.TxnOverride{o}, rest...)
}

// RemoveTxnOverride deletes the override for one transaction hash.
func (w *Workspace) RemoveTxnOverride(hash string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.txnOverrides[:0:0]
	for _, o := range w.txnOverrides {
		if o.Hash != hash {
			kept = append(kept, o)
		}
	}
	w.txnOverrides = kept
}

// DoctorRules lists the doctor treatment rules.
func (w *Workspace) DoctorRules() []ledger.DoctorRule {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]ledger.DoctorRule{}, w.doctorRules...)
}

// UpsertDoctorRule inserts or replaces a rule keyed by contact id.
func (w *Workspace) UpsertDoctorRule(rule ledger.DoctorRule) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rest := w.doctorRules[:0:0]
	for _, r := range w.doctorRules {
		if r.ContactID != rule.ContactID {
			rest = append(rest, r)
		}
	}
	w.doctorRules = append([]ledger.DoctorRule{rule}, rest...)
}

// RemoveDoctorRule deletes the rule for one contact id.
func (w *Workspace) RemoveDoctorRule(contactID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	kept := w.doctorRules[:0:0]
	for _, r := range w.doctorRules {
		if r.ContactID != contactID {
			kept = append(kept, r)
		}
	}
	w.doctorRules = kept
}

// DoctorPatterns returns the configured doctor matcher patterns, falling back
// to the built-in practitioner list.
func (w *Workspace) DoctorPatterns() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.doctorPatterns) == 0 {
		return append([]string{}, ledger.DefaultDoctorPatterns...)
	}
	return append([]string{}, w.doctorPatterns...)
}

// SetDoctorPatterns replaces the doctor matcher patterns.
func (w *Workspace) SetDoctorPatterns(patterns []string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.doctorPatterns = append([]string{}, patterns...)
}
