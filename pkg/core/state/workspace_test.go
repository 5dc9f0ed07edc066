package state

import (
	"encoding/json"
	"testing"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/ledger"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/xero"
)

func TestTemplateUndoRedo(t *testing.T) {
	w := NewWorkspace()
	v1 := w.Template()

	edited := dream.UpdateNodeLabel(v1, v1.Root.Children[0].ID, "Renamed")
	w.SetTemplate(edited, TemplateOptions{})

	if !w.CanUndo() || w.CanRedo() {
		t.Fatalf("undo=%v redo=%v", w.CanUndo(), w.CanRedo())
	}
	if !w.UndoTemplate() {
		t.Fatal("undo failed")
	}
	if w.Template().Root.Children[0].Label != v1.Root.Children[0].Label {
		t.Error("undo did not restore the previous template")
	}
	if !w.CanRedo() {
		t.Fatal("redo unavailable after undo")
	}
	if !w.RedoTemplate() {
		t.Fatal("redo failed")
	}
	if w.Template().Root.Children[0].Label != "Renamed" {
		t.Error("redo did not reapply the edit")
	}

	// a fresh edit clears the redo stack
	w.UndoTemplate()
	w.SetTemplate(dream.UpdateNodeLabel(w.Template(), v1.Root.Children[0].ID, "Other"), TemplateOptions{})
	if w.CanRedo() {
		t.Error("redo should be cleared by a new edit")
	}
}

func TestTemplateHistoryDepth(t *testing.T) {
	w := NewWorkspace()
	id := w.Template().Root.Children[0].ID
	for i := 0; i < 30; i++ {
		w.SetTemplate(dream.UpdateNodeLabel(w.Template(), id, "v"), TemplateOptions{})
	}
	undos := 0
	for w.UndoTemplate() {
		undos++
	}
	if undos != historyDepth {
		t.Errorf("undo depth = %d, want %d", undos, historyDepth)
	}
}

func TestSetTemplate_VersionPolicy(t *testing.T) {
	w := NewWorkspace()
	before := w.Template().Version

	w.SetTemplate(w.Template(), TemplateOptions{})
	if w.Template().Version != before+1 {
		t.Errorf("edit should bump version: %d", w.Template().Version)
	}

	w.SetTemplate(w.Template(), TemplateOptions{PreserveVersion: true, SkipHistory: true})
	if w.Template().Version != before+1 {
		t.Errorf("hydrate must not bump version: %d", w.Template().Version)
	}
}

func TestSnapshotAndOverrideUpserts(t *testing.T) {
	w := NewWorkspace()
	w.UpsertSnapshot(SnapshotItem{ID: "s1", Name: "First"})
	w.UpsertSnapshot(SnapshotItem{ID: "s2", Name: "Second"})
	w.UpsertSnapshot(SnapshotItem{ID: "s1", Name: "First v2"})

	snaps := w.Snapshots()
	if len(snaps) != 2 || snaps[0].Name != "First v2" {
		t.Errorf("snapshots = %+v", snaps)
	}

	w.SetActiveSnapshotID("s2")
	w.RemoveSnapshot("s2")
	if w.ActiveSnapshotID() != "" {
		t.Error("removing the active snapshot must clear the selection")
	}

	w.UpsertTxnOverride(ledger.TxnOverride{Hash: "h1", Treatment: ledger.TreatmentExclude})
	w.UpsertTxnOverride(ledger.TxnOverride{Hash: "h1", Treatment: ledger.TreatmentDeferred})
	overrides := w.TxnOverrides()
	if len(overrides) != 1 || overrides[0].Treatment != ledger.TreatmentDeferred {
		t.Errorf("overrides = %+v", overrides)
	}
	w.RemoveTxnOverride("h1")
	if len(w.TxnOverrides()) != 0 {
		t.Error("override not removed")
	}
}

func TestDoctorPatternsFallback(t *testing.T) {
	w := NewWorkspace()
	if got := w.DoctorPatterns(); len(got) != len(ledger.DefaultDoctorPatterns) {
		t.Errorf("patterns = %v", got)
	}
	w.SetDoctorPatterns([]string{"smith"})
	if got := w.DoctorPatterns(); len(got) != 1 || got[0] != "smith" {
		t.Errorf("patterns = %v", got)
	}
}

func TestHydrateScenario(t *testing.T) {
	in, err := HydrateScenario([]byte(`{"enabled":true,"cbaPrice":1475,"legacyTmsAccountMatchers":[]}`))
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if !in.Enabled || in.CbaPrice != 1475 {
		t.Errorf("stored fields lost: %+v", in)
	}
	// untouched fields keep defaults
	if in.ProgramPrice != 10960 || in.DoctorServiceFeePct != 15 {
		t.Errorf("defaults lost: %+v", in)
	}
	// empty matcher list is restored to defaults
	if len(in.LegacyTmsAccountMatchers) != 4 {
		t.Errorf("matchers = %v", in.LegacyTmsAccountMatchers)
	}

	if _, err := HydrateScenario([]byte(`{broken`)); err == nil {
		t.Error("expected error for malformed json")
	}

	empty, err := HydrateScenario(nil)
	if err != nil || empty.CbaPrice != 1325 {
		t.Errorf("nil blob should give defaults: %+v, %v", empty, err)
	}
}

func TestHydrateTemplate(t *testing.T) {
	stored := dream.DefaultTemplate()
	stored.Version = 7
	raw, _ := json.Marshal(stored)

	back, err := HydrateTemplate(raw)
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if back.Version != 7 {
		t.Errorf("hydrate bumped version: %d", back.Version)
	}

	fallback, err := HydrateTemplate([]byte(`{"id":"x"}`))
	if err != nil || fallback.Root == nil {
		t.Errorf("rootless blob should fall back to default: %v", err)
	}
}

func TestHydrateDefaults(t *testing.T) {
	d, err := HydrateDefaults([]byte(`{"doctorServiceFeePct":20}`))
	if err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if d.DoctorServiceFeePct != 20 {
		t.Errorf("stored fee lost: %f", d.DoctorServiceFeePct)
	}
	if d.SuggestedCbaPrice["NSW/QLD"] != 1325 || d.ExportSettings.MarginMm != 12 {
		t.Errorf("defaults lost: %+v", d)
	}
}

func TestScenarioForState(t *testing.T) {
	in := ScenarioForState(RecommendedDefaults(), scenario.StateWA)
	if in.State != scenario.StateWA {
		t.Errorf("state = %s", in.State)
	}
	if in.CbaPrice != 1475 || in.ProgramPrice != 11110 {
		t.Errorf("WA prices not applied: %f / %f", in.CbaPrice, in.ProgramPrice)
	}
	if in.CbaMriCost != 750 || in.ProgMriCost != 750 {
		t.Errorf("WA MRI cost not applied: %f / %f", in.CbaMriCost, in.ProgMriCost)
	}
	if in.CbaMriPatientFee != 770 {
		t.Errorf("WA MRI patient fee not applied: %f", in.CbaMriPatientFee)
	}

	// Defaults with no MRI cost entry fall back to the built-in per-state
	// figure instead of zero.
	bare := FrameworkDefaults{}
	if got := ScenarioForState(bare, scenario.StateWA).CbaMriCost; got != 750 {
		t.Errorf("WA fallback MRI cost = %f", got)
	}
	if got := ScenarioForState(bare, scenario.StateVIC).ProgMriCost; got != 0 {
		t.Errorf("VIC fallback MRI cost = %f", got)
	}

	// Blank state keeps the default (NSW/QLD) pricing.
	if got := ScenarioForState(bare, "").CbaMriCost; got != 380 {
		t.Errorf("default fallback MRI cost = %f", got)
	}
}

func TestFingerprints(t *testing.T) {
	pl := &xero.PL{
		Months: []string{"2025-07", "2025-08"},
		Accounts: []xero.Account{
			{Name: "Sales", Total: 1000},
			{Name: "Rent", Total: 500},
		},
	}
	fp := FingerprintPL(pl)
	if fp == nil || fp.ID != "pl-2m-2a" {
		t.Fatalf("fingerprint = %+v", fp)
	}
	same := FingerprintPL(pl)
	if fp.Hash != same.Hash {
		t.Error("fingerprint not deterministic")
	}
	pl.Accounts[0].Total = 2000
	if FingerprintPL(pl).Hash == fp.Hash {
		t.Error("total change must change the hash")
	}
	if FingerprintPL(nil) != nil {
		t.Error("nil P&L should fingerprint to nil")
	}

	tplFP := FingerprintTemplate(dream.DefaultTemplate())
	if tplFP.LayoutHash == "" {
		t.Error("layout hash empty")
	}
}
