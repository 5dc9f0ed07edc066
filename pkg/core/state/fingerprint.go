package state

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/report"
	"accounting_atlas/pkg/core/scenario"
	"accounting_atlas/pkg/core/xero"
)

// DatasetFingerprint identifies a loaded dataset cheaply enough to detect
// when a snapshot was built from different data.
type DatasetFingerprint struct {
	ID    string `json:"id"`
	Hash  string `json:"hash"`
	Label string `json:"label"`
}

// hashString36 is the 32-bit shift-accumulate hash rendered base36, used only
// for fingerprints (overrides use the hex variant in the ledger package).
func hashString36(s string) string {
	var h int32
	for _, u := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(u)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}

// FingerprintPL fingerprints a P&L from its shape and the first 25 account
// totals.
func FingerprintPL(pl *xero.PL) *DatasetFingerprint {
	if pl == nil {
		return nil
	}
	base := fmt.Sprintf("%dm-%da", len(pl.Months), len(pl.Accounts))
	sample := pl.Accounts
	if len(sample) > 25 {
		sample = sample[:25]
	}
	parts := make([]string, len(sample))
	for i, a := range sample {
		parts[i] = fmt.Sprintf("%s:%d", a.Name, int64(math.Round(a.Total)))
	}
	hash := hashString36(strings.Join(pl.Months, ",") + "|" + strings.Join(parts, "|"))
	return &DatasetFingerprint{ID: "pl-" + base, Hash: hash, Label: base}
}

// FingerprintGL fingerprints a general ledger from its first 25 transactions.
func FingerprintGL(gl *xero.GL) *DatasetFingerprint {
	if gl == nil {
		return nil
	}
	base := fmt.Sprintf("%dtxns", len(gl.Txns))
	sample := gl.Txns
	if len(sample) > 25 {
		sample = sample[:25]
	}
	parts := make([]string, len(sample))
	for i, t := range sample {
		parts[i] = fmt.Sprintf("%s-%s-%d", t.Account, t.Date, int64(math.Round(t.Amount)))
	}
	return &DatasetFingerprint{ID: "gl-" + base, Hash: hashString36(strings.Join(parts, "|")), Label: base}
}

// TemplateFingerprint captures the template identity plus a layout hash that
// changes whenever the tree structure or mappings change.
type TemplateFingerprint struct {
	TemplateVersion string `json:"templateVersion"`
	LayoutHash      string `json:"layoutHash"`
}

// FingerprintTemplate hashes the template's serialized tree.
func FingerprintTemplate(t *dream.Template) TemplateFingerprint {
	version := t.ID
	if version == "" {
		version = "template"
	}
	raw, err := json.Marshal(t.Root)
	if err != nil {
		raw = []byte("{}")
	}
	return TemplateFingerprint{TemplateVersion: version, LayoutHash: hashString36(string(raw))}
}

// SnapshotSummary is the headline view stored alongside a snapshot so the
// snapshot list can render without re-running the report.
type SnapshotSummary struct {
	KPIs            []report.SummaryRow `json:"kpis"`
	PeriodLabel     string              `json:"periodLabel"`
	ComparisonLabel string              `json:"comparisonLabel"`
	MovementBadge   string              `json:"movementBadge"`
	DataSourceUsed  report.DataSource   `json:"dataSourceUsed"`
}

// BuildSnapshotSummary runs the report under the snapshot's pinned config and
// extracts the headline fields.
func BuildSnapshotSummary(pl *xero.PL, t *dream.Template, in scenario.Inputs, cfg ReportConfig) SnapshotSummary {
	cfg = EnsureReportConfig(cfg)
	r := report.GetReportData(report.Options{
		DataSource:      cfg.DataSource,
		PL:              pl,
		Template:        t,
		Scenario:        in,
		IncludeScenario: cfg.IncludeScenario,
		ComparisonMode:  cfg.ComparisonMode,
	})
	return SnapshotSummary{
		KPIs:            r.KPIs,
		PeriodLabel:     r.PeriodLabel,
		ComparisonLabel: r.ComparisonLabel,
		MovementBadge:   r.MovementBadge,
		DataSourceUsed:  r.DataSourceUsed,
	}
}
