package state

import (
	"encoding/json"
	"fmt"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/scenario"
)

// HydrateScenario merges persisted scenario JSON over the defaults: fields
// missing from the stored blob keep their default values, and matcher lists
// saved as empty arrays are restored to the defaults so an old save can't
// silently disable the replacement rule.
func HydrateScenario(raw []byte) (scenario.Inputs, error) {
	in := scenario.DefaultInputs()
	if len(raw) == 0 {
		return in, nil
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return scenario.DefaultInputs(), fmt.Errorf("hydrate scenario: %w", err)
	}
	defaults := scenario.DefaultInputs()
	if len(in.LegacyTmsAccountMatchers) == 0 {
		in.LegacyTmsAccountMatchers = defaults.LegacyTmsAccountMatchers
	}
	if len(in.LegacyConsultAccountMatchers) == 0 {
		in.LegacyConsultAccountMatchers = defaults.LegacyConsultAccountMatchers
	}
	if len(in.RentAccountMatchers) == 0 {
		in.RentAccountMatchers = defaults.RentAccountMatchers
	}
	if in.State == "" {
		in.State = defaults.State
	}
	if in.RentMode == "" {
		in.RentMode = defaults.RentMode
	}
	return in, nil
}

// HydrateTemplate parses a persisted template and repairs its metadata
// without bumping the version: hydration is not an edit.
func HydrateTemplate(raw []byte) (*dream.Template, error) {
	if len(raw) == 0 {
		return dream.DefaultTemplate(), nil
	}
	var t dream.Template
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("hydrate template: %w", err)
	}
	if t.Root == nil {
		return dream.DefaultTemplate(), nil
	}
	return dream.EnsureTemplateMetadata(&t, dream.MetadataOptions{PreserveVersion: true}), nil
}

// HydrateDefaults merges persisted framework defaults over the recommended
// set.
func HydrateDefaults(raw []byte) (FrameworkDefaults, error) {
	d := RecommendedDefaults()
	if len(raw) == 0 {
		return d, nil
	}
	if err := json.Unmarshal(raw, &d); err != nil {
		return RecommendedDefaults(), fmt.Errorf("hydrate defaults: %w", err)
	}
	recommended := RecommendedDefaults()
	if len(d.SuggestedCbaPrice) == 0 {
		d.SuggestedCbaPrice = recommended.SuggestedCbaPrice
	}
	if len(d.SuggestedProgramPrice) == 0 {
		d.SuggestedProgramPrice = recommended.SuggestedProgramPrice
	}
	if len(d.MriCostByState) == 0 {
		d.MriCostByState = recommended.MriCostByState
	}
	if len(d.MriPatientByState) == 0 {
		d.MriPatientByState = recommended.MriPatientByState
	}
	if d.DoctorServiceFeePct == 0 {
		d.DoctorServiceFeePct = recommended.DoctorServiceFeePct
	}
	d.ExportSettings = EnsureExportSettings(d.ExportSettings)
	return d, nil
}
