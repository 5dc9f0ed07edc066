// Package scenario applies the replacement-based "what-if" transformation on
// top of base P&L totals: matched legacy revenue streams are removed, bundle
// revenue/cost streams driven by volume and pricing assumptions are injected,
// and high-leverage opex levers (rent) are applied.
package scenario

// ClinicState selects state-specific pricing defaults (MRI costs differ by
// state).
type ClinicState string

const (
	StateNSWQLD ClinicState = "NSW/QLD"
	StateWA     ClinicState = "WA"
	StateVIC    ClinicState = "VIC"
)

// RentMode selects how the rent lever adjusts matched rent accounts.
type RentMode string

const (
	// RentFixed replaces matched rent with a flat monthly amount.
	RentFixed RentMode = "fixed"
	// RentPercent compounds a monthly percentage change by month position.
	RentPercent RentMode = "percent"
)

// Inputs is the flat scenario configuration. It is treated as an immutable
// snapshot on every recompute; numeric fields default to 0 and percentage
// fields are interpreted as 0-100.
type Inputs struct {
	Enabled                  bool     `json:"enabled"`
	LegacyTmsAccountMatchers []string `json:"legacyTmsAccountMatchers"`

	// If consult revenue is folded into the bundle, remove it so we don't
	// double-count.
	IncludeDoctorConsultsInBundle bool     `json:"includeDoctorConsultsInBundle"`
	LegacyConsultAccountMatchers  []string `json:"legacyConsultAccountMatchers"`

	State ClinicState `json:"state"`

	// Doctor service fee retained by the clinic (global). 15 means the doctor
	// payout (actual cost) is 85% of the patient fee.
	DoctorServiceFeePct float64 `json:"doctorServiceFeePct"`

	// Core volumes (per month)
	CbaMonthlyCount     float64 `json:"cbaMonthlyCount"`
	ProgramMonthlyCount float64 `json:"programMonthlyCount"`

	// Revenue (price charged to patient)
	CbaPrice     float64 `json:"cbaPrice"`
	ProgramPrice float64 `json:"programPrice"`

	// If true, per-patient bundle costs are ADDED into scenario COGS
	// (conservative). If false the scenario only changes revenue and assumes
	// costs already exist in the P&L.
	AddBundleCostsToScenario bool `json:"addBundleCostsToScenario"`

	// CBA inclusions (cost-per-assessment)
	CbaIncludeMRI            bool    `json:"cbaIncludeMRI"`
	CbaMriCost               float64 `json:"cbaMriCost"`
	CbaMriPatientFee         float64 `json:"cbaMriPatientFee"`
	CbaIncludeQuicktome      bool    `json:"cbaIncludeQuicktome"`
	CbaQuicktomeCost         float64 `json:"cbaQuicktomeCost"`
	CbaQuicktomePatientFee   float64 `json:"cbaQuicktomePatientFee"`
	CbaIncludeCreyos         bool    `json:"cbaIncludeCreyos"`
	CbaCreyosCost            float64 `json:"cbaCreyosCost"`
	CbaCreyosPatientFee      float64 `json:"cbaCreyosPatientFee"`
	CbaIncludeInitialConsult bool    `json:"cbaIncludeInitialConsult"`
	CbaInitialConsultFee     float64 `json:"cbaInitialConsultFee"` // patient fee
	CbaInitialConsultCount   float64 `json:"cbaInitialConsultCount"`
	CbaOtherCogsPerAssessment float64 `json:"cbaOtherCogsPerAssessment"`

	// cgTMS program inclusions (cost-per-program)
	ProgIncludePostMRI         bool    `json:"progIncludePostMRI"`
	ProgMriCost                float64 `json:"progMriCost"`
	ProgMriPatientFee          float64 `json:"progMriPatientFee"`
	ProgIncludeQuicktome       bool    `json:"progIncludeQuicktome"`
	ProgQuicktomeCost          float64 `json:"progQuicktomeCost"`
	ProgQuicktomePatientFee    float64 `json:"progQuicktomePatientFee"`
	ProgIncludeCreyos          bool    `json:"progIncludeCreyos"`
	ProgCreyosCost             float64 `json:"progCreyosCost"`
	ProgCreyosPatientFee       float64 `json:"progCreyosPatientFee"`
	ProgInclude6WkConsult      bool    `json:"progInclude6WkConsult"`
	Prog6WkConsultFee          float64 `json:"prog6WkConsultFee"` // patient fee
	Prog6WkConsultCount        float64 `json:"prog6WkConsultCount"`
	ProgIncludeAdjunctAllowance bool   `json:"progIncludeAdjunctAllowance"`
	ProgAdjunctAllowance       float64 `json:"progAdjunctAllowance"`
	// 6-month consult mirrors the 6-week consult (same fee and count).
	ProgInclude6MoConsult   bool    `json:"progInclude6MoConsult"`
	Prog6MoConsultFee       float64 `json:"prog6MoConsultFee"`
	Prog6MoConsultCount     float64 `json:"prog6MoConsultCount"`
	ProgInclude6MoCreyos    bool    `json:"progInclude6MoCreyos"`
	Prog6MoCreyosCost       float64 `json:"prog6MoCreyosCost"`
	Prog6MoCreyosPatientFee float64 `json:"prog6MoCreyosPatientFee"`
	// Unmodelled delivery cost of cgTMS sessions (staffing, consumables).
	ProgTreatmentDeliveryCost float64 `json:"progTreatmentDeliveryCost"`
	ProgOtherCogsPerProgram   float64 `json:"progOtherCogsPerProgram"`

	// Rent is a high-leverage fixed cost.
	RentEnabled         bool     `json:"rentEnabled"`
	RentAccountMatchers []string `json:"rentAccountMatchers"`
	RentMode            RentMode `json:"rentMode"`
	RentFixedMonthly    float64  `json:"rentFixedMonthly"`
	RentPercentPerMonth float64  `json:"rentPercentPerMonth"`

	// TMS capacity lever. If enabled, ProgramMonthlyCount is derived from
	// machine capacity instead of the manual entry.
	MachinesEnabled           bool    `json:"machinesEnabled"`
	TmsMachines               float64 `json:"tmsMachines"`
	PatientsPerMachinePerWeek float64 `json:"patientsPerMachinePerWeek"`
	WeeksPerYear              float64 `json:"weeksPerYear"`
	Utilisation               float64 `json:"utilisation"` // 0..1

	// Reporting-layer refinements. The engine itself does whole-pattern
	// removal; these exclusion lists are applied downstream by the report
	// builder, not inside Apply.
	ExcludedConsultAccounts []string `json:"excludedConsultAccounts,omitempty"`
	ExcludedConsultTxnKeys  []string `json:"excludedConsultTxnKeys,omitempty"`
}

// DefaultInputs returns the recommended framework starting point
// (NSW/QLD pricing).
func DefaultInputs() Inputs {
	return Inputs{
		Enabled:                  false,
		LegacyTmsAccountMatchers: []string{"tms", "cgtms", "rTMS", "transcranial"},

		IncludeDoctorConsultsInBundle: false,
		LegacyConsultAccountMatchers:  []string{"consult", "appointment", "dr ", "doctor"},

		State:               StateNSWQLD,
		DoctorServiceFeePct: 15,

		CbaMonthlyCount:     0,
		ProgramMonthlyCount: 0,

		CbaPrice:     1325,
		ProgramPrice: 10960,

		AddBundleCostsToScenario: true,

		CbaIncludeMRI:             true,
		CbaMriCost:                380,
		CbaMriPatientFee:          400,
		CbaIncludeQuicktome:       true,
		CbaQuicktomeCost:          200,
		CbaQuicktomePatientFee:    200,
		CbaIncludeCreyos:          true,
		CbaCreyosCost:             50,
		CbaCreyosPatientFee:       75,
		CbaIncludeInitialConsult:  true,
		CbaInitialConsultFee:      650,
		CbaInitialConsultCount:    1,
		CbaOtherCogsPerAssessment: 0,

		ProgIncludePostMRI:          true,
		ProgMriCost:                 380,
		ProgMriPatientFee:           400,
		ProgIncludeQuicktome:        true,
		ProgQuicktomeCost:           200,
		ProgQuicktomePatientFee:     200,
		// Creyos is billed once in CBA (keep off here)
		ProgIncludeCreyos:           false,
		ProgInclude6WkConsult:       true,
		Prog6WkConsultFee:           450,
		Prog6WkConsultCount:         1,
		ProgIncludeAdjunctAllowance: true,
		ProgAdjunctAllowance:        560,
		ProgInclude6MoConsult:       true,
		Prog6MoConsultFee:           450,
		Prog6MoConsultCount:         1,

		RentEnabled:         false,
		RentAccountMatchers: []string{"rent", "lease"},
		RentMode:            RentFixed,

		MachinesEnabled:           false,
		TmsMachines:               1,
		PatientsPerMachinePerWeek: 4,
		WeeksPerYear:              52,
		Utilisation:               0.65,

		ExcludedConsultAccounts: []string{},
		ExcludedConsultTxnKeys:  []string{},
	}
}

// MriDefaultForState returns the assumed MRI cost when the user has not
// entered one.
func MriDefaultForState(state ClinicState) float64 {
	switch state {
	case StateWA:
		return 750
	case StateVIC:
		return 0
	}
	return 380
}
