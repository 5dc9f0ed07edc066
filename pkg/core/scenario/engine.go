package scenario

import (
	"math"
	"regexp"

	"accounting_atlas/pkg/core/dream"
	"accounting_atlas/pkg/core/xero"
)

// EffectiveProgramCount returns the monthly cgTMS program volume: either the
// manual entry, or the value derived from machine capacity when the capacity
// lever is on. The derived value is intentionally left unrounded.
func EffectiveProgramCount(in Inputs) float64 {
	if !in.MachinesEnabled {
		return in.ProgramMonthlyCount
	}
	machines := math.Max(0, in.TmsMachines)
	perWeek := math.Max(0, in.PatientsPerMachinePerWeek)
	util := math.Min(1, math.Max(0, in.Utilisation))
	weeksPerMonth := math.Max(0, in.WeeksPerYear/12)
	return machines * perWeek * weeksPerMonth * util
}

// DoctorPayoutFactor converts a patient fee into the clinic's actual cost for
// doctor-delivered items: the doctor is paid the fee less the clinic's service
// fee percentage. The percentage is clamped to 0-100.
func DoctorPayoutFactor(feePct float64) float64 {
	return 1 - math.Min(1, math.Max(0, feePct/100))
}

// CbaCostPerAssessment is the per-patient COGS of one Comprehensive Brain
// Assessment under the given inputs.
func CbaCostPerAssessment(in Inputs) float64 {
	payout := DoctorPayoutFactor(in.DoctorServiceFeePct)
	var per float64
	if in.CbaIncludeMRI {
		per += in.CbaMriCost
	}
	if in.CbaIncludeQuicktome {
		per += in.CbaQuicktomeCost
	}
	if in.CbaIncludeCreyos {
		per += in.CbaCreyosCost
	}
	if in.CbaIncludeInitialConsult {
		per += in.CbaInitialConsultFee * payout * in.CbaInitialConsultCount
	}
	per += in.CbaOtherCogsPerAssessment
	return per
}

// ProgCostPerProgram is the per-patient COGS of one cgTMS program. Creyos is
// billed once in the CBA so it is not repeated here unless explicitly enabled;
// the 6-week review consult is doubled to cover its 6-month mirror.
func ProgCostPerProgram(in Inputs) float64 {
	payout := DoctorPayoutFactor(in.DoctorServiceFeePct)
	var per float64
	if in.ProgIncludePostMRI {
		per += in.ProgMriCost
	}
	if in.ProgIncludeQuicktome {
		per += in.ProgQuicktomeCost
	}
	if in.ProgIncludeCreyos {
		per += in.ProgCreyosCost
	}
	if in.ProgInclude6WkConsult {
		per += in.Prog6WkConsultFee * payout * in.Prog6WkConsultCount * 2
	}
	if in.ProgIncludeAdjunctAllowance {
		per += in.ProgAdjunctAllowance
	}
	per += in.ProgTreatmentDeliveryCost
	per += in.ProgOtherCogsPerProgram
	return per
}

// Apply runs the replacement-based scenario on top of base totals: matched
// legacy accounts are subtracted from whichever bucket their section feeds,
// flat bundle revenue/cost streams are added to every month, and the rent
// lever adjusts opex. Neither base nor pl is mutated; net is recomputed last.
func Apply(base dream.Totals, pl *xero.PL, in Inputs) dream.Totals {
	if !in.Enabled {
		return base
	}

	n := len(pl.Months)
	out := base.Clone()

	tmsPatterns := compilePatterns(in.LegacyTmsAccountMatchers, nil)
	var consultPatterns []*regexp.Regexp
	if in.IncludeDoctorConsultsInBundle {
		consultPatterns = compilePatterns(in.LegacyConsultAccountMatchers, nil)
	}

	// Replacement rule: remove legacy streams (TMS; optionally consults),
	// then add bundle revenue. Removal happens at the Xero account level,
	// against whichever bucket the matched account's section feeds.
	if len(tmsPatterns) > 0 || len(consultPatterns) > 0 {
		for _, a := range pl.Accounts {
			if !anyMatch(tmsPatterns, a.Name) && !anyMatch(consultPatterns, a.Name) {
				continue
			}
			target := dream.SectionBucket(&out, a.Section)
			if target == nil {
				continue
			}
			for i := 0; i < n && i < len(a.Values); i++ {
				target[i] -= a.Values[i]
			}
		}
	}

	programCount := EffectiveProgramCount(in)

	cbaRev := in.CbaMonthlyCount * in.CbaPrice
	progRev := programCount * in.ProgramPrice

	var cbaCogs, progCogs float64
	if in.AddBundleCostsToScenario {
		cbaCogs = in.CbaMonthlyCount * CbaCostPerAssessment(in)
		progCogs = programCount * ProgCostPerProgram(in)
	}

	for i := 0; i < n; i++ {
		out.Revenue[i] += cbaRev + progRev
		out.Cogs[i] += cbaCogs + progCogs
	}

	if in.RentEnabled {
		applyRentLever(&out, pl, in, n)
	}

	out.RecomputeNet()
	return out
}

// applyRentLever adjusts opex by the delta between the matched base rent and
// the lever's target. Fixed mode replaces matched rent outright; percent mode
// compounds a monthly change by month position. When no rent accounts match,
// base rent is zero and fixed mode simply adds the flat amount.
func applyRentLever(out *dream.Totals, pl *xero.PL, in Inputs, n int) {
	rentPatterns := compilePatterns(in.RentAccountMatchers, defaultRentPatterns)
	baseRent := make([]float64, n)
	for _, a := range pl.Accounts {
		if a.Section != xero.SectionOperatingExpenses {
			continue
		}
		if !anyMatch(rentPatterns, a.Name) {
			continue
		}
		for i := 0; i < n && i < len(a.Values); i++ {
			baseRent[i] += a.Values[i]
		}
	}

	if in.RentMode == RentPercent {
		pct := in.RentPercentPerMonth / 100
		for i := 0; i < n; i++ {
			target := baseRent[i] * math.Pow(1+pct, float64(i))
			out.Opex[i] += target - baseRent[i]
		}
		return
	}
	for i := 0; i < n; i++ {
		out.Opex[i] += in.RentFixedMonthly - baseRent[i]
	}
}
