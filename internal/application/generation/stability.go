package generation

import (
	"fmt"

	"github.com/nyos/apr/internal/domain/apr"
)

// Stability studies start on the first batch made on these days of the month,
// giving two registration batches a month.
var stabilityDays = map[int]bool{1: true, 15: true}

var conditionCodes = map[string]string{"Long-term": "LT", "Accelerated": "ACC", "Intermediate": "INT"}

// daysPerMonth converts pull points in months to calendar offsets
const daysPerMonth = 30

// onStability reports whether the batch is placed on stability
func onStability(b apr.Batch) bool {
	return b.Sequence == 1 && stabilityDays[b.ManufacturingDate.Day()]
}

// generateStability pulls every timepoint of every ICH condition for a
// batch. Each attribute degrades linearly with the condition's rate;
// pulls dated after the run end are dropped when the run is tiled.
func generateStability(d dayContext, b apr.Batch, i int) []apr.StabilityResult {
	if !onStability(b) {
		return nil
	}
	s := d.stream(apr.CategoryStability, i)
	assayP := apr.MustBaseline(apr.CategoryStability, apr.FieldStabilityAssay)
	dissP := apr.MustBaseline(apr.CategoryStability, apr.FieldStabilityDiss)
	impP := apr.MustBaseline(apr.CategoryStability, apr.FieldStabilityImpurity)
	waterP := apr.MustBaseline(apr.CategoryStability, apr.FieldWaterContent)

	var out []apr.StabilityResult
	for _, cond := range apr.StabilityConditions {
		studyID := fmt.Sprintf("STAB-%s-%s", b.BatchID, conditionCodes[cond.Name])
		rate := cond.DegradationRate * d.rate(apr.CategoryStability, apr.FieldDegradationRate, cond.Name, b.ManufacturingDate)
		for _, tp := range cond.TimepointMonths {
			test := b.ManufacturingDate.AddDate(0, 0, tp*daysPerMonth)
			loss := rate * float64(tp)
			r := apr.StabilityResult{
				StudyID:           studyID,
				BatchID:           b.BatchID,
				ManufacturingDate: b.ManufacturingDate,
				Condition:         cond.Name,
				StorageTempC:      cond.TempC,
				StorageRHPct:      cond.RHPct,
				TimepointMonths:   tp,
				TestDate:          test,
			}
			r.AssayPercent = assayP.Record(assayP.Target - loss + s.Normal(0, assayP.StdDev))
			r.DissolutionPct = dissP.Record(dissP.Target - loss*0.5 + s.Normal(0, dissP.StdDev))
			r.TotalImpurities = impP.Record(impP.Target + loss*0.3 + s.Exponential(0.02))
			r.WaterContentPct = waterP.Record(waterP.Target + loss*0.1 + s.Normal(0, waterP.StdDev))
			r.Appearance = "White, round tablets"
			if r.AssayPercent <= assayP.SpecMin {
				r.Appearance = "Slight yellowing observed"
			}
			r.OverallPass = assayP.InSpec(r.AssayPercent) && r.DissolutionPct >= dissP.SpecMin && r.TotalImpurities <= impP.SpecMax
			r.Analyst = s.Pick(apr.QCAnalysts)
			out = append(out, r)
		}
	}
	return out
}
