package generation

import (
	"math"

	"github.com/nyos/apr/internal/domain/apr"
)

// Compendial acceptance limits that are not a single field's spec range
const (
	dissolutionQ         = 75.0 // every vessel must reach Q
	uniformityK          = 2.4  // acceptability constant of the AV formula
	identificationMisses = 0.001
)

// generateQC tests one batch 1 to 3 days after manufacture. Every verdict is
// derived from the measured values against their limits.
func generateQC(d dayContext, b apr.Batch, i int) apr.QCResult {
	s := d.stream(apr.CategoryQC, i)
	press := b.EquipmentID
	test := b.ManufacturingDate.AddDate(0, 0, s.IntRange(1, 3))

	r := apr.QCResult{
		SampleID:          "QC-" + b.BatchID,
		BatchID:           b.BatchID,
		ProductCode:       b.ProductCode,
		EquipmentID:       press,
		ManufacturingDate: b.ManufacturingDate,
		TestDate:          test,
	}
	r.AnalystChemical = s.Pick(apr.QCAnalysts)
	r.AnalystPhysical = pickOther(s, apr.QCAnalysts, r.AnalystChemical)
	r.HPLCSystem = s.Pick(apr.HPLCSystems)
	r.DissolutionApparatus = s.Pick(apr.Dissolution)

	r.IdentificationPass = !s.Bernoulli(identificationMisses)
	r.RetentionTimeMin = d.measure(s, apr.CategoryQC, apr.FieldRetentionTime, press, test)

	assay := apr.MustBaseline(apr.CategoryQC, apr.FieldAssay)
	r.AssayPercent = d.measure(s, apr.CategoryQC, apr.FieldAssay, press, test)
	r.AssayPass = assay.InSpec(r.AssayPercent)

	vessels := make([]float64, apr.DissolutionVessels)
	r.DissolutionMin = math.Inf(1)
	for v := range vessels {
		vessels[v] = d.measure(s, apr.CategoryQC, apr.FieldDissolution, press, test)
		r.DissolutionVessels[v] = vessels[v]
		r.DissolutionMin = math.Min(r.DissolutionMin, vessels[v])
	}
	mean, _ := meanStd(vessels)
	r.DissolutionMean = round(mean, 1)
	r.DissolutionPass = r.DissolutionMin >= dissolutionQ

	units := make([]float64, apr.UniformityUnits)
	for u := range units {
		units[u] = d.measure(s, apr.CategoryQC, apr.FieldContentUniformity, press, test)
	}
	cuMean, cuStd := meanStd(units)
	av := apr.MustBaseline(apr.CategoryQC, apr.FieldAcceptanceValue)
	r.AcceptanceValue = av.Record(math.Abs(cuMean-100) + uniformityK*cuStd)
	r.ContentUniformityPass = av.InSpec(r.AcceptanceValue)

	total := apr.MustBaseline(apr.CategoryQC, apr.FieldTotalImpurities)
	r.ImpurityA = d.skewed(s, apr.CategoryQC, apr.FieldImpurityA, press, test)
	r.ImpurityB = d.skewed(s, apr.CategoryQC, apr.FieldImpurityB, press, test)
	r.TotalImpurities = total.Record(r.ImpurityA + r.ImpurityB + s.Exponential(0.02))
	r.ImpuritiesPass = total.InSpec(r.TotalImpurities)

	// Physical tests re-measure the batch's tablets, so press drift carries over.
	r.HardnessKp = d.around(s, apr.CategoryQC, apr.FieldQCHardness, press, test, b.Hardness)
	friability := apr.MustBaseline(apr.CategoryBatch, apr.FieldFriability)
	r.FriabilityPct = friability.Record(b.FriabilityPct + s.Normal(0, 0.02))
	disintegration := apr.MustBaseline(apr.CategoryBatch, apr.FieldDisintegration)
	r.DisintegrationMaxMin = disintegration.Record(b.DisintegrationMin + math.Abs(s.Normal(0, 1)))
	r.WeightRSD = d.skewed(s, apr.CategoryQC, apr.FieldWeightRSD, press, test)
	r.PhysicalPass = r.FriabilityPct < friability.SpecMax && r.DisintegrationMaxMin < disintegration.SpecMax

	tamc := apr.MustBaseline(apr.CategoryQC, apr.FieldTAMC)
	tymc := apr.MustBaseline(apr.CategoryQC, apr.FieldTYMC)
	r.TAMC = int(d.skewed(s, apr.CategoryQC, apr.FieldTAMC, "", test))
	r.TYMC = int(d.skewed(s, apr.CategoryQC, apr.FieldTYMC, "", test))
	r.MicroPass = float64(r.TAMC) < tamc.SpecMax && float64(r.TYMC) < tymc.SpecMax

	r.OverallPass = r.IdentificationPass && r.AssayPass && r.DissolutionPass &&
		r.ContentUniformityPass && r.ImpuritiesPass && r.PhysicalPass && r.MicroPass
	return r
}
