package generation

import (
	"github.com/nyos/apr/internal/domain/apr"
)

// generateRelease records the QP decision on a tested batch. A failed QC
// result usually rejects the batch; a manufacturing deviation may still be
// released under a deviation.
func generateRelease(d dayContext, b apr.Batch, qc apr.QCResult, i int) apr.BatchRelease {
	s := d.stream(apr.CategoryBatchRelease, i)
	review := qc.TestDate.AddDate(0, 0, s.IntRange(1, 3))
	decision := review.AddDate(0, 0, s.IntRange(1, 2))

	r := apr.BatchRelease{
		BatchID:           b.BatchID,
		ProductName:       b.ProductName,
		ProductCode:       b.ProductCode,
		ManufacturingDate: b.ManufacturingDate,
		ReviewStartDate:   review,
		DecisionDate:      decision,
		HasDeviation:      b.HasDeviation,
		HasOOS:            !qc.OverallPass,
		YieldPercent:      b.YieldPercent,
		BatchSizeKg:       b.BatchSizeKg,
	}

	switch {
	case r.HasOOS:
		r.Disposition = d.choose(s, apr.CategoryBatchRelease, apr.FieldOOSDisposition, b.EquipmentID, decision)
	case r.HasDeviation:
		r.Disposition = d.choose(s, apr.CategoryBatchRelease, apr.FieldDeviationDisposition, b.EquipmentID, decision)
	default:
		r.Disposition = apr.DispositionReleased
	}

	if r.Disposition != apr.DispositionRejected {
		r.ReleaseDate = decision.AddDate(0, 0, s.IntRange(1, 5))
		r.DaysToRelease = daysBetween(b.ManufacturingDate, r.ReleaseDate)
	}

	r.QPID = s.Pick(apr.QPs)
	r.QPName = s.Name()
	r.Market = s.Pick(apr.Markets)
	return r
}
