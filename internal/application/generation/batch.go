package generation

import (
	"fmt"
	"math"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
)

// shiftStart is the first start hour of each shift; batches start within
// the following eight hours.
var shiftStart = map[string]int{"Day": 6, "Evening": 14, "Night": 22}

// batchesOn returns how many batches the plant makes on a day. Reduced
// production windows scale the requested rate; a day never drops to zero.
func batchesOn(d dayContext) int {
	factor := d.rate(apr.CategoryBatch, apr.FieldDailyOutput, "", d.date)
	n := int(math.Round(float64(d.perDay) * factor))
	if n < 1 {
		return 1
	}
	return n
}

// generateBatches produces the day's manufacturing records in sequence order
func generateBatches(d dayContext) []apr.Batch {
	n := batchesOn(d)
	out := make([]apr.Batch, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, newBatch(d, i))
	}
	return out
}

func newBatch(d dayContext, i int) apr.Batch {
	s := d.stream(apr.CategoryBatch, i)
	date := d.date
	b := apr.Batch{
		BatchID:           fmt.Sprintf("%s-%s-%03d", d.product.BatchPrefix, date.Format(idDate), i+1),
		Sequence:          i + 1,
		ProductName:       d.product.Name,
		ProductCode:       d.product.Code,
		ManufacturingDate: date,
	}

	b.Shift = d.choose(s, apr.CategoryBatch, apr.FieldShift, "", date)
	hour := (shiftStart[b.Shift] + s.IntN(8)) % 24
	b.Start = date.Add(time.Duration(hour)*time.Hour + time.Duration(s.IntN(60))*time.Minute)

	b.OperatorPrimary = s.Pick(apr.Operators)
	b.OperatorSecondary = pickOther(s, apr.Operators, b.OperatorPrimary)

	b.EquipmentID = s.Pick(apr.TabletPresses)
	b.GranulatorID = s.Pick(apr.Granulators)
	b.DryerID = s.Pick(apr.Dryers)
	b.BlenderID = s.Pick(apr.Blenders)
	press := b.EquipmentID

	b.APIWeightKg = d.measure(s, apr.CategoryBatch, apr.FieldAPIWeight, press, date)
	b.ExcipientWeightKg = d.measure(s, apr.CategoryBatch, apr.FieldExcipientWeight, press, date)
	b.BatchSizeKg = round(b.APIWeightKg+b.ExcipientWeightKg, 3)

	b.InletAirTempC = d.measure(s, apr.CategoryBatch, apr.FieldInletAirTemp, press, date)
	b.MoisturePct = d.measure(s, apr.CategoryBatch, apr.FieldMoisture, press, date)

	b.CompressionForce = d.measure(s, apr.CategoryBatch, apr.FieldCompressionForce, press, date)
	b.Weight = d.measure(s, apr.CategoryBatch, apr.FieldWeight, press, date)
	b.Thickness = d.measure(s, apr.CategoryBatch, apr.FieldThickness, press, date)
	b.Hardness = d.measure(s, apr.CategoryBatch, apr.FieldHardness, press, date)
	b.FriabilityPct = d.skewed(s, apr.CategoryBatch, apr.FieldFriability, press, date)
	b.DisintegrationMin = d.measure(s, apr.CategoryBatch, apr.FieldDisintegration, press, date)

	// Theoretical yield is the tablet count the blend allows at target weight.
	target := apr.MustBaseline(apr.CategoryBatch, apr.FieldWeight).Target
	b.TheoreticalYield = int64(math.Round(b.BatchSizeKg * 1e6 / target))
	b.YieldPercent = d.measure(s, apr.CategoryBatch, apr.FieldYield, press, date)
	b.ActualYield = int64(float64(b.TheoreticalYield) * b.YieldPercent / 100)

	b.RejectCount = int(s.Exponential(50))
	b.RejectReason = "None"
	if b.RejectCount > 10 {
		b.RejectReason = s.Pick(apr.RejectReasons)
	}

	b.HasDeviation = s.Bernoulli(d.rate(apr.CategoryBatch, apr.FieldDeviationRate, press, date))
	if b.HasDeviation {
		b.DeviationID = fmt.Sprintf("DEV-%s-%03d", date.Format(idDate), i+1)
		b.DeviationType = s.Pick(apr.DeviationTypes)
	}

	b.ProcessTimeHours = d.measure(s, apr.CategoryBatch, apr.FieldProcessTime, press, date)
	b.End = b.Start.Add(time.Duration(b.ProcessTimeHours * float64(time.Hour)))
	return b
}
