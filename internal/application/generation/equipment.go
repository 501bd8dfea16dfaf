package generation

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
)

// calibrationDue reports whether instrument i of the register is scheduled
// on date. Schedules are anchored to the calendar, not to the run start, so
// any two runs covering a day agree on what was calibrated that day.
func calibrationDue(i int, in apr.Instrument, date time.Time) bool {
	epochDay := int(apr.Day(date).Unix() / 86400)
	return (epochDay+i*7)%in.FrequencyDays == 0
}

// generateCalibrations produces the calibration events scheduled on a day
func generateCalibrations(d dayContext) []apr.EquipmentCalibration {
	var out []apr.EquipmentCalibration
	for i, in := range apr.Instruments {
		if calibrationDue(i, in, d.date) {
			out = append(out, newCalibration(d, in, i))
		}
	}
	return out
}

func newCalibration(d dayContext, in apr.Instrument, i int) apr.EquipmentCalibration {
	s := d.stream(apr.CategoryEquipment, i)
	p := apr.MustBaseline(apr.CategoryEquipment, in.Field)

	delay, _ := strconv.Atoi(d.choose(s, apr.CategoryEquipment, apr.FieldCalibrationDelay, in.ID, d.date))
	actual := d.date.AddDate(0, 0, delay)

	c := apr.EquipmentCalibration{
		CalibrationID: fmt.Sprintf("CAL-%s-%s", d.date.Format(idDate), in.ID),
		EquipmentID:   in.ID,
		EquipmentName: in.Name,
		EquipmentType: in.Type,
		Criticality:   in.Criticality,
		Parameter:     apr.CalibrationParameterName(in.Field),
		ScheduledDate: d.date,
		ActualDate:    actual,
		NextDueDate:   actual.AddDate(0, 0, in.FrequencyDays),
		// The tolerance is the half-width of the field's acceptance band.
		Tolerance: round((p.SpecMax-p.SpecMin)/2, 4),
	}
	c.AsFound = d.measure(s, apr.CategoryEquipment, in.Field, in.ID, d.date)
	c.AsLeft = p.Record(p.Target + s.Normal(0, p.StdDev*0.4))
	c.Deviation = round(math.Abs(c.AsFound-c.AsLeft), 4)
	c.OutOfTolerance = c.Deviation > c.Tolerance
	c.Result = "Pass"
	if c.OutOfTolerance {
		c.Result = "Fail"
	}
	c.CalibratedBy = s.Pick(apr.QCAnalysts[:10])
	c.ReviewedBy = s.Pick(apr.QCAnalysts[10:20])
	return c
}
