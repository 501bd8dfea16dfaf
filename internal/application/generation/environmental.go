package generation

import (
	"fmt"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
)

// generateEnvironmental produces one reading per cleanroom per monitoring
// round. Readings are scoped to the room code.
func generateEnvironmental(d dayContext) []apr.EnvironmentalReading {
	out := make([]apr.EnvironmentalReading, 0, len(apr.Cleanrooms)*len(apr.ReadingHours))
	for r, room := range apr.Cleanrooms {
		for k, hour := range apr.ReadingHours {
			idx := r*len(apr.ReadingHours) + k
			out = append(out, newReading(d, room, hour, idx))
		}
	}
	return out
}

func newReading(d dayContext, room apr.Room, hour, idx int) apr.EnvironmentalReading {
	s := d.stream(apr.CategoryEnvironmental, idx)
	date, scope := d.date, room.Code
	e := apr.EnvironmentalReading{
		RecordID:       fmt.Sprintf("EM-%s-%03d", date.Format(idDate), idx+1),
		MonitoringDate: date,
		MonitoringTime: date.Add(time.Duration(hour)*time.Hour + time.Duration(s.IntN(31))*time.Minute),
		RoomCode:       room.Code,
		RoomName:       room.Name,
		RoomClass:      room.Class,
	}

	small, large := apr.FieldParticles05ISO8, apr.FieldParticles50ISO8
	if room.Class == apr.ISO7 {
		small, large = apr.FieldParticles05ISO7, apr.FieldParticles50ISO7
	}
	e.Particles05um = int64(d.measure(s, apr.CategoryEnvironmental, small, scope, date))
	e.Particles50um = int64(d.skewed(s, apr.CategoryEnvironmental, large, scope, date))
	e.ViableAir = int(d.skewed(s, apr.CategoryEnvironmental, apr.FieldViableAir, scope, date))
	e.ViableSurface = int(d.skewed(s, apr.CategoryEnvironmental, apr.FieldViableSurface, scope, date))

	e.TemperatureC = d.measure(s, apr.CategoryEnvironmental, apr.FieldTemperature, scope, date)
	e.HumidityPct = d.measure(s, apr.CategoryEnvironmental, apr.FieldHumidity, scope, date)
	e.DiffPressurePa = d.measure(s, apr.CategoryEnvironmental, apr.FieldDiffPressure, scope, date)

	inSpec := func(field string, v float64) bool {
		return apr.MustBaseline(apr.CategoryEnvironmental, field).InSpec(v)
	}
	e.TemperatureOK = inSpec(apr.FieldTemperature, e.TemperatureC)
	e.HumidityOK = inSpec(apr.FieldHumidity, e.HumidityPct)
	// Pressure cascades only need a minimum differential.
	e.PressureOK = e.DiffPressurePa >= apr.MustBaseline(apr.CategoryEnvironmental, apr.FieldDiffPressure).SpecMin
	e.ParticlesOK = inSpec(small, float64(e.Particles05um)) && inSpec(large, float64(e.Particles50um))
	e.ViableOK = inSpec(apr.FieldViableAir, float64(e.ViableAir)) && inSpec(apr.FieldViableSurface, float64(e.ViableSurface))
	e.OverallPass = e.TemperatureOK && e.HumidityOK && e.PressureOK && e.ParticlesOK && e.ViableOK

	e.MonitoredBy = s.Pick(apr.Operators[:10])
	return e
}
