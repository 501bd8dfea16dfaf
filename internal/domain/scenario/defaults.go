package scenario

import (
	"time"

	"github.com/nyos/apr/internal/domain/apr"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DefaultScenarios is the built-in calendar of plant events from 2020 to 2025
func DefaultScenarios() []Scenario {
	return []Scenario{
		{
			ID:     "covid-2020",
			Name:   "COVID-19 Disruption",
			Period: "March-May 2020",
			Windows: []Window{
				{StartDate: day(2020, 3, 1), EndDate: day(2020, 5, 31), Category: apr.CategoryBatch, Field: apr.FieldDailyOutput,
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 0.6, Description: "Reduced batch production (about 60% of plan)"},
				{StartDate: day(2020, 3, 1), EndDate: day(2020, 5, 31), Category: apr.CategoryBatch, Field: apr.FieldYield,
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: -2, Description: "Lower yields (-2%)"},
			},
		},
		{
			ID:     "press-a-2021",
			Name:   "Press-A Degradation",
			Period: "September-November 2021",
			Windows: []Window{
				{StartDate: day(2021, 9, 1), EndDate: day(2021, 11, 30), Category: apr.CategoryBatch, Field: apr.FieldHardness, Scope: "PRESS-A",
					Shape: ShapeRamp, Mode: ModeAdditive, Magnitude: 4, Description: "Gradual hardness drift (up to +4 kp)"},
				{StartDate: day(2021, 9, 1), EndDate: day(2021, 11, 30), Category: apr.CategoryBatch, Field: apr.FieldCompressionForce, Scope: "PRESS-A",
					Shape: ShapeRamp, Mode: ModeAdditive, Magnitude: 2, Description: "Compression force variation"},
				{StartDate: day(2021, 9, 1), EndDate: day(2021, 11, 30), Category: apr.CategoryBatch, Field: apr.FieldFriability, Scope: "PRESS-A",
					Shape: ShapeRamp, Mode: ModeAdditive, Magnitude: 0.2, Description: "Increased friability"},
			},
		},
		{
			ID:     "mcc-2022",
			Name:   "MCC Excipient Issue",
			Period: "June 2022",
			Windows: []Window{
				{StartDate: day(2022, 6, 1), EndDate: day(2022, 6, 30), Category: apr.CategoryQC, Field: apr.FieldDissolution,
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: -5, Description: "Dissolution drop (-5%)"},
				{StartDate: day(2022, 6, 1), EndDate: day(2022, 6, 30), Category: apr.CategoryComplaint, Field: apr.FieldComplaintRate,
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 1.5, Description: "50% more complaints"},
				{StartDate: day(2022, 6, 1), EndDate: day(2022, 6, 30), Category: apr.CategoryComplaint, Field: apr.FieldComplaintCategory, Level: "Efficacy",
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 3, Description: "Efficacy complaints dominate"},
				{StartDate: day(2022, 6, 1), EndDate: day(2022, 6, 30), Category: apr.CategoryCAPA, Field: apr.FieldCAPASource, Level: "Deviation",
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 1.5, Description: "Supplier investigation"},
			},
		},
		{
			ID:     "lab-method-2023",
			Name:   "Lab Method Transition",
			Period: "Q2 2023",
			Windows: []Window{
				{StartDate: day(2023, 4, 1), EndDate: day(2023, 6, 30), Category: apr.CategoryQC, Field: apr.FieldAssay,
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: 1.5, Description: "Assay bias (+1.5%)"},
			},
		},
		{
			ID:     "summer-2024",
			Name:   "Summer Heat Effect",
			Period: "July-August 2024",
			Windows: []Window{
				{StartDate: day(2024, 7, 1), EndDate: day(2024, 8, 31), Category: apr.CategoryBatch, Field: apr.FieldInletAirTemp,
					Shape: ShapeSeasonal, Mode: ModeAdditive, Magnitude: 3, Description: "Elevated inlet air temps"},
				{StartDate: day(2024, 7, 1), EndDate: day(2024, 8, 31), Category: apr.CategoryEnvironmental, Field: apr.FieldTemperature,
					Shape: ShapeSeasonal, Mode: ModeAdditive, Magnitude: 3, Description: "Cleanroom temperature excursions"},
				{StartDate: day(2024, 7, 1), EndDate: day(2024, 8, 31), Category: apr.CategoryEnvironmental, Field: apr.FieldHumidity,
					Shape: ShapeSeasonal, Mode: ModeAdditive, Magnitude: 8, Description: "Humidity excursions"},
			},
		},
		{
			ID:     "press-b-2025",
			Name:   "Press-B Drift",
			Period: "August 1-15, 2025",
			Windows: []Window{
				{StartDate: day(2025, 8, 1), EndDate: day(2025, 8, 15), Category: apr.CategoryBatch, Field: apr.FieldHardness, Scope: "PRESS-B",
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: 1.5, Description: "Hardness increase (+1.5 kp)"},
				{StartDate: day(2025, 8, 1), EndDate: day(2025, 8, 15), Category: apr.CategoryQC, Field: apr.FieldDissolution, Scope: "PRESS-B",
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: -8, Description: "Dissolution drop (-8%)"},
				{StartDate: day(2025, 8, 1), EndDate: day(2025, 8, 31), Category: apr.CategoryCAPA, Field: apr.FieldCAPASource, Level: "OOS Investigation",
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 2, Description: "OOS investigations"},
			},
		},
		{
			ID:     "api-supplier-2025",
			Name:   "New API Supplier",
			Period: "November-December 2025",
			Windows: []Window{
				{StartDate: day(2025, 11, 1), EndDate: day(2025, 12, 31), Category: apr.CategoryBatch, Field: apr.FieldYield,
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: -1, Description: "Yield adjustment (-1%)"},
				{StartDate: day(2025, 11, 1), EndDate: day(2025, 12, 31), Category: apr.CategoryCAPA, Field: apr.FieldCAPARate,
					Shape: ShapeStep, Mode: ModeMultiplicative, Magnitude: 1.3, Description: "30% more CAPAs"},
				{StartDate: day(2025, 11, 1), EndDate: day(2025, 12, 31), Category: apr.CategoryRawMaterial, Field: apr.FieldPurity, Scope: "SUP-006",
					Shape: ShapeStep, Mode: ModeAdditive, Magnitude: -0.8, Description: "Lower API purity from the new supplier"},
			},
		},
	}
}

// Default returns the built-in calendar as a registry
func Default() *Registry {
	return MustRegistry(DefaultScenarios()...)
}
