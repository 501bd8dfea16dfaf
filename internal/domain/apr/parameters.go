package apr

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/nyos/apr/internal/domain/shared"
)

// Parameter is the baseline distribution of a continuous field. Spec limits
// define acceptance; physical bounds are values no record may ever leave.
type Parameter struct {
	Target   float64
	StdDev   float64
	SpecMin  float64
	SpecMax  float64
	PhysMin  float64
	PhysMax  float64
	Decimals int32
}

// Clamp limits v to the physical bounds
func (p Parameter) Clamp(v float64) float64 {
	if v < p.PhysMin {
		return p.PhysMin
	}
	if v > p.PhysMax {
		return p.PhysMax
	}
	return v
}

// Round rounds v to the recorded precision of the field
func (p Parameter) Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(p.Decimals).InexactFloat64()
}

// Record clamps then rounds, the final step before a value is stored
func (p Parameter) Record(v float64) float64 {
	return p.Clamp(p.Round(p.Clamp(v)))
}

// InSpec reports whether v lies within the specification limits
func (p Parameter) InSpec(v float64) bool {
	return v >= p.SpecMin && v <= p.SpecMax
}

// WeightedLevel is one outcome of a categorical field
type WeightedLevel struct {
	Value  string
	Weight float64
}

// Continuous field names
const (
	FieldYield            = "yield_percent"
	FieldHardness         = "hardness"
	FieldCompressionForce = "compression_force"
	FieldWeight           = "weight"
	FieldThickness        = "thickness"
	FieldAPIWeight        = "api_weight_kg"
	FieldExcipientWeight  = "excipient_weight_kg"
	FieldMoisture         = "moisture_content"
	FieldFriability       = "friability"
	FieldDisintegration   = "disintegration_time"
	FieldProcessTime      = "process_time_hours"
	FieldInletAirTemp     = "inlet_air_temp"
	FieldDailyOutput      = "daily_output"
	FieldDeviationRate    = "deviation_rate"

	FieldAssay             = "assay_percent"
	FieldDissolution       = "dissolution_percent"
	FieldContentUniformity = "content_uniformity"
	FieldAcceptanceValue   = "content_uniformity_av"
	FieldImpurityA         = "impurity_a"
	FieldImpurityB         = "impurity_b"
	FieldTotalImpurities   = "total_impurities"
	FieldRetentionTime     = "retention_time"
	FieldWeightRSD         = "weight_rsd"
	FieldTAMC              = "tamc"
	FieldTYMC              = "tymc"
	FieldQCHardness        = "hardness_kp"
	FieldComplaintRate     = "rate"
	FieldCAPARate          = "rate"
	FieldTemperature       = "temperature"
	FieldHumidity          = "humidity"
	FieldDiffPressure      = "differential_pressure"
	FieldParticles05ISO7   = "particles_05um_iso7"
	FieldParticles05ISO8   = "particles_05um_iso8"
	FieldParticles50ISO7   = "particles_50um_iso7"
	FieldParticles50ISO8   = "particles_50um_iso8"
	FieldViableAir         = "viable_air"
	FieldViableSurface     = "viable_surface"
	FieldMassAccuracy      = "mass_accuracy"
	FieldCalTemperature    = "temperature"
	FieldPerformance       = "performance"
	FieldStabilityAssay    = "assay_percent"
	FieldStabilityDiss     = "dissolution_percent"
	FieldStabilityImpurity = "total_impurities"
	FieldWaterContent      = "water_content"
	FieldDegradationRate   = "degradation_rate"
	FieldReceiptRate       = "receipt_rate"
	FieldAPIQuantity       = "api_quantity"
	FieldExcipientQuantity = "excipient_quantity"
	FieldPurity            = "purity_percent"
)

// Sample sizes of the compendial QC tests
const (
	DissolutionVessels = 6
	UniformityUnits    = 10
)

// Categorical field names
const (
	FieldShift                = "shift"
	FieldComplaintCategory    = "category"
	FieldSeverity             = "severity"
	FieldAdverseSeverity      = "adverse_event_severity"
	FieldReporterType         = "reporter_type"
	FieldComplaintStatus      = "status"
	FieldInvestigationOutcome = "investigation_outcome"
	FieldCAPASource           = "source"
	FieldRiskScore            = "risk_score"
	FieldCAPAStatus           = "status"
	FieldCalibrationDelay     = "delay_days"
	FieldCOAReceived          = "coa_received"
	FieldOOSDisposition       = "oos_disposition"
	FieldDeviationDisposition = "deviation_disposition"
)

type fieldKey struct {
	category Category
	field    string
}

var parameters = map[fieldKey]Parameter{
	{CategoryBatch, FieldYield}:            {Target: 98.5, StdDev: 1.0, SpecMin: 95, SpecMax: 100, PhysMin: 80, PhysMax: 100, Decimals: 2},
	{CategoryBatch, FieldHardness}:         {Target: 12, StdDev: 1.0, SpecMin: 8, SpecMax: 16, PhysMin: 6, PhysMax: 20, Decimals: 1},
	{CategoryBatch, FieldCompressionForce}: {Target: 18, StdDev: 1.5, SpecMin: 14, SpecMax: 22, PhysMin: 5, PhysMax: 35, Decimals: 2},
	{CategoryBatch, FieldWeight}:           {Target: 500, StdDev: 5, SpecMin: 475, SpecMax: 525, PhysMin: 400, PhysMax: 600, Decimals: 1},
	{CategoryBatch, FieldThickness}:        {Target: 4.5, StdDev: 0.1, SpecMin: 4.2, SpecMax: 4.8, PhysMin: 3.5, PhysMax: 5.5, Decimals: 2},
	{CategoryBatch, FieldAPIWeight}:        {Target: 50, StdDev: 0.5, SpecMin: 49, SpecMax: 51, PhysMin: 40, PhysMax: 60, Decimals: 3},
	{CategoryBatch, FieldExcipientWeight}:  {Target: 45, StdDev: 0.4, SpecMin: 44, SpecMax: 46, PhysMin: 35, PhysMax: 55, Decimals: 3},
	{CategoryBatch, FieldMoisture}:         {Target: 2.0, StdDev: 0.3, SpecMin: 1, SpecMax: 3, PhysMin: 0, PhysMax: 10, Decimals: 2},
	{CategoryBatch, FieldFriability}:       {Target: 0.3, StdDev: 0.1, SpecMin: 0, SpecMax: 1, PhysMin: 0, PhysMax: 5, Decimals: 3},
	{CategoryBatch, FieldDisintegration}:   {Target: 8, StdDev: 2, SpecMin: 0, SpecMax: 15, PhysMin: 0, PhysMax: 60, Decimals: 1},
	{CategoryBatch, FieldProcessTime}:      {Target: 8, StdDev: 1, SpecMin: 6, SpecMax: 10, PhysMin: 2, PhysMax: 24, Decimals: 2},
	{CategoryBatch, FieldInletAirTemp}:     {Target: 60, StdDev: 2, SpecMin: 55, SpecMax: 65, PhysMin: 20, PhysMax: 90, Decimals: 1},
	{CategoryBatch, FieldDailyOutput}:      {Target: 1, StdDev: 0, SpecMin: 0.5, SpecMax: 1, PhysMin: 0.05, PhysMax: 1, Decimals: 2},
	{CategoryBatch, FieldDeviationRate}:    {Target: 0.02, StdDev: 0, SpecMin: 0, SpecMax: 0.05, PhysMin: 0, PhysMax: 1, Decimals: 4},

	{CategoryQC, FieldAssay}:             {Target: 100, StdDev: 1.5, SpecMin: 95, SpecMax: 105, PhysMin: 80, PhysMax: 120, Decimals: 2},
	{CategoryQC, FieldDissolution}:       {Target: 92, StdDev: 3, SpecMin: 75, SpecMax: 110, PhysMin: 0, PhysMax: 110, Decimals: 1},
	{CategoryQC, FieldContentUniformity}: {Target: 100, StdDev: 2, SpecMin: 85, SpecMax: 115, PhysMin: 70, PhysMax: 130, Decimals: 1},
	{CategoryQC, FieldAcceptanceValue}:   {Target: 5, StdDev: 0, SpecMin: 0, SpecMax: 15, PhysMin: 0, PhysMax: 100, Decimals: 1},
	{CategoryQC, FieldImpurityA}:         {Target: 0.05, StdDev: 0.02, SpecMin: 0, SpecMax: 0.5, PhysMin: 0, PhysMax: 5, Decimals: 3},
	{CategoryQC, FieldImpurityB}:         {Target: 0.08, StdDev: 0.03, SpecMin: 0, SpecMax: 0.5, PhysMin: 0, PhysMax: 5, Decimals: 3},
	{CategoryQC, FieldTotalImpurities}:   {Target: 0.13, StdDev: 0, SpecMin: 0, SpecMax: 1, PhysMin: 0, PhysMax: 10, Decimals: 3},
	{CategoryQC, FieldRetentionTime}:     {Target: 8.5, StdDev: 0.1, SpecMin: 8.2, SpecMax: 8.8, PhysMin: 7, PhysMax: 10, Decimals: 3},
	{CategoryQC, FieldWeightRSD}:         {Target: 1.0, StdDev: 0.4, SpecMin: 0, SpecMax: 2, PhysMin: 0, PhysMax: 10, Decimals: 2},
	{CategoryQC, FieldTAMC}:              {Target: 50, StdDev: 25, SpecMin: 0, SpecMax: 1000, PhysMin: 0, PhysMax: 100000, Decimals: 0},
	{CategoryQC, FieldTYMC}:              {Target: 20, StdDev: 10, SpecMin: 0, SpecMax: 100, PhysMin: 0, PhysMax: 10000, Decimals: 0},
	{CategoryQC, FieldQCHardness}:        {Target: 12, StdDev: 0.3, SpecMin: 8, SpecMax: 16, PhysMin: 6, PhysMax: 20, Decimals: 1},

	{CategoryComplaint, FieldComplaintRate}: {Target: 0.008, StdDev: 0, SpecMin: 0, SpecMax: 0.02, PhysMin: 0, PhysMax: 1, Decimals: 4},
	{CategoryCAPA, FieldCAPARate}:           {Target: 0.33, StdDev: 0, SpecMin: 0, SpecMax: 1, PhysMin: 0, PhysMax: 10, Decimals: 3},

	{CategoryEnvironmental, FieldTemperature}:     {Target: 21, StdDev: 1, SpecMin: 18, SpecMax: 25, PhysMin: 10, PhysMax: 40, Decimals: 1},
	{CategoryEnvironmental, FieldHumidity}:        {Target: 45, StdDev: 5, SpecMin: 30, SpecMax: 60, PhysMin: 5, PhysMax: 95, Decimals: 1},
	{CategoryEnvironmental, FieldDiffPressure}:    {Target: 15, StdDev: 2, SpecMin: 10, SpecMax: 30, PhysMin: 0, PhysMax: 50, Decimals: 1},
	{CategoryEnvironmental, FieldParticles05ISO7}: {Target: 150000, StdDev: 30000, SpecMin: 0, SpecMax: 352000, PhysMin: 0, PhysMax: 10000000, Decimals: 0},
	{CategoryEnvironmental, FieldParticles05ISO8}: {Target: 2500000, StdDev: 500000, SpecMin: 0, SpecMax: 3520000, PhysMin: 0, PhysMax: 100000000, Decimals: 0},
	{CategoryEnvironmental, FieldParticles50ISO7}: {Target: 200, StdDev: 80, SpecMin: 0, SpecMax: 2930, PhysMin: 0, PhysMax: 1000000, Decimals: 0},
	{CategoryEnvironmental, FieldParticles50ISO8}: {Target: 10000, StdDev: 4000, SpecMin: 0, SpecMax: 29300, PhysMin: 0, PhysMax: 10000000, Decimals: 0},
	{CategoryEnvironmental, FieldViableAir}:       {Target: 5, StdDev: 2, SpecMin: 0, SpecMax: 10, PhysMin: 0, PhysMax: 1000, Decimals: 0},
	{CategoryEnvironmental, FieldViableSurface}:   {Target: 3, StdDev: 1.5, SpecMin: 0, SpecMax: 5, PhysMin: 0, PhysMax: 1000, Decimals: 0},

	{CategoryEquipment, FieldMassAccuracy}:   {Target: 100, StdDev: 0.005, SpecMin: 99.99, SpecMax: 100.01, PhysMin: 99, PhysMax: 101, Decimals: 4},
	{CategoryEquipment, FieldCalTemperature}: {Target: 25, StdDev: 0.3, SpecMin: 24.5, SpecMax: 25.5, PhysMin: 20, PhysMax: 30, Decimals: 2},
	{CategoryEquipment, FieldPerformance}:    {Target: 100, StdDev: 2, SpecMin: 95, SpecMax: 105, PhysMin: 50, PhysMax: 150, Decimals: 2},

	{CategoryStability, FieldStabilityAssay}:    {Target: 100, StdDev: 0.5, SpecMin: 95, SpecMax: 105, PhysMin: 80, PhysMax: 110, Decimals: 2},
	{CategoryStability, FieldStabilityDiss}:     {Target: 92, StdDev: 1, SpecMin: 80, SpecMax: 110, PhysMin: 0, PhysMax: 110, Decimals: 1},
	{CategoryStability, FieldStabilityImpurity}: {Target: 0.1, StdDev: 0.02, SpecMin: 0, SpecMax: 1, PhysMin: 0, PhysMax: 10, Decimals: 3},
	{CategoryStability, FieldWaterContent}:      {Target: 2, StdDev: 0.1, SpecMin: 0, SpecMax: 5, PhysMin: 0, PhysMax: 15, Decimals: 2},
	{CategoryStability, FieldDegradationRate}:   {Target: 1, StdDev: 0, SpecMin: 0, SpecMax: 2, PhysMin: 0, PhysMax: 10, Decimals: 3},

	{CategoryRawMaterial, FieldReceiptRate}:       {Target: 5.0 / 7.0, StdDev: 0, SpecMin: 0, SpecMax: 3, PhysMin: 0, PhysMax: 20, Decimals: 3},
	{CategoryRawMaterial, FieldAPIQuantity}:       {Target: 100, StdDev: 20, SpecMin: 50, SpecMax: 150, PhysMin: 1, PhysMax: 1000, Decimals: 1},
	{CategoryRawMaterial, FieldExcipientQuantity}: {Target: 500, StdDev: 100, SpecMin: 200, SpecMax: 800, PhysMin: 1, PhysMax: 5000, Decimals: 1},
	{CategoryRawMaterial, FieldPurity}:            {Target: 99.5, StdDev: 0.4, SpecMin: 98, SpecMax: 100, PhysMin: 90, PhysMax: 100, Decimals: 2},
}

var distributions = map[fieldKey][]WeightedLevel{
	{CategoryBatch, FieldShift}: {{"Day", 0.50}, {"Evening", 0.35}, {"Night", 0.15}},

	{CategoryComplaint, FieldComplaintCategory}: {{"Product Quality", 0.25}, {"Efficacy", 0.25}, {"Adverse Event", 0.25}, {"Labeling", 0.25}},
	{CategoryComplaint, FieldSeverity}:          {{"Critical", 0.05}, {"Major", 0.25}, {"Minor", 0.70}},
	{CategoryComplaint, FieldAdverseSeverity}:   {{"Critical", 0.4}, {"Major", 0.6}},
	{CategoryComplaint, FieldReporterType}:      {{"Patient", 0.4}, {"Healthcare Professional", 0.3}, {"Pharmacist", 0.2}, {"Distributor", 0.1}},
	{CategoryComplaint, FieldComplaintStatus}:   {{"Closed", 0.6}, {"Under Investigation", 0.25}, {"Open", 0.15}},
	{CategoryComplaint, FieldInvestigationOutcome}: {
		{OutcomeCAPAInitiated, 0.25}, {"Not confirmed - No action required", 0.25},
		{"Confirmed - Process adjustment made", 0.25}, {"Under investigation", 0.25},
	},

	{CategoryCAPA, FieldCAPASource}: {
		{"Deviation", 0.35}, {SourceComplaint, 0.20}, {"OOS Investigation", 0.15}, {"Internal Audit", 0.10},
		{"External Audit", 0.05}, {"Management Review", 0.05}, {SourceTrendAnalysis, 0.05}, {"Self-Identified", 0.05},
	},
	{CategoryCAPA, FieldRiskScore}: {{"Critical", 0.05}, {"High", 0.15}, {"Medium", 0.50}, {"Low", 0.30}},
	{CategoryCAPA, FieldCAPAStatus}: {
		{"Closed - Effective", 0.50}, {"Closed - Not Effective", 0.05}, {"Implementation", 0.15},
		{"Verification", 0.10}, {"Root Cause Analysis", 0.10}, {"Open", 0.10},
	},

	{CategoryEquipment, FieldCalibrationDelay}: {{"0", 0.70}, {"1", 0.10}, {"2", 0.10}, {"3", 0.05}, {"5", 0.03}, {"10", 0.02}},

	{CategoryRawMaterial, FieldCOAReceived}: {{"Yes", 0.98}, {"No", 0.02}},

	{CategoryBatchRelease, FieldOOSDisposition}:       {{DispositionRejected, 0.7}, {DispositionDeviation, 0.3}},
	{CategoryBatchRelease, FieldDeviationDisposition}: {{DispositionReleased, 0.8}, {DispositionDeviation, 0.2}},
}

// Baseline returns the parameter of a continuous field. An unknown pair is a
// configuration error: it signals a programming mistake, not bad input.
func Baseline(category Category, field string) (Parameter, error) {
	p, ok := parameters[fieldKey{category, field}]
	if !ok {
		return Parameter{}, shared.NewConfigurationError("no baseline for %s/%s", category, field)
	}
	return p, nil
}

// MustBaseline is Baseline for static tables; it panics on unknown fields.
func MustBaseline(category Category, field string) Parameter {
	p, err := Baseline(category, field)
	if err != nil {
		panic(err)
	}
	return p
}

// Distribution returns the weighted levels of a categorical field
func Distribution(category Category, field string) ([]WeightedLevel, error) {
	levels, ok := distributions[fieldKey{category, field}]
	if !ok {
		return nil, shared.NewConfigurationError("no distribution for %s/%s", category, field)
	}
	out := make([]WeightedLevel, len(levels))
	copy(out, levels)
	return out, nil
}

// MustDistribution is Distribution for static tables
func MustDistribution(category Category, field string) []WeightedLevel {
	levels, err := Distribution(category, field)
	if err != nil {
		panic(err)
	}
	return levels
}

// IsContinuous reports whether the pair names a continuous field
func IsContinuous(category Category, field string) bool {
	_, ok := parameters[fieldKey{category, field}]
	return ok
}

// HasLevel reports whether value is a level of a categorical field
func HasLevel(category Category, field, value string) bool {
	for _, l := range distributions[fieldKey{category, field}] {
		if l.Value == value {
			return true
		}
	}
	return false
}

// Fields lists the continuous fields of a category, sorted
func Fields(category Category) []string {
	var out []string
	for k := range parameters {
		if k.category == category {
			out = append(out, k.field)
		}
	}
	sort.Strings(out)
	return out
}
