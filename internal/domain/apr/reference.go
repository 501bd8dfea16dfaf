package apr

import "fmt"

// Product is a finished dosage form manufactured at the site
type Product struct {
	Name        string `json:"name"`
	Code        string `json:"code"`
	BatchPrefix string `json:"batch_prefix"`
}

// Products lists the site's tablet products; the first one is the default
var Products = []Product{
	{Name: "Paracetamol 500mg Tablets", Code: "PARA-500-TAB", BatchPrefix: "PARA"},
	{Name: "Ibuprofen 400mg Tablets", Code: "IBU-400-TAB", BatchPrefix: "IBU"},
	{Name: "Aspirin 100mg Tablets", Code: "ASP-100-TAB", BatchPrefix: "ASP"},
}

// ProductByCode looks up a product
func ProductByCode(code string) (Product, bool) {
	for _, p := range Products {
		if p.Code == code {
			return p, true
		}
	}
	return Product{}, false
}

// Process equipment
var (
	TabletPresses = []string{"PRESS-A", "PRESS-B", "PRESS-C", "PRESS-D"}
	Granulators   = []string{"GRAN-01", "GRAN-02", "GRAN-03"}
	Dryers        = []string{"FBD-01", "FBD-02", "FBD-03"}
	Blenders      = []string{"BLEND-01", "BLEND-02", "BLEND-03"}
	HPLCSystems   = []string{"HPLC-01", "HPLC-02", "HPLC-03", "HPLC-04"}
	Dissolution   = []string{"DISS-01", "DISS-02", "DISS-03"}
)

// Personnel
var (
	Operators  = numbered("OP-%03d", 50)
	QCAnalysts = numbered("QC-%03d", 30)
	QPs        = numbered("QP-%02d", 9)
)

func numbered(format string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf(format, i+1)
	}
	return out
}

// Room is a classified manufacturing area under environmental monitoring
type Room struct {
	Code  string
	Name  string
	Class string
}

// ISO cleanroom classes
const (
	ISO7 = "ISO 7"
	ISO8 = "ISO 8"
)

var Cleanrooms = []Room{
	{Code: "CR-001", Name: "Dispensing Area", Class: ISO8},
	{Code: "CR-002", Name: "Granulation Suite", Class: ISO8},
	{Code: "CR-003", Name: "Compression Room A", Class: ISO7},
	{Code: "CR-004", Name: "Compression Room B", Class: ISO7},
	{Code: "CR-005", Name: "Packaging Hall", Class: ISO8},
	{Code: "CR-006", Name: "QC Laboratory", Class: ISO7},
}

// ReadingHours are the sampling hours of the three daily monitoring rounds
var ReadingHours = []int{8, 14, 20}

// Supplier delivers raw materials
type Supplier struct {
	ID        string
	Name      string
	Materials []string
}

var Suppliers = []Supplier{
	{ID: "SUP-001", Name: "ChemPharma Inc.", Materials: []string{"Paracetamol API", "Ibuprofen API"}},
	{ID: "SUP-002", Name: "ExcipientCorp", Materials: []string{"MCC (Microcrystalline Cellulose)", "Lactose Monohydrate", "Pregelatinized Starch"}},
	{ID: "SUP-003", Name: "BinderSolutions", Materials: []string{"PVP K30 (Povidone)", "HPMC (Hypromellose)"}},
	{ID: "SUP-004", Name: "CoatingMasters", Materials: []string{"Opadry Coating", "Magnesium Stearate"}},
	{ID: "SUP-005", Name: "PackagingPro", Materials: []string{"Colloidal Silicon Dioxide", "Croscarmellose Sodium"}},
	{ID: "SUP-006", Name: "GlobalAPI Ltd.", Materials: []string{"Aspirin API"}},
}

// Instrument is an item of the calibration register
type Instrument struct {
	ID            string
	Name          string
	Type          string
	FrequencyDays int
	Criticality   string
	// Field is the calibration parameter in the equipment parameter model.
	Field string
}

// Instruments is the calibration register. Every tablet press used for
// manufacturing is on it, so batch equipment references always resolve.
var Instruments = []Instrument{
	{ID: "BAL-001", Name: "Analytical Balance 1", Type: "Balance", FrequencyDays: 30, Criticality: "High", Field: FieldMassAccuracy},
	{ID: "BAL-002", Name: "Analytical Balance 2", Type: "Balance", FrequencyDays: 30, Criticality: "High", Field: FieldMassAccuracy},
	{ID: "BAL-003", Name: "Floor Scale", Type: "Balance", FrequencyDays: 90, Criticality: "Medium", Field: FieldMassAccuracy},
	{ID: "HPLC-01", Name: "HPLC System 1", Type: "Chromatography", FrequencyDays: 180, Criticality: "High", Field: FieldPerformance},
	{ID: "HPLC-02", Name: "HPLC System 2", Type: "Chromatography", FrequencyDays: 180, Criticality: "High", Field: FieldPerformance},
	{ID: "DISS-01", Name: "Dissolution Apparatus 1", Type: "Dissolution", FrequencyDays: 90, Criticality: "High", Field: FieldPerformance},
	{ID: "DISS-02", Name: "Dissolution Apparatus 2", Type: "Dissolution", FrequencyDays: 90, Criticality: "High", Field: FieldPerformance},
	{ID: "HARD-01", Name: "Hardness Tester 1", Type: "Physical Testing", FrequencyDays: 30, Criticality: "Medium", Field: FieldPerformance},
	{ID: "HARD-02", Name: "Hardness Tester 2", Type: "Physical Testing", FrequencyDays: 30, Criticality: "Medium", Field: FieldPerformance},
	{ID: "PH-001", Name: "pH Meter 1", Type: "Electrochemistry", FrequencyDays: 30, Criticality: "Medium", Field: FieldPerformance},
	{ID: "TEMP-01", Name: "Temperature Probe 1", Type: "Temperature", FrequencyDays: 365, Criticality: "High", Field: FieldCalTemperature},
	{ID: "PRESS-A", Name: "Tablet Press A", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical", Field: FieldPerformance},
	{ID: "PRESS-B", Name: "Tablet Press B", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical", Field: FieldPerformance},
	{ID: "PRESS-C", Name: "Tablet Press C", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical", Field: FieldPerformance},
	{ID: "PRESS-D", Name: "Tablet Press D", Type: "Manufacturing", FrequencyDays: 90, Criticality: "Critical", Field: FieldPerformance},
}

// InstrumentByID looks up an instrument of the register
func InstrumentByID(id string) (Instrument, bool) {
	for _, in := range Instruments {
		if in.ID == id {
			return in, true
		}
	}
	return Instrument{}, false
}

// CalibrationParameterName is the human label of a calibration field
func CalibrationParameterName(field string) string {
	switch field {
	case FieldMassAccuracy:
		return "Mass accuracy"
	case FieldCalTemperature:
		return "Temperature"
	default:
		return "Performance check"
	}
}

// StabilityCondition is an ICH storage condition with its pull schedule
type StabilityCondition struct {
	Name            string
	TempC           int
	RHPct           int
	TimepointMonths []int
	// DegradationRate is the assay loss in percent per month.
	DegradationRate float64
}

var StabilityConditions = []StabilityCondition{
	{Name: "Long-term", TempC: 25, RHPct: 60, TimepointMonths: []int{0, 3, 6, 9, 12, 18, 24, 36}, DegradationRate: 0.015},
	{Name: "Accelerated", TempC: 40, RHPct: 75, TimepointMonths: []int{0, 1, 2, 3, 6}, DegradationRate: 0.08},
	{Name: "Intermediate", TempC: 30, RHPct: 65, TimepointMonths: []int{0, 3, 6, 9, 12}, DegradationRate: 0.04},
}

// ComplaintDescriptions maps each complaint category to its typical reports
var ComplaintDescriptions = map[string][]string{
	"Product Quality": {"Broken tablets", "Discolored tablets", "Chipped tablets", "Foreign particle", "Odor complaint", "Wrong count", "Packaging damage"},
	"Efficacy":        {"Not effective", "Delayed onset", "Short duration", "Dissolution failure suspected"},
	"Adverse Event":   {"Allergic reaction", "GI upset", "Headache", "Skin rash", "Nausea"},
	"Labeling":        {"Missing expiry", "Illegible lot", "Wrong instructions"},
}

var (
	Markets = []string{"USA", "Canada", "UK", "Germany", "France", "Australia", "Japan", "Brazil", "India", "Mexico", "Spain", "Italy"}

	ComplaintRootCauses = []string{
		"Manufacturing process variation", "Storage condition issue", "Packaging defect",
		"User handling error", "No issue confirmed", "Transportation damage",
	}

	RootCauseCategories = []string{
		"Procedure not followed", "Procedure inadequate", "Training deficiency",
		"Equipment malfunction", "Environmental factor", "Raw material variation",
		"Human error", "Communication failure", "Design flaw", "Supplier issue",
	}

	ProblemCategories = []string{
		"Process deviation", "Equipment failure", "Documentation error",
		"Training gap", "Supplier issue", "Environmental excursion",
	}

	RCAMethods  = []string{"5 Whys", "Fishbone Diagram", "Fault Tree Analysis", "FMEA"}
	Departments = []string{"Manufacturing", "Quality Control", "Quality Assurance", "Warehouse", "Engineering", "Packaging"}
	CAPATypes   = []string{"Corrective", "Preventive", "Corrective & Preventive"}

	RejectReasons  = []string{"Weight", "Capping", "Sticking", "Chipping"}
	DeviationTypes = []string{"Process", "Equipment", "Material", "Documentation"}
	Warehouses     = []string{"A", "B", "C"}
)

// Outcome labels shared by generators and the resolver
const (
	OutcomeCAPAInitiated  = "Confirmed - CAPA initiated"
	SourceComplaint       = "Customer Complaint"
	SourceTrendAnalysis   = "Trend Analysis"
	DispositionReleased   = "Released"
	DispositionDeviation  = "Released with deviation"
	DispositionRejected   = "Rejected"
	DispositionQuarantine = "Quarantine"
)
