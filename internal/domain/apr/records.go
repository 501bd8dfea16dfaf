package apr

import "time"

// Batch is a manufactured lot, the root entity every dependent record points to
type Batch struct {
	BatchID           string
	Sequence          int
	ProductName       string
	ProductCode       string
	ManufacturingDate time.Time
	Start             time.Time
	End               time.Time
	Shift             string
	ProcessTimeHours  float64
	OperatorPrimary   string
	OperatorSecondary string
	EquipmentID       string
	GranulatorID      string
	DryerID           string
	BlenderID         string
	APIWeightKg       float64
	ExcipientWeightKg float64
	BatchSizeKg       float64
	InletAirTempC     float64
	MoisturePct       float64
	CompressionForce  float64
	Weight            float64
	Thickness         float64
	Hardness          float64
	FriabilityPct     float64
	DisintegrationMin float64
	TheoreticalYield  int64
	ActualYield       int64
	YieldPercent      float64
	RejectCount       int
	RejectReason      string
	HasDeviation      bool
	DeviationID       string
	DeviationType     string
}

// QCResult is the release testing of one batch
type QCResult struct {
	SampleID              string
	BatchID               string
	ProductCode           string
	EquipmentID           string
	ManufacturingDate     time.Time
	TestDate              time.Time
	AnalystChemical       string
	AnalystPhysical       string
	HPLCSystem            string
	DissolutionApparatus  string
	IdentificationPass    bool
	RetentionTimeMin      float64
	AssayPercent          float64
	AssayPass             bool
	DissolutionVessels    [DissolutionVessels]float64
	DissolutionMean       float64
	DissolutionMin        float64
	DissolutionPass       bool
	AcceptanceValue       float64
	ContentUniformityPass bool
	ImpurityA             float64
	ImpurityB             float64
	TotalImpurities       float64
	ImpuritiesPass        bool
	HardnessKp            float64
	FriabilityPct         float64
	DisintegrationMaxMin  float64
	WeightRSD             float64
	PhysicalPass          bool
	TAMC                  int
	TYMC                  int
	MicroPass             bool
	OverallPass           bool
}

// Complaint is a market complaint traced to a distributed batch
type Complaint struct {
	ComplaintID           string
	ComplaintDate         time.Time
	BatchID               string
	ProductCode           string
	ManufacturingDate     time.Time
	Category              string
	Description           string
	Severity              string
	Market                string
	ReporterType          string
	InvestigationRequired bool
	RootCause             string
	InvestigationOutcome  string
	RegulatoryReportable  bool
	CAPAReference         string
	Status                string
	DaysToClose           int
}

// CAPA is a corrective and preventive action raised against a batch
type CAPA struct {
	CAPAID                string
	OpenDate              time.Time
	BatchID               string
	ManufacturingDate     time.Time
	CAPAType              string
	Source                string
	SourceReference       string
	ProblemStatement      string
	ProblemCategory       string
	RiskScore             string
	RCAMethod             string
	RootCauseCategory     string
	RootCauseDescription  string
	Department            string
	Owner                 string
	TargetDate            time.Time
	CompletionDate        time.Time
	DaysToClose           int
	Status                string
	EffectivenessVerified string
	NumActions            int
}

// EnvironmentalReading is one monitoring round in one cleanroom
type EnvironmentalReading struct {
	RecordID       string
	MonitoringDate time.Time
	MonitoringTime time.Time
	RoomCode       string
	RoomName       string
	RoomClass      string
	Particles05um  int64
	Particles50um  int64
	ViableAir      int
	ViableSurface  int
	TemperatureC   float64
	HumidityPct    float64
	DiffPressurePa float64
	TemperatureOK  bool
	HumidityOK     bool
	PressureOK     bool
	ParticlesOK    bool
	ViableOK       bool
	OverallPass    bool
	MonitoredBy    string
}

// EquipmentCalibration is one scheduled calibration of a registered instrument
type EquipmentCalibration struct {
	CalibrationID  string
	EquipmentID    string
	EquipmentName  string
	EquipmentType  string
	Criticality    string
	Parameter      string
	ScheduledDate  time.Time
	ActualDate     time.Time
	NextDueDate    time.Time
	AsFound        float64
	AsLeft         float64
	Deviation      float64
	Tolerance      float64
	OutOfTolerance bool
	Result         string
	CalibratedBy   string
	ReviewedBy     string
}

// StabilityResult is one pull point of a stability study
type StabilityResult struct {
	StudyID           string
	BatchID           string
	ManufacturingDate time.Time
	Condition         string
	StorageTempC      int
	StorageRHPct      int
	TimepointMonths   int
	TestDate          time.Time
	AssayPercent      float64
	DissolutionPct    float64
	TotalImpurities   float64
	WaterContentPct   float64
	Appearance        string
	OverallPass       bool
	Analyst           string
}

// RawMaterialReceipt is a goods receipt with its incoming inspection
type RawMaterialReceipt struct {
	GRNNumber       string
	ReceiptDate     time.Time
	MaterialCode    string
	MaterialName    string
	SupplierID      string
	SupplierName    string
	Quantity        float64
	Unit            string
	LotNumber       string
	ExpiryDate      time.Time
	COAReceived     bool
	PurityPercent   float64
	TestStatus      string
	Disposition     string
	ReceivedBy      string
	StorageLocation string
}

// BatchRelease is the Qualified Person disposition of a batch
type BatchRelease struct {
	BatchID           string
	ProductName       string
	ProductCode       string
	ManufacturingDate time.Time
	QPID              string
	QPName            string
	ReviewStartDate   time.Time
	DecisionDate      time.Time
	ReleaseDate       time.Time
	Disposition       string
	DaysToRelease     int
	HasDeviation      bool
	HasOOS            bool
	YieldPercent      float64
	Market            string
	BatchSizeKg       float64
}

// Dataset is the flat, identifier-linked output of one generation run
type Dataset struct {
	Batches       []Batch
	QCResults     []QCResult
	Complaints    []Complaint
	CAPAs         []CAPA
	Environmental []EnvironmentalReading
	Calibrations  []EquipmentCalibration
	Stability     []StabilityResult
	RawMaterials  []RawMaterialReceipt
	Releases      []BatchRelease
}

// Count returns the number of records of a category
func (d *Dataset) Count(c Category) int {
	switch c {
	case CategoryBatch:
		return len(d.Batches)
	case CategoryQC:
		return len(d.QCResults)
	case CategoryComplaint:
		return len(d.Complaints)
	case CategoryCAPA:
		return len(d.CAPAs)
	case CategoryEnvironmental:
		return len(d.Environmental)
	case CategoryEquipment:
		return len(d.Calibrations)
	case CategoryStability:
		return len(d.Stability)
	case CategoryRawMaterial:
		return len(d.RawMaterials)
	case CategoryBatchRelease:
		return len(d.Releases)
	default:
		return 0
	}
}

// Counts returns the record count of every category in the set
func (d *Dataset) Counts(cats CategorySet) map[Category]int {
	out := make(map[Category]int, len(cats))
	for _, c := range cats {
		out[c] = d.Count(c)
	}
	return out
}

// Keep drops the records of every category outside cats
func (d *Dataset) Keep(cats CategorySet) {
	if !cats.Has(CategoryBatch) {
		d.Batches = nil
	}
	if !cats.Has(CategoryQC) {
		d.QCResults = nil
	}
	if !cats.Has(CategoryComplaint) {
		d.Complaints = nil
	}
	if !cats.Has(CategoryCAPA) {
		d.CAPAs = nil
	}
	if !cats.Has(CategoryEnvironmental) {
		d.Environmental = nil
	}
	if !cats.Has(CategoryEquipment) {
		d.Calibrations = nil
	}
	if !cats.Has(CategoryStability) {
		d.Stability = nil
	}
	if !cats.Has(CategoryRawMaterial) {
		d.RawMaterials = nil
	}
	if !cats.Has(CategoryBatchRelease) {
		d.Releases = nil
	}
}
