package export

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nyos/apr/internal/domain/apr"
)

// column renders one CSV field of a record type
type column[T any] struct {
	name  string
	value func(T) string
}

func names[T any](cols []column[T]) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.name
	}
	return out
}

func render[T any](cols []column[T], records []T) [][]string {
	out := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(cols))
		for j, c := range cols {
			row[j] = c.value(r)
		}
		out[i] = row
	}
	return out
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(apr.DateLayout)
}

func minute(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func passFail(b bool) string {
	if b {
		return "Pass"
	}
	return "Fail"
}

func itoa(n int) string { return strconv.Itoa(n) }

// optional renders zero as an empty field, for counts that only exist once
// a record is closed.
func optional(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

var batchColumns = []column[apr.Batch]{
	{"batch_id", func(r apr.Batch) string { return r.BatchID }},
	{"product_name", func(r apr.Batch) string { return r.ProductName }},
	{"product_code", func(r apr.Batch) string { return r.ProductCode }},
	{"batch_size_kg", func(r apr.Batch) string { return fixed(r.BatchSizeKg, 3) }},
	{"manufacturing_date", func(r apr.Batch) string { return date(r.ManufacturingDate) }},
	{"manufacturing_start", func(r apr.Batch) string { return minute(r.Start) }},
	{"manufacturing_end", func(r apr.Batch) string { return minute(r.End) }},
	{"shift", func(r apr.Batch) string { return r.Shift }},
	{"process_time_hours", func(r apr.Batch) string { return fixed(r.ProcessTimeHours, 2) }},
	{"operator_primary", func(r apr.Batch) string { return r.OperatorPrimary }},
	{"operator_secondary", func(r apr.Batch) string { return r.OperatorSecondary }},
	{"tablet_press_id", func(r apr.Batch) string { return r.EquipmentID }},
	{"granulator_id", func(r apr.Batch) string { return r.GranulatorID }},
	{"dryer_id", func(r apr.Batch) string { return r.DryerID }},
	{"blender_id", func(r apr.Batch) string { return r.BlenderID }},
	{"api_weight_kg", func(r apr.Batch) string { return fixed(r.APIWeightKg, 3) }},
	{"excipient_weight_kg", func(r apr.Batch) string { return fixed(r.ExcipientWeightKg, 3) }},
	{"inlet_air_temp_c", func(r apr.Batch) string { return fixed(r.InletAirTempC, 1) }},
	{"moisture_content_pct", func(r apr.Batch) string { return fixed(r.MoisturePct, 2) }},
	{"compression_force_main_kn", func(r apr.Batch) string { return fixed(r.CompressionForce, 2) }},
	{"tablet_weight_mg", func(r apr.Batch) string { return fixed(r.Weight, 1) }},
	{"tablet_thickness_mm", func(r apr.Batch) string { return fixed(r.Thickness, 2) }},
	{"tablet_hardness_kp", func(r apr.Batch) string { return fixed(r.Hardness, 1) }},
	{"friability_pct", func(r apr.Batch) string { return fixed(r.FriabilityPct, 3) }},
	{"disintegration_time_min", func(r apr.Batch) string { return fixed(r.DisintegrationMin, 1) }},
	{"theoretical_yield_tablets", func(r apr.Batch) string { return strconv.FormatInt(r.TheoreticalYield, 10) }},
	{"actual_yield_tablets", func(r apr.Batch) string { return strconv.FormatInt(r.ActualYield, 10) }},
	{"yield_percent", func(r apr.Batch) string { return fixed(r.YieldPercent, 2) }},
	{"reject_count", func(r apr.Batch) string { return itoa(r.RejectCount) }},
	{"reject_reason", func(r apr.Batch) string { return r.RejectReason }},
	{"has_deviation", func(r apr.Batch) string { return yesNo(r.HasDeviation) }},
	{"deviation_id", func(r apr.Batch) string { return r.DeviationID }},
	{"deviation_type", func(r apr.Batch) string { return r.DeviationType }},
}

var qcColumns = []column[apr.QCResult]{
	{"sample_id", func(r apr.QCResult) string { return r.SampleID }},
	{"batch_id", func(r apr.QCResult) string { return r.BatchID }},
	{"test_date", func(r apr.QCResult) string { return date(r.TestDate) }},
	{"product_code", func(r apr.QCResult) string { return r.ProductCode }},
	{"tablet_press_id", func(r apr.QCResult) string { return r.EquipmentID }},
	{"analyst_chemical", func(r apr.QCResult) string { return r.AnalystChemical }},
	{"analyst_physical", func(r apr.QCResult) string { return r.AnalystPhysical }},
	{"hplc_system", func(r apr.QCResult) string { return r.HPLCSystem }},
	{"dissolution_apparatus", func(r apr.QCResult) string { return r.DissolutionApparatus }},
	{"id_ir_result", func(r apr.QCResult) string {
		if r.IdentificationPass {
			return "Conforms"
		}
		return "Does Not Conform"
	}},
	{"id_hplc_rt_min", func(r apr.QCResult) string { return fixed(r.RetentionTimeMin, 3) }},
	{"assay_percent", func(r apr.QCResult) string { return fixed(r.AssayPercent, 2) }},
	{"assay_result", func(r apr.QCResult) string { return passFail(r.AssayPass) }},
	{"dissolution_vessel_1", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[0], 1) }},
	{"dissolution_vessel_2", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[1], 1) }},
	{"dissolution_vessel_3", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[2], 1) }},
	{"dissolution_vessel_4", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[3], 1) }},
	{"dissolution_vessel_5", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[4], 1) }},
	{"dissolution_vessel_6", func(r apr.QCResult) string { return fixed(r.DissolutionVessels[5], 1) }},
	{"dissolution_mean", func(r apr.QCResult) string { return fixed(r.DissolutionMean, 1) }},
	{"dissolution_min", func(r apr.QCResult) string { return fixed(r.DissolutionMin, 1) }},
	{"dissolution_result", func(r apr.QCResult) string { return passFail(r.DissolutionPass) }},
	{"cu_acceptance_value", func(r apr.QCResult) string { return fixed(r.AcceptanceValue, 1) }},
	{"cu_result", func(r apr.QCResult) string { return passFail(r.ContentUniformityPass) }},
	{"impurity_a_pct", func(r apr.QCResult) string { return fixed(r.ImpurityA, 3) }},
	{"impurity_b_pct", func(r apr.QCResult) string { return fixed(r.ImpurityB, 3) }},
	{"total_impurities_pct", func(r apr.QCResult) string { return fixed(r.TotalImpurities, 3) }},
	{"impurities_result", func(r apr.QCResult) string { return passFail(r.ImpuritiesPass) }},
	{"hardness_mean_kp", func(r apr.QCResult) string { return fixed(r.HardnessKp, 1) }},
	{"friability_pct", func(r apr.QCResult) string { return fixed(r.FriabilityPct, 3) }},
	{"disintegration_max_min", func(r apr.QCResult) string { return fixed(r.DisintegrationMaxMin, 1) }},
	{"weight_rsd_pct", func(r apr.QCResult) string { return fixed(r.WeightRSD, 2) }},
	{"physical_result", func(r apr.QCResult) string { return passFail(r.PhysicalPass) }},
	{"tamc_cfu_g", func(r apr.QCResult) string { return itoa(r.TAMC) }},
	{"tymc_cfu_g", func(r apr.QCResult) string { return itoa(r.TYMC) }},
	{"micro_result", func(r apr.QCResult) string { return passFail(r.MicroPass) }},
	{"overall_result", func(r apr.QCResult) string { return passFail(r.OverallPass) }},
}

var complaintColumns = []column[apr.Complaint]{
	{"complaint_id", func(r apr.Complaint) string { return r.ComplaintID }},
	{"complaint_date", func(r apr.Complaint) string { return date(r.ComplaintDate) }},
	{"batch_id", func(r apr.Complaint) string { return r.BatchID }},
	{"product_code", func(r apr.Complaint) string { return r.ProductCode }},
	{"category", func(r apr.Complaint) string { return r.Category }},
	{"description", func(r apr.Complaint) string { return r.Description }},
	{"severity", func(r apr.Complaint) string { return r.Severity }},
	{"market", func(r apr.Complaint) string { return r.Market }},
	{"reporter_type", func(r apr.Complaint) string { return r.ReporterType }},
	{"investigation_required", func(r apr.Complaint) string { return yesNo(r.InvestigationRequired) }},
	{"root_cause", func(r apr.Complaint) string { return r.RootCause }},
	{"investigation_outcome", func(r apr.Complaint) string { return r.InvestigationOutcome }},
	{"regulatory_reportable", func(r apr.Complaint) string { return yesNo(r.RegulatoryReportable) }},
	{"capa_reference", func(r apr.Complaint) string { return r.CAPAReference }},
	{"status", func(r apr.Complaint) string { return r.Status }},
	{"days_to_close", func(r apr.Complaint) string { return optional(r.DaysToClose) }},
}

var capaColumns = []column[apr.CAPA]{
	{"capa_id", func(r apr.CAPA) string { return r.CAPAID }},
	{"capa_type", func(r apr.CAPA) string { return r.CAPAType }},
	{"source", func(r apr.CAPA) string { return r.Source }},
	{"source_reference", func(r apr.CAPA) string { return r.SourceReference }},
	{"batch_id", func(r apr.CAPA) string { return r.BatchID }},
	{"open_date", func(r apr.CAPA) string { return date(r.OpenDate) }},
	{"problem_statement", func(r apr.CAPA) string { return r.ProblemStatement }},
	{"problem_category", func(r apr.CAPA) string { return r.ProblemCategory }},
	{"risk_score", func(r apr.CAPA) string { return r.RiskScore }},
	{"rca_method", func(r apr.CAPA) string { return r.RCAMethod }},
	{"root_cause_category", func(r apr.CAPA) string { return r.RootCauseCategory }},
	{"root_cause_description", func(r apr.CAPA) string { return r.RootCauseDescription }},
	{"responsible_department", func(r apr.CAPA) string { return r.Department }},
	{"capa_owner", func(r apr.CAPA) string { return r.Owner }},
	{"target_date", func(r apr.CAPA) string { return date(r.TargetDate) }},
	{"actual_completion_date", func(r apr.CAPA) string { return date(r.CompletionDate) }},
	{"days_to_close", func(r apr.CAPA) string { return optional(r.DaysToClose) }},
	{"status", func(r apr.CAPA) string { return r.Status }},
	{"effectiveness_verified", func(r apr.CAPA) string { return r.EffectivenessVerified }},
	{"num_actions", func(r apr.CAPA) string { return itoa(r.NumActions) }},
}

var environmentalColumns = []column[apr.EnvironmentalReading]{
	{"record_id", func(r apr.EnvironmentalReading) string { return r.RecordID }},
	{"monitoring_date", func(r apr.EnvironmentalReading) string { return date(r.MonitoringDate) }},
	{"monitoring_time", func(r apr.EnvironmentalReading) string { return r.MonitoringTime.Format("15:04") }},
	{"room_code", func(r apr.EnvironmentalReading) string { return r.RoomCode }},
	{"room_name", func(r apr.EnvironmentalReading) string { return r.RoomName }},
	{"room_classification", func(r apr.EnvironmentalReading) string { return r.RoomClass }},
	{"particles_05um_per_m3", func(r apr.EnvironmentalReading) string { return strconv.FormatInt(r.Particles05um, 10) }},
	{"particles_50um_per_m3", func(r apr.EnvironmentalReading) string { return strconv.FormatInt(r.Particles50um, 10) }},
	{"viable_air_cfu_m3", func(r apr.EnvironmentalReading) string { return itoa(r.ViableAir) }},
	{"viable_surface_cfu_plate", func(r apr.EnvironmentalReading) string { return itoa(r.ViableSurface) }},
	{"temperature_c", func(r apr.EnvironmentalReading) string { return fixed(r.TemperatureC, 1) }},
	{"humidity_pct", func(r apr.EnvironmentalReading) string { return fixed(r.HumidityPct, 1) }},
	{"differential_pressure_pa", func(r apr.EnvironmentalReading) string { return fixed(r.DiffPressurePa, 1) }},
	{"temperature_in_spec", func(r apr.EnvironmentalReading) string { return yesNo(r.TemperatureOK) }},
	{"humidity_in_spec", func(r apr.EnvironmentalReading) string { return yesNo(r.HumidityOK) }},
	{"pressure_in_spec", func(r apr.EnvironmentalReading) string { return yesNo(r.PressureOK) }},
	{"particles_in_spec", func(r apr.EnvironmentalReading) string { return yesNo(r.ParticlesOK) }},
	{"viable_in_spec", func(r apr.EnvironmentalReading) string { return yesNo(r.ViableOK) }},
	{"overall_result", func(r apr.EnvironmentalReading) string { return passFail(r.OverallPass) }},
	{"monitored_by", func(r apr.EnvironmentalReading) string { return r.MonitoredBy }},
}

var equipmentColumns = []column[apr.EquipmentCalibration]{
	{"calibration_id", func(r apr.EquipmentCalibration) string { return r.CalibrationID }},
	{"equipment_id", func(r apr.EquipmentCalibration) string { return r.EquipmentID }},
	{"equipment_name", func(r apr.EquipmentCalibration) string { return r.EquipmentName }},
	{"equipment_type", func(r apr.EquipmentCalibration) string { return r.EquipmentType }},
	{"criticality", func(r apr.EquipmentCalibration) string { return r.Criticality }},
	{"parameter", func(r apr.EquipmentCalibration) string { return r.Parameter }},
	{"scheduled_date", func(r apr.EquipmentCalibration) string { return date(r.ScheduledDate) }},
	{"actual_date", func(r apr.EquipmentCalibration) string { return date(r.ActualDate) }},
	{"next_due_date", func(r apr.EquipmentCalibration) string { return date(r.NextDueDate) }},
	{"as_found_value", func(r apr.EquipmentCalibration) string { return fixed(r.AsFound, 4) }},
	{"as_left_value", func(r apr.EquipmentCalibration) string { return fixed(r.AsLeft, 4) }},
	{"deviation", func(r apr.EquipmentCalibration) string { return fixed(r.Deviation, 4) }},
	{"tolerance", func(r apr.EquipmentCalibration) string { return fixed(r.Tolerance, 4) }},
	{"out_of_tolerance", func(r apr.EquipmentCalibration) string { return yesNo(r.OutOfTolerance) }},
	{"result", func(r apr.EquipmentCalibration) string { return r.Result }},
	{"calibrated_by", func(r apr.EquipmentCalibration) string { return r.CalibratedBy }},
	{"reviewed_by", func(r apr.EquipmentCalibration) string { return r.ReviewedBy }},
}

var stabilityColumns = []column[apr.StabilityResult]{
	{"study_id", func(r apr.StabilityResult) string { return r.StudyID }},
	{"batch_id", func(r apr.StabilityResult) string { return r.BatchID }},
	{"stability_condition", func(r apr.StabilityResult) string { return r.Condition }},
	{"storage_temp_c", func(r apr.StabilityResult) string { return itoa(r.StorageTempC) }},
	{"storage_rh_pct", func(r apr.StabilityResult) string { return itoa(r.StorageRHPct) }},
	{"timepoint_months", func(r apr.StabilityResult) string { return itoa(r.TimepointMonths) }},
	{"test_date", func(r apr.StabilityResult) string { return date(r.TestDate) }},
	{"assay_percent", func(r apr.StabilityResult) string { return fixed(r.AssayPercent, 2) }},
	{"dissolution_pct", func(r apr.StabilityResult) string { return fixed(r.DissolutionPct, 1) }},
	{"total_impurities_pct", func(r apr.StabilityResult) string { return fixed(r.TotalImpurities, 3) }},
	{"water_content_pct", func(r apr.StabilityResult) string { return fixed(r.WaterContentPct, 2) }},
	{"appearance", func(r apr.StabilityResult) string { return r.Appearance }},
	{"overall_result", func(r apr.StabilityResult) string { return passFail(r.OverallPass) }},
	{"analyst", func(r apr.StabilityResult) string { return r.Analyst }},
}

var rawMaterialColumns = []column[apr.RawMaterialReceipt]{
	{"grn_number", func(r apr.RawMaterialReceipt) string { return r.GRNNumber }},
	{"receipt_date", func(r apr.RawMaterialReceipt) string { return date(r.ReceiptDate) }},
	{"material_code", func(r apr.RawMaterialReceipt) string { return r.MaterialCode }},
	{"material_name", func(r apr.RawMaterialReceipt) string { return r.MaterialName }},
	{"supplier_id", func(r apr.RawMaterialReceipt) string { return r.SupplierID }},
	{"supplier_name", func(r apr.RawMaterialReceipt) string { return r.SupplierName }},
	{"quantity", func(r apr.RawMaterialReceipt) string { return fixed(r.Quantity, 1) }},
	{"unit", func(r apr.RawMaterialReceipt) string { return r.Unit }},
	{"batch_lot_number", func(r apr.RawMaterialReceipt) string { return r.LotNumber }},
	{"expiry_date", func(r apr.RawMaterialReceipt) string { return date(r.ExpiryDate) }},
	{"coa_received", func(r apr.RawMaterialReceipt) string { return yesNo(r.COAReceived) }},
	{"purity_percent", func(r apr.RawMaterialReceipt) string { return fixed(r.PurityPercent, 2) }},
	{"test_status", func(r apr.RawMaterialReceipt) string { return r.TestStatus }},
	{"disposition", func(r apr.RawMaterialReceipt) string { return r.Disposition }},
	{"received_by", func(r apr.RawMaterialReceipt) string { return r.ReceivedBy }},
	{"storage_location", func(r apr.RawMaterialReceipt) string { return r.StorageLocation }},
}

var releaseColumns = []column[apr.BatchRelease]{
	{"batch_id", func(r apr.BatchRelease) string { return r.BatchID }},
	{"product_name", func(r apr.BatchRelease) string { return r.ProductName }},
	{"product_code", func(r apr.BatchRelease) string { return r.ProductCode }},
	{"manufacturing_date", func(r apr.BatchRelease) string { return date(r.ManufacturingDate) }},
	{"qp_id", func(r apr.BatchRelease) string { return r.QPID }},
	{"qp_name", func(r apr.BatchRelease) string { return r.QPName }},
	{"review_start_date", func(r apr.BatchRelease) string { return date(r.ReviewStartDate) }},
	{"decision_date", func(r apr.BatchRelease) string { return date(r.DecisionDate) }},
	{"release_date", func(r apr.BatchRelease) string { return date(r.ReleaseDate) }},
	{"disposition", func(r apr.BatchRelease) string { return r.Disposition }},
	{"days_to_release", func(r apr.BatchRelease) string { return optional(r.DaysToRelease) }},
	{"has_deviation", func(r apr.BatchRelease) string { return yesNo(r.HasDeviation) }},
	{"has_oos", func(r apr.BatchRelease) string { return yesNo(r.HasOOS) }},
	{"yield_percent", func(r apr.BatchRelease) string { return fixed(r.YieldPercent, 2) }},
	{"market_destination", func(r apr.BatchRelease) string { return r.Market }},
	{"batch_size_kg", func(r apr.BatchRelease) string { return fixed(r.BatchSizeKg, 3) }},
}
