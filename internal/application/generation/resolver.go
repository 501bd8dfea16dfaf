package generation

import (
	"sort"
	"time"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
)

// resolve stitches complaints to CAPAs and verifies every cross reference of
// the run. It runs once, after both generation phases, on the full closure
// of generated categories.
func resolve(ds *apr.Dataset) error {
	linkComplaints(ds)
	return verify(ds)
}

// linkComplaints points every complaint-sourced CAPA at the latest complaint
// received on or before its open date, and gives each complaint that
// initiated a CAPA the first CAPA citing it.
func linkComplaints(ds *apr.Dataset) {
	complaints := ds.Complaints
	byID := make(map[string]int, len(complaints))
	for i, c := range complaints {
		byID[c.ComplaintID] = i
	}

	citedBy := make(map[string]string)
	for i := range ds.CAPAs {
		capa := &ds.CAPAs[i]
		if capa.Source != apr.SourceComplaint {
			continue
		}
		// complaints are in date order; find the first one after the open date
		k := sort.Search(len(complaints), func(j int) bool {
			return complaints[j].ComplaintDate.After(capa.OpenDate)
		})
		if k == 0 {
			capa.Source = apr.SourceTrendAnalysis
			capa.SourceReference = "TREND-" + capa.OpenDate.Format(idDate)
			continue
		}
		c := complaints[k-1]
		capa.SourceReference = c.ComplaintID
		capa.BatchID = c.BatchID
		capa.ManufacturingDate = c.ManufacturingDate
		if _, ok := citedBy[c.ComplaintID]; !ok {
			citedBy[c.ComplaintID] = capa.CAPAID
		}
	}

	for i := range ds.Complaints {
		c := &ds.Complaints[i]
		if c.InvestigationOutcome == apr.OutcomeCAPAInitiated {
			c.CAPAReference = citedBy[c.ComplaintID]
		}
	}
}

// verify fails the run on the first dangling or out-of-order reference
func verify(ds *apr.Dataset) error {
	made := make(map[string]time.Time, len(ds.Batches))
	for _, b := range ds.Batches {
		if _, ok := apr.InstrumentByID(b.EquipmentID); !ok {
			return shared.NewIntegrityError("batch %s uses equipment %s missing from the calibration register", b.BatchID, b.EquipmentID)
		}
		made[b.BatchID] = b.ManufacturingDate
	}

	// check reports a reference that is unknown, or dated before its batch.
	// Same-day records are allowed only when sameDay is set.
	check := func(category apr.Category, recordID, batchID string, date time.Time, sameDay bool) error {
		mfg, ok := made[batchID]
		if !ok {
			return shared.NewIntegrityError("%s %s references unknown batch %s", category, recordID, batchID)
		}
		if date.Before(mfg) || (!sameDay && !date.After(mfg)) {
			return shared.NewIntegrityError("%s %s dated %s precedes batch %s made %s", category, recordID,
				date.Format(apr.DateLayout), batchID, mfg.Format(apr.DateLayout))
		}
		return nil
	}

	for _, r := range ds.QCResults {
		if err := check(apr.CategoryQC, r.SampleID, r.BatchID, r.TestDate, true); err != nil {
			return err
		}
	}
	for _, r := range ds.Stability {
		if err := check(apr.CategoryStability, r.StudyID, r.BatchID, r.TestDate, true); err != nil {
			return err
		}
	}
	for _, r := range ds.Complaints {
		if err := check(apr.CategoryComplaint, r.ComplaintID, r.BatchID, r.ComplaintDate, false); err != nil {
			return err
		}
	}
	capaIDs := make(map[string]bool, len(ds.CAPAs))
	for _, r := range ds.CAPAs {
		if err := check(apr.CategoryCAPA, r.CAPAID, r.BatchID, r.OpenDate, false); err != nil {
			return err
		}
		capaIDs[r.CAPAID] = true
	}
	for _, r := range ds.Releases {
		if err := check(apr.CategoryBatchRelease, r.BatchID, r.BatchID, r.DecisionDate, false); err != nil {
			return err
		}
	}
	for _, r := range ds.Complaints {
		if r.CAPAReference != "" && !capaIDs[r.CAPAReference] {
			return shared.NewIntegrityError("complaint %s references unknown CAPA %s", r.ComplaintID, r.CAPAReference)
		}
	}
	for _, r := range ds.Calibrations {
		if _, ok := apr.InstrumentByID(r.EquipmentID); !ok {
			return shared.NewIntegrityError("calibration %s references unknown instrument %s", r.CalibrationID, r.EquipmentID)
		}
	}
	return nil
}
