package generation

import (
	"fmt"

	"github.com/nyos/apr/internal/domain/apr"
)

// generateComplaints produces the market complaints received on a day.
// The daily count scales with production volume.
func generateComplaints(d dayContext, h history) []apr.Complaint {
	if h.empty() {
		return nil
	}
	day := d.stream(apr.CategoryComplaint, -1)
	lambda := d.rate(apr.CategoryComplaint, apr.FieldComplaintRate, "", d.date) * float64(d.perDay)
	n := day.Poisson(lambda)
	out := make([]apr.Complaint, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, newComplaint(d, h, j))
	}
	return out
}

func newComplaint(d dayContext, h history, j int) apr.Complaint {
	s := d.stream(apr.CategoryComplaint, j)
	date := d.date
	b := h.sample(s)
	scope := b.EquipmentID

	c := apr.Complaint{
		ComplaintID:       fmt.Sprintf("CMP-%s-%03d", date.Format(idDate), j+1),
		ComplaintDate:     date,
		BatchID:           b.BatchID,
		ProductCode:       b.ProductCode,
		ManufacturingDate: b.ManufacturingDate,
	}
	c.Category = d.choose(s, apr.CategoryComplaint, apr.FieldComplaintCategory, scope, date)
	c.Description = s.Pick(apr.ComplaintDescriptions[c.Category])
	if c.Category == "Adverse Event" {
		c.Severity = d.choose(s, apr.CategoryComplaint, apr.FieldAdverseSeverity, scope, date)
	} else {
		c.Severity = d.choose(s, apr.CategoryComplaint, apr.FieldSeverity, scope, date)
	}
	c.Market = s.Pick(apr.Markets)
	c.ReporterType = d.choose(s, apr.CategoryComplaint, apr.FieldReporterType, scope, date)

	c.InvestigationRequired = c.Severity == "Critical" || c.Severity == "Major" || s.Bernoulli(0.5)
	if c.InvestigationRequired {
		c.RootCause = s.Pick(apr.ComplaintRootCauses)
		c.InvestigationOutcome = d.choose(s, apr.CategoryComplaint, apr.FieldInvestigationOutcome, scope, date)
	} else {
		c.InvestigationOutcome = "Not investigated"
	}
	c.RegulatoryReportable = c.Category == "Adverse Event" && c.Severity == "Critical"

	c.Status = d.choose(s, apr.CategoryComplaint, apr.FieldComplaintStatus, scope, date)
	if c.Status == "Closed" {
		c.DaysToClose = s.IntRange(5, 45)
	}
	return c
}
