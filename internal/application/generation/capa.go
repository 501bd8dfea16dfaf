package generation

import (
	"fmt"
	"strings"

	"github.com/nyos/apr/internal/domain/apr"
)

// generateCAPAs produces the CAPAs opened on a day. Sources citing a
// customer complaint are linked by the resolver once all complaints exist.
func generateCAPAs(d dayContext, h history) []apr.CAPA {
	if h.empty() {
		return nil
	}
	day := d.stream(apr.CategoryCAPA, -1)
	n := day.Poisson(d.rate(apr.CategoryCAPA, apr.FieldCAPARate, "", d.date))
	out := make([]apr.CAPA, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, newCAPA(d, h, j))
	}
	return out
}

func newCAPA(d dayContext, h history, j int) apr.CAPA {
	s := d.stream(apr.CategoryCAPA, j)
	date := d.date
	b := h.sample(s)
	scope := b.EquipmentID

	c := apr.CAPA{
		CAPAID:            fmt.Sprintf("CAPA-%s-%02d", date.Format(idDate), j+1),
		OpenDate:          date,
		BatchID:           b.BatchID,
		ManufacturingDate: b.ManufacturingDate,
	}
	c.CAPAType = s.Pick(apr.CAPATypes)
	c.Source = d.choose(s, apr.CategoryCAPA, apr.FieldCAPASource, scope, date)
	switch c.Source {
	case "Deviation":
		c.SourceReference = b.DeviationID
		if c.SourceReference == "" {
			c.SourceReference = fmt.Sprintf("DEV-%s-%03d", date.Format(idDate), 900+j)
		}
	case "OOS Investigation":
		c.SourceReference = "OOS-" + b.BatchID
	case apr.SourceComplaint:
	default:
		c.SourceReference = fmt.Sprintf("REF-%s-%02d", date.Format(idDate), j+1)
	}

	c.ProblemCategory = s.Pick(apr.ProblemCategories)
	c.ProblemStatement = s.Sentence(12)
	c.RiskScore = d.choose(s, apr.CategoryCAPA, apr.FieldRiskScore, scope, date)
	c.RCAMethod = s.Pick(apr.RCAMethods)
	c.RootCauseCategory = s.Pick(apr.RootCauseCategories)
	c.RootCauseDescription = s.Sentence(15)
	c.Department = s.Pick(apr.Departments)
	c.Owner = s.Pick(apr.Operators[:20])
	c.TargetDate = date.AddDate(0, 0, s.IntRange(30, 90))

	c.Status = d.choose(s, apr.CategoryCAPA, apr.FieldCAPAStatus, scope, date)
	c.EffectivenessVerified = "Pending"
	if strings.HasPrefix(c.Status, "Closed") {
		c.CompletionDate = c.TargetDate.AddDate(0, 0, s.IntRange(-10, 30))
		c.DaysToClose = daysBetween(date, c.CompletionDate)
		c.EffectivenessVerified = "Yes"
	}
	c.NumActions = s.IntRange(1, 5)
	return c
}
