package generation

import (
	"fmt"
	"strings"

	"github.com/nyos/apr/internal/domain/apr"
)

// pendingShare is the fraction of receipts whose incoming tests are not back
const pendingShare = 0.15

type material struct {
	name     string
	supplier apr.Supplier
}

// materials flattens the supplier catalogue; each material has one approved source.
var materials = func() []material {
	var out []material
	for _, sup := range apr.Suppliers {
		for _, name := range sup.Materials {
			out = append(out, material{name: name, supplier: sup})
		}
	}
	return out
}()

// generateRawMaterials produces the day's goods receipts
func generateRawMaterials(d dayContext) []apr.RawMaterialReceipt {
	day := d.stream(apr.CategoryRawMaterial, -1)
	n := day.Poisson(d.rate(apr.CategoryRawMaterial, apr.FieldReceiptRate, "", d.date))
	out := make([]apr.RawMaterialReceipt, 0, n)
	for j := 0; j < n; j++ {
		out = append(out, newReceipt(d, j))
	}
	return out
}

func newReceipt(d dayContext, j int) apr.RawMaterialReceipt {
	s := d.stream(apr.CategoryRawMaterial, j)
	date := d.date
	m := materials[s.IntN(len(materials))]
	sup := m.supplier

	r := apr.RawMaterialReceipt{
		GRNNumber:    fmt.Sprintf("GRN-%s-%02d", date.Format(idDate), j+1),
		ReceiptDate:  date,
		MaterialCode: fmt.Sprintf("MAT-%s-%d", strings.ToUpper(m.name[:3]), s.IntRange(100, 999)),
		MaterialName: m.name,
		SupplierID:   sup.ID,
		SupplierName: sup.Name,
		Unit:         "kg",
		LotNumber:    fmt.Sprintf("%s-%s-%02d", sup.ID[len(sup.ID)-3:], date.Format("0601"), s.IntRange(1, 99)),
		ExpiryDate:   date.AddDate(0, 0, s.IntRange(365, 730)),
	}
	if strings.Contains(m.name, "API") {
		r.Quantity = d.measure(s, apr.CategoryRawMaterial, apr.FieldAPIQuantity, sup.ID, date)
	} else {
		r.Quantity = d.measure(s, apr.CategoryRawMaterial, apr.FieldExcipientQuantity, sup.ID, date)
	}
	r.COAReceived = d.choose(s, apr.CategoryRawMaterial, apr.FieldCOAReceived, sup.ID, date) == "Yes"

	purity := apr.MustBaseline(apr.CategoryRawMaterial, apr.FieldPurity)
	r.PurityPercent = d.measure(s, apr.CategoryRawMaterial, apr.FieldPurity, sup.ID, date)
	pending := s.Bernoulli(pendingShare)
	switch {
	case pending:
		r.TestStatus, r.Disposition = "Pending", apr.DispositionQuarantine
	case r.COAReceived && purity.InSpec(r.PurityPercent):
		r.TestStatus, r.Disposition = "Pass", apr.DispositionReleased
	default:
		r.TestStatus, r.Disposition = "Fail", apr.DispositionRejected
	}

	r.ReceivedBy = s.Pick(apr.Operators[:10])
	r.StorageLocation = fmt.Sprintf("WH-%s-%02d", s.Pick(apr.Warehouses), s.IntRange(1, 50))
	return r
}
