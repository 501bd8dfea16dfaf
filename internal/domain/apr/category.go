// Package apr holds the domain model of the Annual Product Review data set:
// the nine record categories, the generation request, the reference data of
// the simulated plant and the parameter model every generator draws from.
package apr

import (
	"sort"
	"strings"

	"github.com/nyos/apr/internal/domain/shared"
)

// Category identifies one of the nine generated data sets
type Category string

const (
	CategoryBatch         Category = "batch"
	CategoryQC            Category = "qc"
	CategoryComplaint     Category = "complaint"
	CategoryCAPA          Category = "capa"
	CategoryEnvironmental Category = "environmental"
	CategoryEquipment     Category = "equipment"
	CategoryStability     Category = "stability"
	CategoryRawMaterial   Category = "raw_material"
	CategoryBatchRelease  Category = "batch_release"
)

// CategoryInfo describes how a category is named, exported and dated
type CategoryInfo struct {
	ID          Category `json:"id"`
	Name        string   `json:"name"`
	FileStem    string   `json:"file_stem"`
	DateColumn  string   `json:"date_column"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description"`
	// NeedsBatches is set when records reference a manufactured batch.
	NeedsBatches bool `json:"needs_batches"`
	// NeedsHistory is set when records sample from batches made on earlier days.
	NeedsHistory bool `json:"needs_history"`
}

// catalog lists categories in their canonical generation and export order.
var catalog = []CategoryInfo{
	{ID: CategoryBatch, Name: "Manufacturing", FileStem: "manufacturing", DateColumn: "manufacturing_date",
		Aliases: []string{"manufacturing", "batches"}, Description: "Batch manufacturing records with process parameters and yield"},
	{ID: CategoryQC, Name: "QC", FileStem: "qc", DateColumn: "test_date",
		Aliases: []string{"qc_result", "qc_results"}, Description: "Release testing: assay, dissolution, uniformity, impurities, micro",
		NeedsBatches: true},
	{ID: CategoryComplaint, Name: "Complaints", FileStem: "complaints", DateColumn: "complaint_date",
		Aliases: []string{"complaints"}, Description: "Market complaints linked to distributed batches",
		NeedsBatches: true, NeedsHistory: true},
	{ID: CategoryCAPA, Name: "CAPA", FileStem: "capa", DateColumn: "open_date",
		Aliases: []string{"capas"}, Description: "Corrective and preventive actions",
		NeedsBatches: true, NeedsHistory: true},
	{ID: CategoryEnvironmental, Name: "Environmental", FileStem: "environmental", DateColumn: "monitoring_date",
		Aliases: []string{"environment", "environmental_monitoring"}, Description: "Cleanroom particle, viable and climate monitoring"},
	{ID: CategoryEquipment, Name: "Equipment", FileStem: "equipment", DateColumn: "scheduled_date",
		Aliases: []string{"calibration", "equipment_calibration"}, Description: "Instrument and press calibration events"},
	{ID: CategoryStability, Name: "Stability", FileStem: "stability", DateColumn: "test_date",
		Aliases: []string{"stability_study"}, Description: "Stability timepoints under ICH storage conditions",
		NeedsBatches: true},
	{ID: CategoryRawMaterial, Name: "Raw Materials", FileStem: "raw_materials", DateColumn: "receipt_date",
		Aliases: []string{"raw_materials", "materials"}, Description: "Goods receipts of API, excipients and packaging",
	},
	{ID: CategoryBatchRelease, Name: "Batch Release", FileStem: "batch_release", DateColumn: "decision_date",
		Aliases: []string{"release", "releases"}, Description: "Qualified Person disposition decisions",
		NeedsBatches: true},
}

var (
	categoryIndex = make(map[Category]int, len(catalog))
	categoryNames = make(map[string]Category)
)

func init() {
	for i, info := range catalog {
		categoryIndex[info.ID] = i
		categoryNames[string(info.ID)] = info.ID
		for _, alias := range info.Aliases {
			categoryNames[alias] = info.ID
		}
	}
}

// AllCategories returns every category in canonical order
func AllCategories() []Category {
	out := make([]Category, len(catalog))
	for i, info := range catalog {
		out[i] = info.ID
	}
	return out
}

// Catalog returns the descriptions of all categories
func Catalog() []CategoryInfo {
	out := make([]CategoryInfo, len(catalog))
	copy(out, catalog)
	return out
}

// Info returns the description of a category
func (c Category) Info() CategoryInfo {
	if i, ok := categoryIndex[c]; ok {
		return catalog[i]
	}
	return CategoryInfo{ID: c, Name: string(c), FileStem: string(c)}
}

// Valid reports whether c is one of the nine categories
func (c Category) Valid() bool {
	_, ok := categoryIndex[c]
	return ok
}

func (c Category) String() string { return string(c) }

// ParseCategory resolves a category ID or alias, case-insensitively
func ParseCategory(name string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "-", "_")
	if c, ok := categoryNames[key]; ok {
		return c, nil
	}
	return "", shared.NewValidationError("unknown data type %q", name)
}

// CategorySet is an ordered, duplicate-free set of categories
type CategorySet []Category

// ParseCategories resolves names into a set; an empty input selects all
func ParseCategories(names []string) (CategorySet, error) {
	if len(names) == 0 {
		return CategorySet(AllCategories()), nil
	}
	cats := make([]Category, 0, len(names))
	for _, name := range names {
		c, err := ParseCategory(name)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return NewCategorySet(cats...), nil
}

// NewCategorySet normalizes categories into canonical order
func NewCategorySet(cats ...Category) CategorySet {
	seen := make(map[Category]bool, len(cats))
	out := make(CategorySet, 0, len(cats))
	for _, c := range cats {
		if !c.Valid() || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return categoryIndex[out[i]] < categoryIndex[out[j]] })
	return out
}

// Unknown returns the first member that is not a known category
func (s CategorySet) Unknown() (Category, bool) {
	for _, c := range s {
		if !c.Valid() {
			return c, true
		}
	}
	return "", false
}

// Has reports whether c is part of the set
func (s CategorySet) Has(c Category) bool {
	for _, x := range s {
		if x == c {
			return true
		}
	}
	return false
}

// NeedsBatches reports whether any member requires batches to be generated
func (s CategorySet) NeedsBatches() bool {
	for _, c := range s {
		if c == CategoryBatch || c.Info().NeedsBatches {
			return true
		}
	}
	return false
}

// NeedsQC reports whether QC results must be generated, either because
// they were asked for or because release decisions are derived from them.
func (s CategorySet) NeedsQC() bool {
	return s.Has(CategoryQC) || s.Has(CategoryBatchRelease) || s.Has(CategoryComplaint) || s.Has(CategoryCAPA)
}

// Strings returns the category IDs
func (s CategorySet) Strings() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = string(c)
	}
	return out
}
