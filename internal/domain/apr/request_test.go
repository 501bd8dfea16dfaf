package apr

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyos/apr/internal/domain/shared"
)

func date(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestGenerationRequest_Validate(t *testing.T) {
	valid := GenerationRequest{
		StartDate:     date("2025-01-01"),
		EndDate:       date("2025-01-31"),
		BatchesPerDay: 20,
	}.Normalize()

	tests := []struct {
		name    string
		mutate  func(r *GenerationRequest)
		wantErr bool
	}{
		{"valid month", func(r *GenerationRequest) {}, false},
		{"single day", func(r *GenerationRequest) { r.EndDate = r.StartDate }, false},
		{"inverted range", func(r *GenerationRequest) { r.StartDate = date("2025-02-01") }, true},
		{"zero batches", func(r *GenerationRequest) { r.BatchesPerDay = 0 }, true},
		{"negative batches", func(r *GenerationRequest) { r.BatchesPerDay = -3 }, true},
		{"too many batches", func(r *GenerationRequest) { r.BatchesPerDay = 101 }, true},
		{"range over a year", func(r *GenerationRequest) { r.EndDate = date("2026-03-01") }, true},
		{"unknown category", func(r *GenerationRequest) { r.Categories = CategorySet{"bogus"} }, true},
		{"unknown product", func(r *GenerationRequest) { r.ProductCode = "XYZ" }, true},
		{"missing dates", func(r *GenerationRequest) { r.StartDate = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := r.Validate(DefaultLimits())
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, shared.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestGenerationRequest_NormalizeKeepsUnknownCategories(t *testing.T) {
	r := GenerationRequest{
		StartDate:     date("2025-01-01"),
		EndDate:       date("2025-01-31"),
		BatchesPerDay: 2,
		Categories:    CategorySet{CategoryQC, "bogus", CategoryBatch},
	}.Normalize()

	assert.Equal(t, CategorySet{CategoryQC, "bogus", CategoryBatch}, r.Categories)
	err := r.Validate(DefaultLimits())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Contains(t, err.Error(), `"bogus"`)

	c, unknown := CategorySet{CategoryBatch, ""}.Unknown()
	assert.True(t, unknown)
	assert.Equal(t, Category(""), c)

	r.Categories = CategorySet{CategoryQC, CategoryBatch, CategoryQC}
	assert.Equal(t, CategorySet{CategoryBatch, CategoryQC}, r.Normalize().Categories)
}

func TestNewGenerationRequest(t *testing.T) {
	seed := int64(7)
	r, err := NewGenerationRequest("2024-07-01", "2024-07-31", 5, []string{"environmental"}, &seed)
	require.NoError(t, err)
	assert.Equal(t, 31, r.Days())
	assert.Equal(t, int64(7), r.EffectiveSeed())
	assert.Equal(t, CategorySet{CategoryEnvironmental}, r.Categories)

	_, err = NewGenerationRequest("2024-13-01", "2024-07-31", 5, nil, nil)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}

func TestGenerationRequest_Defaults(t *testing.T) {
	r := GenerationRequest{StartDate: date("2025-01-01"), EndDate: date("2025-01-03"), BatchesPerDay: 1}.Normalize()
	assert.Equal(t, DefaultSeed, r.EffectiveSeed())
	assert.Equal(t, "PARA-500-TAB", r.Product().Code)
	assert.Len(t, r.Categories, 9)

	var days []string
	r.EachDay(func(i int, d time.Time) { days = append(days, d.Format(DateLayout)) })
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, days)
}
