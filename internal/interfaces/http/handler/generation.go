package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/infrastructure/export"
	"github.com/nyos/apr/internal/interfaces/http/dto"
)

// RunIDHeader names the run that produced a downloaded file
const RunIDHeader = "X-Run-ID"

// ArchiveKeyHeader carries the stored archive location, when archiving is on
const ArchiveKeyHeader = "X-Archive-Key"

// GenerationHandler serves the generation API
type GenerationHandler struct {
	BaseHandler
	svc *generation.Service
}

// NewGenerationHandler creates a new GenerationHandler
func NewGenerationHandler(svc *generation.Service) *GenerationHandler {
	return &GenerationHandler{svc: svc}
}

type inputRequest interface {
	ToInput() (generation.Input, error)
}

// bindInput binds a JSON body of type T and converts it to a service input.
// It writes the error response itself and reports whether to continue.
func bindInput[T inputRequest](h *GenerationHandler, c *gin.Context) (generation.Input, bool) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return generation.Input{}, false
	}
	in, err := req.ToInput()
	if err != nil {
		h.HandleError(c, err)
		return generation.Input{}, false
	}
	return in, true
}

func (h *GenerationHandler) preview(c *gin.Context, in generation.Input) {
	manifest, err := h.svc.Preview(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, manifest)
}

func (h *GenerationHandler) download(c *gin.Context, in generation.Input) {
	archive, err := h.svc.Download(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(archive.FileName))
	c.Header(RunIDHeader, archive.Manifest.RunID)
	if archive.ArchiveKey != "" {
		c.Header(ArchiveKeyHeader, archive.ArchiveKey)
	}
	c.Data(http.StatusOK, export.ContentType, archive.Data)
}

// PreviewRange returns the manifest of a custom date range.
// POST /api/v1/generation/preview
func (h *GenerationHandler) PreviewRange(c *gin.Context) {
	if in, ok := bindInput[dto.CustomRangeRequest](h, c); ok {
		h.preview(c, in)
	}
}

// DownloadRange streams the ZIP of a custom date range.
// POST /api/v1/generation/download
func (h *GenerationHandler) DownloadRange(c *gin.Context) {
	if in, ok := bindInput[dto.CustomRangeRequest](h, c); ok {
		h.download(c, in)
	}
}

// PreviewMonth returns the manifest of one calendar month.
// POST /api/v1/generation/month/preview
func (h *GenerationHandler) PreviewMonth(c *gin.Context) {
	if in, ok := bindInput[dto.MonthRequest](h, c); ok {
		h.preview(c, in)
	}
}

// DownloadMonth streams the ZIP of one calendar month.
// POST /api/v1/generation/month/download
func (h *GenerationHandler) DownloadMonth(c *gin.Context) {
	if in, ok := bindInput[dto.MonthRequest](h, c); ok {
		h.download(c, in)
	}
}

// PreviewYear returns the manifest of a whole year.
// POST /api/v1/generation/year/preview
func (h *GenerationHandler) PreviewYear(c *gin.Context) {
	if in, ok := bindInput[dto.YearRequest](h, c); ok {
		h.preview(c, in)
	}
}

// DownloadYear streams the ZIP of a whole year.
// POST /api/v1/generation/year/download
func (h *GenerationHandler) DownloadYear(c *gin.Context) {
	if in, ok := bindInput[dto.YearRequest](h, c); ok {
		h.download(c, in)
	}
}

// Single returns one category of one month as a bare CSV file. The data
// type may be a category ID or one of its aliases.
// GET /api/v1/generation/single/:data_type
func (h *GenerationHandler) Single(c *gin.Context) {
	var q dto.SingleQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	name, data, err := h.svc.Single(c.Request.Context(), c.Param("data_type"), q.Year, q.Month, q.BatchesPerDay, q.Seed)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", attachment(name))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// Scenarios lists the active scenario calendar.
func (h *GenerationHandler) Scenarios(c *gin.Context) {
	scenarios := h.svc.Scenarios()
	h.Success(c, dto.ScenariosResponse{
		TotalScenarios: len(scenarios),
		Scenarios:      scenarios,
	})
}

// DataTypes lists the categories with their aliases and file names.
func (h *GenerationHandler) DataTypes(c *gin.Context) {
	types := h.svc.DataTypes()
	h.Success(c, dto.DataTypesResponse{
		Total:     len(types),
		DataTypes: types,
	})
}

// ListRuns returns the most recent ledger entries, newest first.
// GET /api/v1/generation/runs?limit=N
func (h *GenerationHandler) ListRuns(c *gin.Context) {
	var q dto.RunListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	runs, err := h.svc.Runs(c.Request.Context(), q.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]dto.RunResponse, 0, len(runs))
	for i := range runs {
		out = append(out, dto.NewRunResponse(&runs[i]))
	}
	h.Success(c, out)
}

// GetRun returns one ledger entry.
// GET /api/v1/generation/runs/:id
func (h *GenerationHandler) GetRun(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid run ID format")
		return
	}
	run, err := h.svc.Run(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewRunResponse(run))
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
