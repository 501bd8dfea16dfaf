package handler

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyos/apr/internal/application/generation"
	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/scenario"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/interfaces/http/dto"
	"github.com/nyos/apr/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// ==================== Test doubles ====================

type memoryRuns struct {
	mu   sync.Mutex
	runs map[uuid.UUID]apr.Run
	err  error
}

func newMemoryRuns() *memoryRuns {
	return &memoryRuns{runs: make(map[uuid.UUID]apr.Run)}
}

func (m *memoryRuns) Save(_ context.Context, run *apr.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryRuns) FindByID(_ context.Context, id uuid.UUID) (*apr.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &r, nil
}

func (m *memoryRuns) FindRecent(_ context.Context, limit int) ([]apr.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([]apr.Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memoryArchiver struct {
	keys []string
}

func (a *memoryArchiver) Put(_ context.Context, key string, _ []byte, _ string) (string, error) {
	a.keys = append(a.keys, key)
	return "mem://" + key, nil
}

// ==================== Fixtures ====================

type fixture struct {
	engine   *gin.Engine
	runs     *memoryRuns
	archiver *memoryArchiver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	runs := newMemoryRuns()
	archiver := &memoryArchiver{}
	svc := generation.NewService(
		generation.NewEngine(scenario.Default(), generation.WithWorkers(2)),
		generation.Defaults{BatchesPerDay: 2, Seed: 42, Timeout: time.Minute},
		generation.WithRunRepository(runs),
		generation.WithArchiver(archiver),
	)
	h := NewGenerationHandler(svc)

	engine := gin.New()
	engine.Use(middleware.RequestID())
	g := engine.Group("/api/v1/generation")
	g.POST("/preview", h.PreviewRange)
	g.POST("/download", h.DownloadRange)
	g.POST("/month/preview", h.PreviewMonth)
	g.POST("/month/download", h.DownloadMonth)
	g.POST("/year/preview", h.PreviewYear)
	g.POST("/year/download", h.DownloadYear)
	g.GET("/single/:data_type", h.Single)
	g.GET("/scenarios", h.Scenarios)
	g.GET("/data-types", h.DataTypes)
	g.GET("/runs", h.ListRuns)
	g.GET("/runs/:id", h.GetRun)

	return &fixture{engine: engine, runs: runs, archiver: archiver}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) dto.Response {
	t.Helper()
	resp := dto.Response{Data: data}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// ==================== Preview ====================

func TestPreviewMonth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/generation/month/preview",
		`{"year":2025,"month":2,"data_types":["manufacturing","qc"],"seed":7}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var m generation.Manifest
	resp := decode(t, w, &m)
	assert.True(t, resp.Success)
	assert.Equal(t, "2025-02-01", m.PeriodStart)
	assert.Equal(t, "2025-02-28", m.PeriodEnd)
	assert.Equal(t, int64(7), m.Seed)
	assert.Equal(t, []string{"manufacturing_2025-02.csv", "qc_2025-02.csv"}, m.FilesGenerated)
	require.Len(t, m.Categories, 2)
	assert.Equal(t, apr.CategoryBatch, m.Categories[0].Category)
	assert.Equal(t, apr.CategoryQC, m.Categories[1].Category)
	assert.Equal(t, 28*2, m.TotalRecords[apr.CategoryBatch])
	assert.Equal(t, m.Categories[1].RecordCount, m.TotalRecords[apr.CategoryQC])
	assert.Empty(t, m.Categories[0].Checksum)

	// the preview is recorded in the ledger
	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)
	assert.Len(t, f.runs.runs, 1)
}

func TestPreview_IsDeterministic(t *testing.T) {
	f := newFixture(t)
	body := `{"start_date":"2025-03-01","end_date":"2025-03-10","data_types":["batch"]}`

	var first, second generation.Manifest
	decode(t, f.do(http.MethodPost, "/api/v1/generation/preview", body), &first)
	decode(t, f.do(http.MethodPost, "/api/v1/generation/preview", body), &second)

	assert.Equal(t, first.TotalRecords, second.TotalRecords)
	assert.Equal(t, first.Categories[0].RecordCount, second.Categories[0].RecordCount)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestPreview_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name     string
		path     string
		body     string
		wantCode string
		status   int
	}{
		{"malformed json", "/api/v1/generation/preview", `{"start_date":`, dto.ErrCodeInvalidJSON, http.StatusBadRequest},
		{"missing dates", "/api/v1/generation/preview", `{}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"bad date format", "/api/v1/generation/preview", `{"start_date":"03/01/2025","end_date":"2025-03-10"}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"start after end", "/api/v1/generation/preview", `{"start_date":"2025-03-10","end_date":"2025-03-01"}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"unknown data type", "/api/v1/generation/month/preview", `{"year":2025,"month":1,"data_types":["lab"]}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"month out of range", "/api/v1/generation/month/preview", `{"year":2025,"month":13}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"year out of range", "/api/v1/generation/year/preview", `{"year":1999}`, dto.ErrCodeValidation, http.StatusBadRequest},
		{"zero batches rejected by binding", "/api/v1/generation/month/preview", `{"year":2025,"month":1,"batches_per_day":-1}`, dto.ErrCodeValidation, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode(t, w, nil)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}

	// validation failures never reach the ledger
	assert.Empty(t, f.runs.runs)
}

func TestPreview_ValidationDetails(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/generation/month/preview", `{"year":2025,"month":1,"data_types":["qc","lab"]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode(t, w, nil)
	require.Len(t, resp.Error.Details, 1)
	assert.Equal(t, "data_types[1]", resp.Error.Details[0].Field)
}

// ==================== Download ====================

func TestDownloadMonth(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/generation/month/download", `{"year":2025,"month":1,"data_types":["complaint"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="apr_data_2025-01.zip"`, w.Header().Get("Content-Disposition"))
	runID := w.Header().Get(RunIDHeader)
	_, err := uuid.Parse(runID)
	require.NoError(t, err)
	assert.Equal(t, "mem://"+runID+"/apr_data_2025-01.zip", w.Header().Get(ArchiveKeyHeader))
	assert.Equal(t, []string{runID + "/apr_data_2025-01.zip"}, f.archiver.keys)

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	names := make([]string, 0, len(zr.File))
	for _, zf := range zr.File {
		names = append(names, zf.Name)
	}
	p := generation.MonthPeriod(2025, time.January)
	assert.Equal(t, []string{generation.FileName(apr.CategoryComplaint, p), "manifest.json"}, names)

	_, err = generation.VerifyArchive(w.Body.Bytes())
	assert.NoError(t, err)

	run := f.runs.runs[uuid.MustParse(runID)]
	assert.Equal(t, apr.RunStatusCompleted, run.Status)
	assert.Equal(t, "mem://"+runID+"/apr_data_2025-01.zip", run.ArchiveKey)
}

func TestDownloadRange_ErrorIsJSON(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/generation/download", `{"start_date":"2025-02-30","end_date":"2025-03-01"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.Empty(t, w.Header().Get(RunIDHeader))
}

// ==================== Single ====================

func TestSingle(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/generation/single/stability?year=2025&month=1&batches_per_day=2", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	p := generation.MonthPeriod(2025, time.January)
	assert.Equal(t, `attachment; filename="`+generation.FileName(apr.CategoryStability, p)+`"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	header, _, _ := strings.Cut(w.Body.String(), "\n")
	assert.NotEmpty(t, header)
}

func TestSingle_Rejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		path string
	}{
		{"unknown category", "/api/v1/generation/single/lab?year=2025&month=1"},
		{"missing month", "/api/v1/generation/single/qc?year=2025"},
		{"bad month", "/api/v1/generation/single/qc?year=2025&month=0"},
		{"bad year", "/api/v1/generation/single/qc?year=1980&month=1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

// ==================== Listings ====================

func TestScenarios(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/generation/scenarios", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.ScenariosResponse
	decode(t, w, &body)
	assert.Equal(t, len(scenario.DefaultScenarios()), body.TotalScenarios)
	require.Len(t, body.Scenarios, body.TotalScenarios)
	for _, s := range body.Scenarios {
		assert.NotEmpty(t, s.ScenarioID)
		assert.NotEmpty(t, s.Effects)
		assert.NotEmpty(t, s.DataTypesAffected)
	}
}

func TestDataTypes(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodGet, "/api/v1/generation/data-types", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body dto.DataTypesResponse
	decode(t, w, &body)
	assert.Equal(t, 9, body.Total)
	assert.Len(t, body.DataTypes, 9)
}

// ==================== Run ledger ====================

func TestRuns(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/generation/month/preview", `{"year":2025,"month":1,"data_types":["environmental"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var m generation.Manifest
	decode(t, w, &m)

	t.Run("list", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/generation/runs?limit=10", "")
		require.Equal(t, http.StatusOK, w.Code)
		var runs []dto.RunResponse
		decode(t, w, &runs)
		require.Len(t, runs, 1)
		assert.Equal(t, m.RunID, runs[0].ID)
		assert.Equal(t, generation.OperationPreview, runs[0].Operation)
		assert.Equal(t, "completed", runs[0].Status)
		assert.Equal(t, "2025-01-01", runs[0].PeriodStart)
	})

	t.Run("get", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/generation/runs/"+m.RunID, "")
		require.Equal(t, http.StatusOK, w.Code)
		var run dto.RunResponse
		decode(t, w, &run)
		assert.Equal(t, m.Records(), run.TotalRecords)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/generation/runs/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/generation/runs/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("limit too large", func(t *testing.T) {
		w := f.do(http.MethodGet, "/api/v1/generation/runs?limit=1000", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ledger failure", func(t *testing.T) {
		f.runs.err = errors.New("connection reset")
		defer func() { f.runs.err = nil }()
		w := f.do(http.MethodGet, "/api/v1/generation/runs", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		resp := decode(t, w, nil)
		assert.Equal(t, "An unexpected error occurred", resp.Error.Message)
	})
}
