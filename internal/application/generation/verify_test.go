package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"maps"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/infrastructure/export"
)

func downloadArchive(t *testing.T) *Archive {
	t.Helper()
	svc := newTestService(t)
	archive, err := svc.Download(context.Background(), Input{
		Period:        MonthPeriod(2025, time.March),
		BatchesPerDay: 4,
		DataTypes:     []string{"batch", "qc", "complaint", "environmental"},
	})
	require.NoError(t, err)
	return archive
}

func repack(t *testing.T, data []byte, edit func(files []export.File) []export.File) []byte {
	t.Helper()
	files, err := export.ReadArchive(data)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, export.WriteArchive(&buf, edit(files)))
	return buf.Bytes()
}

func TestVerifyArchive_RoundTrip(t *testing.T) {
	archive := downloadArchive(t)

	v, err := VerifyArchive(archive.Data)
	require.NoError(t, err)
	assert.True(t, v.OK())
	assert.Equal(t, archive.Manifest.RunID, v.Manifest.RunID)
	require.Len(t, v.Files, 4)
	for _, f := range v.Files {
		assert.True(t, f.ChecksumOK, f.FileName)
		assert.Equal(t, f.Expected, f.Actual, f.FileName)
	}
}

func TestVerifyArchive_DetectsTampering(t *testing.T) {
	archive := downloadArchive(t)

	t.Run("dropped row", func(t *testing.T) {
		data := repack(t, archive.Data, func(files []export.File) []export.File {
			body := files[0].Data
			last := bytes.LastIndexByte(body[:len(body)-1], '\n')
			files[0].Data = body[:last+1]
			return files
		})
		v, err := VerifyArchive(data)
		require.NoError(t, err)
		assert.False(t, v.OK())
		assert.False(t, v.Files[0].ChecksumOK)
		assert.Equal(t, v.Files[0].Expected-1, v.Files[0].Actual)
	})

	t.Run("missing file", func(t *testing.T) {
		data := repack(t, archive.Data, func(files []export.File) []export.File {
			return files[1:]
		})
		v, err := VerifyArchive(data)
		require.NoError(t, err)
		assert.False(t, v.Files[0].OK())
		assert.True(t, v.Files[1].OK())
	})

	t.Run("renamed column", func(t *testing.T) {
		data := repack(t, archive.Data, func(files []export.File) []export.File {
			files[0].Data = bytes.Replace(files[0].Data, []byte("batch_id"), []byte("lot_id"), 1)
			return files
		})
		v, err := VerifyArchive(data)
		require.NoError(t, err)
		assert.Contains(t, v.Files[0].Problems, "missing columns [batch_id]")
	})

	t.Run("manifest total", func(t *testing.T) {
		data := repack(t, archive.Data, func(files []export.File) []export.File {
			m := archive.Manifest
			m.TotalRecords = maps.Clone(m.TotalRecords)
			m.TotalRecords[apr.CategoryQC]++
			raw, err := json.Marshal(m)
			require.NoError(t, err)
			files[len(files)-1].Data = raw
			return files
		})
		v, err := VerifyArchive(data)
		require.NoError(t, err)
		assert.False(t, v.OK())
		for _, f := range v.Files {
			assert.Equal(t, f.Category != apr.CategoryQC, f.OK(), f.FileName)
		}
	})
}

func TestVerifyArchive_Unreadable(t *testing.T) {
	_, err := VerifyArchive([]byte("garbage"))
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var buf bytes.Buffer
	require.NoError(t, export.WriteArchive(&buf, []export.File{{Name: "qc_2025-01.csv", Data: []byte("sample_id\n")}}))
	_, err = VerifyArchive(buf.Bytes())
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
