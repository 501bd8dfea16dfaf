package generation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/infrastructure/export"
)

// Archive is a packed tile: one CSV per category plus manifest.json
type Archive struct {
	FileName   string   `json:"file_name"`
	Data       []byte   `json:"-"`
	Manifest   Manifest `json:"manifest"`
	ArchiveKey string   `json:"archive_key,omitempty"`
}

// Files renders the tile's category files in canonical order and fills the
// manifest checksums from the rendered bytes.
func (t *Tile) Files(runID string, req apr.GenerationRequest) ([]export.File, Manifest, error) {
	m := t.Manifest(runID, req)
	files := make([]export.File, 0, len(t.Categories)+1)
	for i, c := range t.Categories {
		data, err := export.EncodeCSV(c, &t.Dataset)
		if err != nil {
			return nil, Manifest{}, err
		}
		m.Categories[i].Checksum = export.Checksum(data)
		files = append(files, export.File{Name: m.Categories[i].FileName, Data: data})
	}
	return files, m, nil
}

// Archive packs the tile into a ZIP. manifest.json is written last.
func (t *Tile) Archive(runID string, req apr.GenerationRequest) (*Archive, error) {
	files, m, err := t.Files(runID, req)
	if err != nil {
		return nil, err
	}
	manifest, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	files = append(files, export.File{Name: export.ManifestFile, Data: manifest})

	var buf bytes.Buffer
	if err := export.WriteArchive(&buf, files); err != nil {
		return nil, err
	}
	return &Archive{
		FileName: ArchiveName(t.Period),
		Data:     buf.Bytes(),
		Manifest: m,
	}, nil
}
