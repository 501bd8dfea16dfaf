package generation

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/nyos/apr/internal/domain/apr"
	"github.com/nyos/apr/internal/domain/shared"
	"github.com/nyos/apr/internal/infrastructure/csvimport"
	"github.com/nyos/apr/internal/infrastructure/export"
)

// FileCheck is the verification outcome of one category file
type FileCheck struct {
	FileName   string       `json:"file_name"`
	Category   apr.Category `json:"category"`
	Expected   int          `json:"expected_records"`
	Actual     int          `json:"actual_records"`
	ChecksumOK bool         `json:"checksum_ok"`
	Problems   []string     `json:"problems,omitempty"`
}

// OK reports whether the file matched its manifest entry
func (c FileCheck) OK() bool { return len(c.Problems) == 0 }

// Verification is the outcome of re-reading an archive against its manifest
type Verification struct {
	Manifest Manifest    `json:"manifest"`
	Files    []FileCheck `json:"files"`
}

// OK reports whether every file matched
func (v *Verification) OK() bool {
	for _, f := range v.Files {
		if !f.OK() {
			return false
		}
	}
	return true
}

// VerifyArchive re-reads every CSV of an archive and compares header,
// record count and checksum with manifest.json. It returns an error only
// when the archive or its manifest cannot be read.
func VerifyArchive(data []byte) (*Verification, error) {
	files, err := export.ReadArchive(data)
	if err != nil {
		return nil, shared.NewValidationError("unreadable archive: %v", err)
	}
	byName := make(map[string][]byte, len(files))
	for _, f := range files {
		byName[f.Name] = f.Data
	}

	raw, ok := byName[export.ManifestFile]
	if !ok {
		return nil, shared.NewValidationError("archive has no %s", export.ManifestFile)
	}
	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, shared.NewValidationError("invalid %s: %v", export.ManifestFile, err)
	}

	v := &Verification{Manifest: m, Files: make([]FileCheck, 0, len(m.Categories))}
	for _, entry := range m.Categories {
		check := verifyFile(entry, byName)
		if want, ok := m.TotalRecords[entry.Category]; !ok || want != check.Actual {
			check.Problems = append(check.Problems,
				fmt.Sprintf("file holds %d records, manifest total_records lists %d", check.Actual, want))
		}
		v.Files = append(v.Files, check)
	}
	return v, nil
}

func verifyFile(entry CategoryManifest, files map[string][]byte) FileCheck {
	check := FileCheck{
		FileName: entry.FileName,
		Category: entry.Category,
		Expected: entry.RecordCount,
	}
	data, ok := files[entry.FileName]
	if !ok {
		check.Problems = append(check.Problems, "file missing from archive")
		return check
	}

	check.ChecksumOK = entry.Checksum == "" || entry.Checksum == export.Checksum(data)
	if !check.ChecksumOK {
		check.Problems = append(check.Problems, "checksum mismatch")
	}

	p, err := csvimport.ParseBytes(data)
	if err != nil {
		check.Problems = append(check.Problems, err.Error())
		return check
	}
	if err := p.ParseHeader(); err != nil {
		check.Problems = append(check.Problems, err.Error())
		return check
	}
	if want := export.Header(entry.Category); !slices.Equal(p.Headers(), want) {
		if missing := p.ValidateHeaders(want); len(missing) > 0 {
			check.Problems = append(check.Problems, fmt.Sprintf("missing columns %v", missing))
		} else {
			check.Problems = append(check.Problems, "column order differs from export layout")
		}
	}
	if _, err := p.ReadAllRows(); err != nil {
		check.Problems = append(check.Problems, err.Error())
	}
	check.Actual = p.TotalRows()
	if check.Actual != check.Expected {
		check.Problems = append(check.Problems,
			fmt.Sprintf("manifest lists %d records, file holds %d", check.Expected, check.Actual))
	}
	return check
}
