// Package export renders generated datasets as CSV files and packs them,
// with their manifest, into deterministic ZIP archives.
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zip"

	"github.com/nyos/apr/internal/domain/apr"
)

// ManifestFile is the archive entry holding the run manifest
const ManifestFile = "manifest.json"

// ContentType of the archives produced by WriteArchive
const ContentType = "application/zip"

// archiveEpoch stamps every entry so identical content gives identical bytes
var archiveEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Header returns the CSV column names of a category. Downstream consumers
// depend on these names and their order.
func Header(c apr.Category) []string {
	switch c {
	case apr.CategoryBatch:
		return names(batchColumns)
	case apr.CategoryQC:
		return names(qcColumns)
	case apr.CategoryComplaint:
		return names(complaintColumns)
	case apr.CategoryCAPA:
		return names(capaColumns)
	case apr.CategoryEnvironmental:
		return names(environmentalColumns)
	case apr.CategoryEquipment:
		return names(equipmentColumns)
	case apr.CategoryStability:
		return names(stabilityColumns)
	case apr.CategoryRawMaterial:
		return names(rawMaterialColumns)
	case apr.CategoryBatchRelease:
		return names(releaseColumns)
	default:
		return nil
	}
}

// Rows renders the records of a category, one string slice per record
func Rows(c apr.Category, ds *apr.Dataset) [][]string {
	switch c {
	case apr.CategoryBatch:
		return render(batchColumns, ds.Batches)
	case apr.CategoryQC:
		return render(qcColumns, ds.QCResults)
	case apr.CategoryComplaint:
		return render(complaintColumns, ds.Complaints)
	case apr.CategoryCAPA:
		return render(capaColumns, ds.CAPAs)
	case apr.CategoryEnvironmental:
		return render(environmentalColumns, ds.Environmental)
	case apr.CategoryEquipment:
		return render(equipmentColumns, ds.Calibrations)
	case apr.CategoryStability:
		return render(stabilityColumns, ds.Stability)
	case apr.CategoryRawMaterial:
		return render(rawMaterialColumns, ds.RawMaterials)
	case apr.CategoryBatchRelease:
		return render(releaseColumns, ds.Releases)
	default:
		return nil
	}
}

// WriteCSV writes the header and all records of a category
func WriteCSV(w io.Writer, c apr.Category, ds *apr.Dataset) error {
	header := Header(c)
	if header == nil {
		return fmt.Errorf("no csv layout for category %q", c)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", c, err)
	}
	if err := cw.WriteAll(Rows(c, ds)); err != nil {
		return fmt.Errorf("failed to write %s rows: %w", c, err)
	}
	return nil
}

// EncodeCSV renders a category into memory
func EncodeCSV(c apr.Category, ds *apr.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, c, ds); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Checksum fingerprints a file payload
func Checksum(data []byte) string {
	return fmt.Sprintf("xxh64:%016x", xxhash.Sum64(data))
}

// File is one archive entry
type File struct {
	Name string
	Data []byte
}

// WriteArchive packs files, in the given order, into a ZIP
func WriteArchive(w io.Writer, files []File) error {
	zw := zip.NewWriter(w)
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: archiveEpoch,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return nil
}

// ReadArchive unpacks every entry of a ZIP held in memory
func ReadArchive(data []byte) ([]File, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	files := make([]File, 0, len(zr.File))
	for _, zf := range zr.File {
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", zf.Name, err)
		}
		body, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", zf.Name, err)
		}
		files = append(files, File{Name: zf.Name, Data: body})
	}
	return files, nil
}
