// Package ingest copies source data files into the raw data folder. CSV
// files are normalised to UTF-8 on the way in and XLSX workbooks are
// flattened to CSV, so everything downstream reads plain UTF-8 CSV.
package ingest

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// Load copies every .csv and .xlsx file from inputDir into rawDir. Other
// files are skipped. XLSX workbooks arrive as "<name>.csv".
func Load(inputDir, rawDir string) error {
	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return eris.Wrapf(err, "ingest: read %s", inputDir)
	}
	if err := os.MkdirAll(rawDir, 0o755); err != nil {
		return eris.Wrapf(err, "ingest: create %s", rawDir)
	}

	copied := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		src := filepath.Join(inputDir, name)

		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv":
			if err := CopyCSV(src, filepath.Join(rawDir, name)); err != nil {
				return err
			}
		case ".xlsx":
			base := strings.TrimSuffix(name, filepath.Ext(name))
			if err := ConvertXLSX(src, rawDir, base); err != nil {
				return err
			}
		default:
			zap.L().Debug("ingest: skipping file", zap.String("file", name))
			continue
		}
		zap.L().Info("ingest: copied", zap.String("file", name))
		copied++
	}

	zap.L().Info("ingest: load complete", zap.Int("files", copied))
	return nil
}

// CopyCSV copies a CSV file, decoding Windows-1252 to UTF-8 when the source
// is not already valid UTF-8. ONS extracts ship in either encoding.
func CopyCSV(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return eris.Wrapf(err, "ingest: read %s", src)
	}
	if !utf8.Valid(data) {
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return eris.Wrapf(err, "ingest: decode %s", src)
		}
		data = decoded
		zap.L().Info("ingest: decoded Windows-1252", zap.String("file", filepath.Base(src)))
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return eris.Wrapf(err, "ingest: write %s", dst)
	}
	return nil
}

// ConvertXLSX writes every sheet of a workbook as CSV under dstDir. A
// single-sheet workbook becomes "<base>.csv"; multi-sheet workbooks become
// "<base>_<sheet>.csv" per sheet.
func ConvertXLSX(src, dstDir, base string) error {
	f, err := xlsx.OpenFile(src)
	if err != nil {
		return eris.Wrapf(err, "ingest: open %s", src)
	}
	if len(f.Sheets) == 0 {
		return eris.Errorf("ingest: %s has no sheets", src)
	}

	for _, sheet := range f.Sheets {
		name := base + ".csv"
		if len(f.Sheets) > 1 {
			name = base + "_" + sheetFileName(sheet.Name) + ".csv"
		}
		if err := writeSheetCSV(sheet, filepath.Join(dstDir, name)); err != nil {
			return err
		}
	}
	return nil
}

func writeSheetCSV(sheet *xlsx.Sheet, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return eris.Wrapf(err, "ingest: create %s", dst)
	}
	defer out.Close()

	w := csv.NewWriter(out)
	for _, row := range sheet.Rows {
		record := make([]string, len(row.Cells))
		for j, cell := range row.Cells {
			record[j] = cell.String()
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "ingest: write %s", dst)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "ingest: flush %s", dst)
	}
	return nil
}

// sheetFileName turns a sheet name into a safe file name fragment.
func sheetFileName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	return name
}
