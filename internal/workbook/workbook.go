// Package workbook converts the analysis workbook's sheets to CSV so the
// warehouse can load them with read_csv.
package workbook

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

// Sheet names written by the analysis step.
const (
	StudentSheet = "Student_Comparison"
	ClassSheet   = "Class_Summary"
	SubjectSheet = "Subject_Summary"
)

// Sheets lists the sheets present in the workbook at path.
func Sheets(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// ReadRows returns every row of sheet, padded to the header width.
func ReadRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			rows[i] = append(row, make([]string, width-len(row))...)
		} else if len(row) > width {
			rows[i] = row[:width]
		}
	}
	return rows, nil
}

// ExportCSV writes each requested sheet that exists in the workbook to
// dir/<sheet>.csv. Sheets are converted concurrently; the returned map goes
// from sheet name to CSV path.
func ExportCSV(ctx context.Context, path, dir string, sheets ...string) (map[string]string, error) {
	available, err := Sheets(path)
	if err != nil {
		return nil, err
	}
	if len(sheets) == 0 {
		sheets = []string{StudentSheet, ClassSheet, SubjectSheet}
	}

	var wanted []string
	for _, s := range sheets {
		if slices.Contains(available, s) {
			wanted = append(wanted, s)
		}
	}

	outputs := make([]string, len(wanted))
	g, ctx := errgroup.WithContext(ctx)
	for i, sheet := range wanted {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			rows, err := ReadRows(path, sheet)
			if err != nil {
				return err
			}
			out := filepath.Join(dir, sheet+".csv")
			if err := writeCSV(out, rows); err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := make(map[string]string, len(wanted))
	for i, sheet := range wanted {
		result[sheet] = outputs[i]
	}
	return result, nil
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
