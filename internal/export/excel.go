// Package export writes tabular reports as Excel workbooks.
package export

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// maxSheetName is Excel's limit on sheet name length.
const maxSheetName = 31

// Workbook is a sequential sheet writer: add a sheet, write its header,
// then its rows.
type Workbook interface {
	AddSheet(name string) error
	WriteHeader(columns []string) error
	WriteRow(row []any) error
	Save(w io.Writer) error
	Close() error
}

// ExcelWorkbook implements Workbook with excelize.
type ExcelWorkbook struct {
	file         *excelize.File
	currentSheet string
	currentRow   int
}

// NewExcelWorkbook creates an empty workbook.
func NewExcelWorkbook() *ExcelWorkbook {
	return &ExcelWorkbook{file: excelize.NewFile()}
}

// AddSheet starts a new sheet.  The first call renames the default sheet.
func (w *ExcelWorkbook) AddSheet(name string) error {
	if len(name) > maxSheetName {
		name = name[:maxSheetName]
	}
	if w.currentSheet == "" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("rename sheet %s: %w", name, err)
		}
	} else {
		if _, err := w.file.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	w.currentSheet = name
	w.currentRow = 1
	return nil
}

// WriteHeader writes bold column titles and freezes them.
func (w *ExcelWorkbook) WriteHeader(columns []string) error {
	if w.currentSheet == "" {
		return errors.New("no active sheet")
	}
	row := make([]any, len(columns))
	for i, c := range columns {
		row[i] = c
	}
	if err := w.writeCells(row); err != nil {
		return err
	}
	if style, err := w.file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		start, _ := excelize.CoordinatesToCellName(1, w.currentRow)
		end, _ := excelize.CoordinatesToCellName(len(columns), w.currentRow)
		_ = w.file.SetCellStyle(w.currentSheet, start, end, style)
	}
	_ = w.file.SetPanes(w.currentSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
	w.currentRow++
	return nil
}

// WriteRow appends one data row to the current sheet.
func (w *ExcelWorkbook) WriteRow(row []any) error {
	if w.currentSheet == "" {
		return errors.New("no active sheet")
	}
	if err := w.writeCells(row); err != nil {
		return err
	}
	w.currentRow++
	return nil
}

func (w *ExcelWorkbook) writeCells(row []any) error {
	for i, val := range row {
		cell, err := excelize.CoordinatesToCellName(i+1, w.currentRow)
		if err != nil {
			return err
		}
		if err := w.file.SetCellValue(w.currentSheet, cell, val); err != nil {
			return err
		}
	}
	return nil
}

// Save writes the workbook to wr.
func (w *ExcelWorkbook) Save(wr io.Writer) error {
	return w.file.Write(wr)
}

// Close releases resources held by excelize.
func (w *ExcelWorkbook) Close() error {
	return w.file.Close()
}
