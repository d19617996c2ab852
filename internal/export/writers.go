package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// Writer serializes a dataset in one file format.
type Writer interface {
	FileType() string
	ContentType() string
	Write(w io.Writer, ds *Dataset) error
}

// XLSXWriter writes Office Open XML workbooks with a bold, frozen header row.
type XLSXWriter struct {
	ColumnWidth float64
}

func (XLSXWriter) FileType() string { return "xlsx" }

func (XLSXWriter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (x XLSXWriter) Write(w io.Writer, ds *Dataset) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(ds.Title)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	if len(ds.Headers) > 0 {
		header := make([]any, len(ds.Headers))
		for i, name := range ds.Headers {
			header[i] = name
		}
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return fmt.Errorf("xlsx: write header: %w", err)
		}

		bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return fmt.Errorf("xlsx: header style: %w", err)
		}
		last, err := excelize.CoordinatesToCellName(len(ds.Headers), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
			return fmt.Errorf("xlsx: apply header style: %w", err)
		}

		if x.ColumnWidth > 0 {
			lastCol, err := excelize.ColumnNumberToName(len(ds.Headers))
			if err != nil {
				return err
			}
			if err := f.SetColWidth(sheet, "A", lastCol, x.ColumnWidth); err != nil {
				return fmt.Errorf("xlsx: column width: %w", err)
			}
		}
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("xlsx: freeze header: %w", err)
		}
	}

	for i, row := range ds.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := row
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write workbook: %w", err)
	}
	return nil
}

// CSVWriter writes RFC 4180 comma separated values.
type CSVWriter struct{}

func (CSVWriter) FileType() string { return "csv" }

func (CSVWriter) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVWriter) Write(w io.Writer, ds *Dataset) error {
	cw := csv.NewWriter(w)
	if len(ds.Headers) > 0 {
		if err := cw.Write(ds.Headers); err != nil {
			return err
		}
	}
	record := make([]string, 0, len(ds.Headers))
	for _, row := range ds.Rows {
		record = record[:0]
		for _, v := range row {
			record = append(record, cellText(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
