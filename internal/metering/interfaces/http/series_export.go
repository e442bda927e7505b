package http

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	meteringapp "evse-cloud/internal/metering/application"
)

type exportFormat string

const (
	formatXLSX exportFormat = "xlsx"
	formatPDF  exportFormat = "pdf"
)

func (f exportFormat) contentType() string {
	switch f {
	case formatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case formatPDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// BuildSeriesPDF renders a series as a PDF table.
func BuildSeriesPDF(series *meteringapp.ChartSeries) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Transaction Meter Values")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Transaction: %s", series.TransactionID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Chart: %s", series.Chart))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Measurand: %s", series.Measurand))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Points: %d", len(series.Points)))
	pdf.Ln(5)
	if len(series.Diagnostics) > 0 {
		pdf.Cell(0, 6, fmt.Sprintf("Dropped samples: %d", len(series.Diagnostics)))
		pdf.Ln(5)
	}
	pdf.Ln(4)

	if len(series.Points) == 0 {
		pdf.Cell(0, 6, "No data available")
		pdf.Ln(5)
	} else {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(50, 6, "Elapsed (s)", "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, "Value", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 10)
		for _, point := range series.Points {
			pdf.CellFormat(50, 6, strconv.FormatFloat(point.ElapsedSeconds, 'f', -1, 64), "1", 0, "R", false, 0, "")
			pdf.CellFormat(50, 6, point.Value, "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildSeriesXLSX renders a series as a workbook with a summary and a points sheet.
func BuildSeriesXLSX(series *meteringapp.ChartSeries) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	pointsSheet := "points"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(pointsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", "Transaction Meter Values")
	_ = f.SetCellValue(summarySheet, "A3", "Transaction")
	_ = f.SetCellValue(summarySheet, "B3", series.TransactionID)
	_ = f.SetCellValue(summarySheet, "A4", "Chart")
	_ = f.SetCellValue(summarySheet, "B4", string(series.Chart))
	_ = f.SetCellValue(summarySheet, "A5", "Measurand")
	_ = f.SetCellValue(summarySheet, "B5", string(series.Measurand))
	_ = f.SetCellValue(summarySheet, "A6", "Points")
	_ = f.SetCellValue(summarySheet, "B6", len(series.Points))
	_ = f.SetCellValue(summarySheet, "A7", "Dropped samples")
	_ = f.SetCellValue(summarySheet, "B7", len(series.Diagnostics))

	_ = f.SetCellValue(pointsSheet, "A1", "Elapsed (s)")
	_ = f.SetCellValue(pointsSheet, "B1", "Value")
	for i, point := range series.Points {
		row := i + 2
		_ = f.SetCellValue(pointsSheet, fmt.Sprintf("A%d", row), point.ElapsedSeconds)
		if value, err := strconv.ParseFloat(point.Value, 64); err == nil {
			_ = f.SetCellValue(pointsSheet, fmt.Sprintf("B%d", row), value)
		} else {
			_ = f.SetCellValue(pointsSheet, fmt.Sprintf("B%d", row), point.Value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
