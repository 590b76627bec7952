package report

import (
	"fmt"
	"os"
	"path/filepath"

	"trend-screener/src/logger"
	"trend-screener/src/models"

	"github.com/xuri/excelize/v2"
)

// -----------------------------------------------------------------------------
// ExcelReport writes one workbook per run, one row per result,
// selected candidates first (the run preserves ranking order).
// -----------------------------------------------------------------------------

type ExcelReport struct {
	Config *models.MConfig
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewExcelReport(cfg *models.MConfig, log *logger.Logger) *ExcelReport {
	return &ExcelReport{
		Config: cfg,
		Logger: log,
	}
}

// -----------------------------------------------------------------------------

var excelHeaders = []string{
	"Symbol", "Company", "Selected",
	"Premarket Volume", "Gap Up %", "Market Cap",
	"Open", "High", "Close", "Open→High %", "Open→Close %",
	"Trend Change %", "Trend Keyword", "Matching Hours",
}

// -----------------------------------------------------------------------------

func (r *ExcelReport) WriteResults(run *models.MRunResult) (string, error) {
	if err := os.MkdirAll(r.Config.Report.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := run.Date
	index, err := f.NewSheet(sheet)
	if err != nil {
		return "", fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return "", err
	}

	volumeFormat := "#,##0"
	percentFormat := "0.00"
	volumeStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &volumeFormat})
	if err != nil {
		return "", err
	}
	percentStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &percentFormat})
	if err != nil {
		return "", err
	}

	for col, h := range excelHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, result := range run.Results {
		row := i + 2
		setCell := func(col int, value interface{}) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			f.SetCellValue(sheet, cell, value)
		}

		setCell(1, result.Symbol)
		setCell(2, result.CompanyName)
		setCell(3, result.Selected)

		if m := result.Market; m != nil {
			setCell(4, m.PremarketVolume)
			setCell(5, m.GapUp)
			if m.MarketCap != nil {
				setCell(6, *m.MarketCap)
			}
			setCell(7, m.OpenPrice)
			setCell(8, m.HighPrice)
			setCell(9, m.ClosePrice)
			setCell(10, m.OpenToHigh)
			setCell(11, m.OpenToClose)
		}

		if t := result.Trends; t != nil {
			if t.TotalChange.Unbounded {
				setCell(12, "unbounded")
			} else {
				setCell(12, t.TotalChange.Value)
			}
			setCell(13, t.Keyword)
			setCell(14, fmt.Sprint(t.MatchingHours))
		}
	}

	if len(run.Results) > 0 {
		last := len(run.Results) + 1
		volCells := func(col string) (string, string) {
			return fmt.Sprintf("%s2", col), fmt.Sprintf("%s%d", col, last)
		}
		from, to := volCells("D")
		f.SetCellStyle(sheet, from, to, volumeStyle)
		from, to = volCells("F")
		f.SetCellStyle(sheet, from, to, volumeStyle)
		for _, col := range []string{"E", "G", "H", "I", "J", "K", "L"} {
			from, to = volCells(col)
			f.SetCellStyle(sheet, from, to, percentStyle)
		}
	}

	f.SetColWidth(sheet, "A", "B", 18)
	f.SetColWidth(sheet, "C", "N", 14)

	path := filepath.Join(r.Config.Report.OutputDir, fmt.Sprintf("screen_%s.xlsx", run.Date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	r.Logger.Info("Wrote %d results to %s", len(run.Results), path)
	return path, nil
}
