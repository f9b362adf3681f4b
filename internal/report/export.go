package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"github.com/okian/healthrix/internal/domain/aggregate"
	"github.com/okian/healthrix/internal/domain/model"
	"github.com/okian/healthrix/pkg/metrics"
)

// Export formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

// Workbook sheet names.
const (
	ScoresSheet     = "Performance Scores"
	StatisticsSheet = "Statistics"
)

func f2(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

// scoreRecord renders a score in ScoreColumns order.
func scoreRecord(s model.PerformanceScore) []string {
	return []string{
		s.EmployeeID,
		s.Name,
		s.Date,
		f2(s.TotalTaskPoints),
		f2(s.ProductivityPercentage),
		f2(s.WeightedProductivityScore),
		f2(s.BehaviorScoreRaw),
		f2(s.WeightedBehaviorScore),
		f2(s.FinalPerformance),
		strconv.FormatFloat(s.IdleHours, 'f', 1, 64),
		strconv.Itoa(s.ConductFlag),
	}
}

// WriteCSV writes scores under the standard export columns.
func WriteCSV(w io.Writer, scores []model.PerformanceScore) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(model.ScoreColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range scores {
		if err := cw.Write(scoreRecord(s)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	metrics.RecordExport(FormatCSV)
	return nil
}

type jsonExport struct {
	ExportedAt string                   `json:"exported_at"`
	Count      int                      `json:"count"`
	Scores     []model.PerformanceScore `json:"scores"`
}

// WriteJSON writes an indented {exported_at, count, scores} document.
func WriteJSON(w io.Writer, scores []model.PerformanceScore) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(scores),
		Scores:     scores,
	}
	if export.Scores == nil {
		export.Scores = []model.PerformanceScore{}
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	metrics.RecordExport(FormatJSON)
	return nil
}

var pdfColumns = []struct {
	title string
	width float64
}{
	{"Emp ID", 22},
	{"Name", 44},
	{"Points", 20},
	{"Prod %", 20},
	{"Prod (90)", 20},
	{"Behav (10)", 22},
	{"FINAL %", 22},
}

// WritePDF renders scores as an A4 table.
func WritePDF(w io.Writer, scores []model.PerformanceScore, title string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", time.Now().UTC().Format(time.RFC3339)))
	pdf.Ln(10)

	if len(scores) == 0 {
		pdf.SetFont("Helvetica", "", 12)
		pdf.Cell(0, 8, NoPerformanceData)
	} else {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 240)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 8, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Helvetica", "", 10)
		for _, s := range scores {
			cells := []string{
				s.EmployeeID,
				s.Name,
				fmt.Sprintf("%.0f", s.TotalTaskPoints),
				f2(s.ProductivityPercentage),
				f2(s.WeightedProductivityScore),
				f2(s.WeightedBehaviorScore),
				f2(s.FinalPerformance),
			}
			for i, c := range pdfColumns {
				align := "R"
				if i < 2 {
					align = "L"
				}
				pdf.CellFormat(c.width, 7, cells[i], "1", 0, align, false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	metrics.RecordExport(FormatPDF)
	return nil
}

// WriteXLSX writes a workbook with one row per score under the standard
// export columns, plus a Metric/Value statistics sheet when scores is not
// empty.
func WriteXLSX(w io.Writer, scores []model.PerformanceScore) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ScoresSheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	header := make([]any, len(model.ScoreColumns))
	for i, c := range model.ScoreColumns {
		header[i] = c
	}
	rows := [][]any{header}
	for _, s := range scores {
		rows = append(rows, []any{
			s.EmployeeID,
			s.Name,
			s.Date,
			round2(s.TotalTaskPoints),
			round2(s.ProductivityPercentage),
			round2(s.WeightedProductivityScore),
			round2(s.BehaviorScoreRaw),
			round2(s.WeightedBehaviorScore),
			round2(s.FinalPerformance),
			s.IdleHours,
			s.ConductFlag,
		})
	}
	if err := writeSheet(f, ScoresSheet, rows); err != nil {
		return err
	}

	if len(scores) > 0 {
		st := aggregate.Statistics(scores)
		if _, err := f.NewSheet(StatisticsSheet); err != nil {
			return fmt.Errorf("add sheet: %w", err)
		}
		if err := writeSheet(f, StatisticsSheet, [][]any{
			{"Metric", "Value"},
			{"Total Employees", st.Count},
			{"Avg Performance", round2(st.Performance.Avg)},
			{"Max Performance", round2(st.Performance.Max)},
			{"Min Performance", round2(st.Performance.Min)},
			{"Avg Productivity", round2(st.Productivity.Avg)},
			{"Avg Behavior", round2(st.Behavior.Avg)},
		}); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	metrics.RecordExport(FormatXLSX)
	return nil
}

// writeSheet fills rows from A1 and bolds the first one.
func writeSheet(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, bold)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

// Write dispatches to the exporter for format.
func Write(w io.Writer, format string, scores []model.PerformanceScore, title string) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, scores)
	case FormatJSON:
		return WriteJSON(w, scores)
	case FormatPDF:
		return WritePDF(w, scores, title)
	case FormatXLSX:
		return WriteXLSX(w, scores)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
