package evaluation

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"

	placeholder = "—"
)

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func (s *Service) exportName(name, ext string) string {
	slug := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "trainee"
	}
	return fmt.Sprintf("evaluation-%s-%s.%s", slug, s.now().Format("2006-01-02"), ext)
}

// ExportWorkbook renders the evaluation as an XLSX workbook with a summary
// sheet, the scoreboard, the quiz grades and the raw score rows.
func (s *Service) ExportWorkbook(ctx context.Context, id string) (Export, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	name := s.traineeName(ctx, detail.Evaluation)

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return Export{}, err
	}

	const summarySheet = "Summary"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return Export{}, err
	}
	w := sheetWriter{f: f, sheet: summarySheet, header: header}
	w.row("Trainee", name)
	w.row("Status", detail.Evaluation.Status)
	w.row("Period", periodLabel(detail.Evaluation))
	w.row()
	w.headerRow("Category", "Name", "Score (0-5)", "Bootcamp weight", "Performance weight")
	for _, c := range detail.Summary.Categories {
		w.row(c.Letter, c.Name, round2(c.Score), c.BootcampWeight, c.PerformanceWeight)
	}
	w.row()
	w.row("Bootcamp %", round2(detail.Summary.BootcampPercent))
	w.row("Performance %", round2(detail.Summary.PerformancePercent))
	w.row("Overall score", round2(detail.Summary.OverallScore))
	w.row("Rating", detail.Summary.Rating)
	w.width("A", "B", 28)

	if err := w.switchTo("Scoreboard"); err != nil {
		return Export{}, err
	}
	cols := []any{"Activity", "Status", "Graded", "Average (0-5)", "Remarks"}
	for _, c := range Criteria {
		cols = append(cols, c.Label)
	}
	w.headerRow(cols...)
	for _, a := range detail.Summary.Activities {
		cells := []any{a.Label, string(a.Status), fmt.Sprintf("%d/%d", a.CriteriaGraded, len(Criteria)), cellFloat(a.CriteriaAverage), textOr(a.Remarks)}
		for _, slot := range a.Criteria {
			cells = append(cells, cellFloat(slot.Score))
		}
		w.row(cells...)
	}
	w.width("A", "A", 30)

	if err := w.switchTo("Quiz Grades"); err != nil {
		return Export{}, err
	}
	w.headerRow("Quiz", "Raw score", "Total items", "Equivalent", "Rating", "Rating label", "Source")
	for _, q := range detail.Summary.QuizGrades {
		rating := any(placeholder)
		if q.Rating != nil {
			rating = *q.Rating
		}
		w.row(q.Label, cellFloat(q.RawScore), cellFloat(q.TotalItems), cellFloat(q.Equivalent), rating, textOr(q.RatingLabel), q.Source)
	}
	w.width("A", "A", 30)

	if err := w.switchTo("Scores"); err != nil {
		return Export{}, err
	}
	w.headerRow("Sheet", "Category", "Criterion", "Label", "Score", "Max", "Remarks", "Source")
	for _, sc := range detail.Scores {
		w.row(sc.Sheet, textOr(sc.Category), sc.CriterionKey, textOr(sc.CriterionLabel), cellFloat(sc.Score), cellFloat(sc.MaxScore), textOr(sc.Remarks), sc.Source)
	}
	if w.err != nil {
		return Export{}, w.err
	}

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return Export{}, fmt.Errorf("write workbook: %w", err)
	}
	return Export{Filename: s.exportName(name, "xlsx"), ContentType: ContentTypeXLSX, Data: buf.Bytes()}, nil
}

type sheetWriter struct {
	f      *excelize.File
	sheet  string
	header int
	next   int
	err    error
}

func (w *sheetWriter) switchTo(sheet string) error {
	if _, err := w.f.NewSheet(sheet); err != nil {
		return err
	}
	w.sheet = sheet
	w.next = 0
	return nil
}

func (w *sheetWriter) row(values ...any) {
	w.next++
	if w.err != nil || len(values) == 0 {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, w.next)
	if err != nil {
		w.err = err
		return
	}
	w.err = w.f.SetSheetRow(w.sheet, cell, &values)
}

func (w *sheetWriter) headerRow(values ...any) {
	w.row(values...)
	if w.err != nil {
		return
	}
	first, _ := excelize.CoordinatesToCellName(1, w.next)
	last, _ := excelize.CoordinatesToCellName(len(values), w.next)
	w.err = w.f.SetCellStyle(w.sheet, first, last, w.header)
}

func (w *sheetWriter) width(from, to string, width float64) {
	if w.err != nil {
		return
	}
	w.err = w.f.SetColWidth(w.sheet, from, to, width)
}

// ExportPDF renders a one-page summary of the evaluation.
func (s *Service) ExportPDF(ctx context.Context, id string) (Export, error) {
	detail, err := s.Get(ctx, id)
	if err != nil {
		return Export{}, err
	}
	name := s.traineeName(ctx, detail.Evaluation)
	summary := detail.Summary

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Trainee Evaluation")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Trainee: %s", name)))
	pdf.Ln(7)
	pdf.Cell(0, 8, tr(fmt.Sprintf("Period: %s", periodLabel(detail.Evaluation))))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s", detail.Evaluation.Status))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(15, 7, "Cat", "1", 0, "C", false, 0, "")
	pdf.CellFormat(85, 7, "Name", "1", 0, "L", false, 0, "")
	pdf.CellFormat(30, 7, "Score", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Bootcamp", "1", 0, "R", false, 0, "")
	pdf.CellFormat(30, 7, "Performance", "1", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	for _, c := range summary.Categories {
		pdf.CellFormat(15, 7, c.Letter, "1", 0, "C", false, 0, "")
		pdf.CellFormat(85, 7, tr(c.Name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%.2f", c.Score), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%g%%", c.BootcampWeight), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 7, fmt.Sprintf("%g%%", c.PerformanceWeight), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Bootcamp: %.2f%%", summary.BootcampPercent))
	pdf.Ln(7)
	pdf.Cell(0, 8, fmt.Sprintf("Performance: %.2f%%", summary.PerformancePercent))
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Overall: %.2f%% (%s)", summary.OverallScore, summary.Rating))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return Export{}, fmt.Errorf("render pdf: %w", err)
	}
	return Export{Filename: s.exportName(name, "pdf"), ContentType: ContentTypePDF, Data: buf.Bytes()}, nil
}

func periodLabel(e Evaluation) string {
	start, end := placeholder, placeholder
	if e.PeriodStart != nil {
		start = e.PeriodStart.Format("2006-01-02")
	}
	if e.PeriodEnd != nil {
		end = e.PeriodEnd.Format("2006-01-02")
	}
	return start + " to " + end
}

func cellFloat(v *float64) any {
	if v == nil {
		return placeholder
	}
	return round2(*v)
}

func textOr(v string) string {
	if strings.TrimSpace(v) == "" {
		return placeholder
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
