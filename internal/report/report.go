package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/compliance"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/domain"
	"github.com/sysu-ecnc-dev/roster-engine/backend/internal/optimizer"
)

const (
	pageWidth  = 190.0 // A4 去掉左右边距
	lineHeight = 6.0
)

// Generator 生成 PDF 报告
type Generator struct {
	outputDir string
	now       func() time.Time
}

func New(outputDir string) *Generator {
	return &Generator{outputDir: outputDir, now: time.Now}
}

// ComplianceFile 写入合规报告文件并返回路径
func (g *Generator) ComplianceFile(reports []*compliance.Report) (string, error) {
	return g.writeFile("compliance", func(w io.Writer) error {
		return g.WriteCompliance(w, reports)
	})
}

// SummaryFile 写入排班结果文件并返回路径
func (g *Generator) SummaryFile(summary *optimizer.Summary, stats domain.RosterStats) (string, error) {
	return g.writeFile("summary", func(w io.Writer) error {
		return g.WriteSummary(w, summary, stats)
	})
}

func (g *Generator) writeFile(prefix string, write func(w io.Writer) error) (string, error) {
	if err := os.MkdirAll(g.outputDir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.pdf", prefix, g.now().Format("20060102_150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := write(f); err != nil {
		return "", err
	}

	return path, f.Close()
}

// WriteCompliance 第一页列出所有员工的结果，之后每名未通过的员工一节
func (g *Generator) WriteCompliance(w io.Writer, reports []*compliance.Report) error {
	pdf, tr := g.newDocument("Compliance Report")

	passed := 0
	for _, r := range reports {
		if r.Passed {
			passed++
		}
	}

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, lineHeight, fmt.Sprintf("Employees: %d   Passed: %d   Failed: %d", len(reports), passed, len(reports)-passed))
	pdf.Ln(lineHeight + 4)

	header(pdf, []string{"Code", "Name", "Result", "Warnings"}, []float64{25, 95, 30, 40})
	for _, r := range reports {
		result := "PASS"
		if !r.Passed {
			result = "FAIL"
		}
		row(pdf, tr, []string{r.EmployeeCode, r.EmployeeName, result, fmt.Sprint(len(r.Warnings()))}, []float64{25, 95, 30, 40})
	}

	for _, r := range reports {
		if r.Passed {
			continue
		}
		g.employeeSection(pdf, tr, r)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (g *Generator) employeeSection(pdf *gofpdf.Fpdf, tr func(string) string, r *compliance.Report) {
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s (%s)", r.EmployeeName, r.EmployeeCode)))
	pdf.Ln(10)

	if len(r.ApprovedLeaveRanges) > 0 {
		ranges := make([]string, 0, len(r.ApprovedLeaveRanges))
		for _, lr := range r.ApprovedLeaveRanges {
			ranges = append(ranges, lr.String())
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(pageWidth, lineHeight, "Approved leave: "+strings.Join(ranges, ", "), "", "L", false)
		pdf.Ln(2)
	}

	for _, check := range r.Checks {
		if check.Passed && len(check.Warnings) == 0 {
			continue
		}

		pdf.SetFont("Helvetica", "B", 11)
		status := "failed"
		if check.Passed {
			status = "passed with notes"
		}
		pdf.Cell(0, lineHeight+1, tr(fmt.Sprintf("%s: %s", check.Name, status)))
		pdf.Ln(lineHeight + 2)

		for _, warning := range check.Warnings {
			setSeverityColor(pdf, warning.Severity)
			pdf.SetFont("Helvetica", "", 10)
			pdf.MultiCell(pageWidth, lineHeight, tr(warning.Message), "", "L", false)
			pdf.SetTextColor(0, 0, 0)

			if len(warning.Context) > 0 {
				pdf.SetFont("Courier", "", 8)
				for _, line := range warning.Context {
					pdf.SetX(15)
					pdf.MultiCell(pageWidth-5, lineHeight-1, tr(line), "", "L", false)
				}
			}
			pdf.Ln(1)
		}
		pdf.Ln(2)
	}
}

// WriteSummary 排班结果：分配数量、每名员工的班次数和无人可排的班次
func (g *Generator) WriteSummary(w io.Writer, summary *optimizer.Summary, stats domain.RosterStats) error {
	pdf, tr := g.newDocument("Roster Summary")

	pdf.SetFont("Helvetica", "", 11)
	lines := []string{
		fmt.Sprintf("Employees: %d   Rostered shifts: %d   Leave entries: %d", stats.Employees, stats.Shifts, stats.Leave),
		fmt.Sprintf("Offerable shifts: %d   Assigned: %d   Remaining: %d   Unfillable: %d",
			summary.Total, summary.Assigned, summary.Remaining, len(summary.Unfillable)),
	}
	for _, line := range lines {
		pdf.Cell(0, lineHeight, line)
		pdf.Ln(lineHeight)
	}
	pdf.Ln(4)

	if len(summary.PerEmployee) > 0 {
		codes := make([]string, 0, len(summary.PerEmployee))
		for code := range summary.PerEmployee {
			codes = append(codes, code)
		}
		sort.Strings(codes)

		header(pdf, []string{"Employee", "Assigned shifts"}, []float64{60, 40})
		for _, code := range codes {
			row(pdf, tr, []string{code, fmt.Sprint(summary.PerEmployee[code])}, []float64{60, 40})
		}
		pdf.Ln(6)
	}

	for _, u := range summary.Unfillable {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(pageWidth, lineHeight, tr("Unfillable: "+u.Shift.String()), "", "L", false)
		pdf.SetFont("Helvetica", "", 9)
		for _, reason := range u.Reasons {
			pdf.SetX(15)
			pdf.MultiCell(pageWidth-5, lineHeight-1, tr(fmt.Sprintf("%s (%s): %s", reason.EmployeeName, reason.Rule, reason.Reason)), "", "L", false)
		}
		pdf.Ln(2)
	}

	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

func (g *Generator) newDocument(title string) (*gofpdf.Fpdf, func(string) string) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	// 核心字体只支持 cp1252，姓名等文本需要转换
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, title)
	pdf.Ln(10)
	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(0, lineHeight, "Generated "+g.now().Format("Mon 02/01/2006 15:04"))
	pdf.Ln(lineHeight + 2)

	return pdf, tr
}

func header(pdf *gofpdf.Fpdf, titles []string, widths []float64) {
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(220, 220, 220)
	for i, title := range titles {
		pdf.CellFormat(widths[i], 7, title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func row(pdf *gofpdf.Fpdf, tr func(string) string, cells []string, widths []float64) {
	pdf.SetFont("Helvetica", "", 10)
	for i, cell := range cells {
		pdf.CellFormat(widths[i], 6, tr(cell), "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)
}

func setSeverityColor(pdf *gofpdf.Fpdf, severity compliance.Severity) {
	switch severity {
	case compliance.SeverityError:
		pdf.SetTextColor(180, 0, 0)
	case compliance.SeverityWarning:
		pdf.SetTextColor(170, 90, 0)
	default:
		pdf.SetTextColor(80, 80, 80)
	}
}
