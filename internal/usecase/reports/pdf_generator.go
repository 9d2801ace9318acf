package reports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/kr1s57/linkshield/internal/entity"
)

// PDFGenerator renders an assessment report as a PDF document.
type PDFGenerator struct{}

// NewPDFGenerator creates a new PDF generator
func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

// Color definitions
var (
	colorPrimary = []int{37, 99, 235}   // Blue
	colorDanger  = []int{239, 68, 68}   // Red
	colorWarning = []int{245, 158, 11}  // Amber
	colorSuccess = []int{34, 197, 94}   // Green
	colorMuted   = []int{107, 114, 128} // Gray
	colorDark    = []int{31, 41, 55}    // Dark gray
	colorLight   = []int{243, 244, 246} // Light gray
	colorWhite   = []int{255, 255, 255}
)

// Generate creates a PDF document for a single assessment report.
func (g *PDFGenerator) Generate(report *entity.AggregateReport) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	g.addHeader(pdf, report)
	g.addVerdictSummary(pdf, report)
	g.addProviderTable(pdf, report)
	g.addFindings(pdf, report)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}

	return buf.Bytes(), nil
}

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, report *entity.AggregateReport) {
	pdf.AddPage()

	accent := g.levelColor(report.RiskLevel)

	pdf.SetFillColor(accent[0], accent[1], accent[2])
	pdf.Rect(0, 0, 210, 50, "F")

	pdf.SetTextColor(colorWhite[0], colorWhite[1], colorWhite[2])
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetY(12)
	pdf.CellFormat(0, 10, "LINKSHIELD", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 13)
	pdf.CellFormat(0, 7, "Target Risk Assessment", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetY(36)
	pdf.CellFormat(0, 5, g.truncateString(report.Target.Raw, 90), "", 1, "C", false, 0, "")

	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.SetY(56)
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated: %s | Report ID: %s",
		report.CreatedAt.UTC().Format("January 2, 2006 at 15:04 UTC"), report.ID), "", 1, "C", false, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) addVerdictSummary(pdf *fpdf.Fpdf, report *entity.AggregateReport) {
	startY := pdf.GetY() + 4
	cardWidth := 55.0
	cardHeight := 24.0

	accent := g.levelColor(report.RiskLevel)

	g.drawMetricCard(pdf, 15, startY, cardWidth, cardHeight, "Risk Score",
		fmt.Sprintf("%d / 100", report.OverallScore), accent)
	g.drawMetricCard(pdf, 75, startY, cardWidth, cardHeight, "Risk Level",
		g.levelLabel(report.RiskLevel), accent)
	g.drawMetricCard(pdf, 135, startY, cardWidth, cardHeight, "Confidence",
		fmt.Sprintf("%d%%", report.Confidence), colorPrimary)

	pdf.SetY(startY + cardHeight + 8)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.MultiCell(0, 6, report.Summary, "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 5, fmt.Sprintf("Sources consulted: %d | Responded: %d | Failed: %d | Took: %s",
		report.ProvidersConsulted, report.SucceededCount(), len(report.FailedProviders),
		report.Elapsed.Round(time.Millisecond).String()), "", 1, "L", false, 0, "")
	pdf.Ln(4)
}

func (g *PDFGenerator) addProviderTable(pdf *fpdf.Fpdf, report *entity.AggregateReport) {
	g.addSectionHeader(pdf, "Provider Verdicts")

	headers := []string{"Provider", "Status", "Risk", "Flags"}
	widths := []float64{55, 30, 20, 75}

	g.drawTableHeader(pdf, headers, widths)

	verdicts := make([]entity.ProviderVerdict, 0, len(report.ProviderResults))
	for _, v := range report.ProviderResults {
		verdicts = append(verdicts, v)
	}
	sort.Slice(verdicts, func(i, j int) bool {
		if verdicts[i].RiskContribution != verdicts[j].RiskContribution {
			return verdicts[i].RiskContribution > verdicts[j].RiskContribution
		}
		return verdicts[i].ProviderID < verdicts[j].ProviderID
	})

	for i, v := range verdicts {
		status := "ok"
		risk := fmt.Sprintf("%d", v.RiskContribution)
		if !v.Succeeded {
			status = "failed: " + v.ErrorReason
			risk = "-"
		} else if v.Synthetic {
			status = "simulated"
		}
		flags := make([]string, len(v.Flags))
		for fi, f := range v.Flags {
			flags[fi] = string(f)
		}
		values := []string{
			g.truncateString(v.ProviderName, 26),
			status,
			risk,
			g.truncateString(strings.Join(flags, ", "), 42),
		}
		g.drawTableRow(pdf, values, widths, i%2 == 0)
	}
	pdf.Ln(8)
}

func (g *PDFGenerator) addFindings(pdf *fpdf.Fpdf, report *entity.AggregateReport) {
	g.addSectionHeader(pdf, "Risk Factors")

	if len(report.RiskFactors) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
		pdf.CellFormat(0, 7, "No specific risk factors were identified.", "", 1, "L", false, 0, "")
	} else {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
		for _, factor := range report.RiskFactors {
			pdf.MultiCell(0, 6, "- "+factor, "", "L", false)
		}
	}
	pdf.Ln(6)

	g.addSectionHeader(pdf, "Recommendations")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	for _, rec := range report.Recommendations {
		pdf.MultiCell(0, 6, "- "+rec, "", "L", false)
	}

	pdf.SetY(270)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.CellFormat(0, 4, "Automated assessment. Verdicts reflect third-party intelligence at generation time.", "", 1, "C", false, 0, "")
}

// Helper functions

func (g *PDFGenerator) levelColor(level entity.RiskLevel) []int {
	switch level {
	case entity.RiskVeryHigh, entity.RiskHigh:
		return colorDanger
	case entity.RiskMedium:
		return colorWarning
	case entity.RiskLow, entity.RiskVeryLow:
		return colorSuccess
	default:
		return colorMuted
	}
}

func (g *PDFGenerator) levelLabel(level entity.RiskLevel) string {
	return strings.ToUpper(strings.ReplaceAll(string(level), "-", " "))
}

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.CellFormat(0, 9, title, "", 1, "L", false, 0, "")
	pdf.SetDrawColor(colorPrimary[0], colorPrimary[1], colorPrimary[2])
	pdf.SetLineWidth(0.5)
	pdf.Line(15, pdf.GetY(), 195, pdf.GetY())
	pdf.Ln(4)
}

func (g *PDFGenerator) drawMetricCard(pdf *fpdf.Fpdf, x, y, w, h float64, label string, value string, color []int) {
	pdf.SetFillColor(colorLight[0], colorLight[1], colorLight[2])
	pdf.RoundedRect(x, y, w, h, 2, "1234", "F")

	pdf.SetFillColor(color[0], color[1], color[2])
	pdf.Rect(x, y, 3, h, "F")

	pdf.SetFont("Helvetica", "", 8)
	pdf.SetTextColor(colorMuted[0], colorMuted[1], colorMuted[2])
	pdf.SetXY(x+6, y+3)
	pdf.CellFormat(w-8, 4, label, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "B", 13)
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetXY(x+6, y+10)
	pdf.CellFormat(w-8, 8, value, "", 0, "L", false, 0, "")
}

func (g *PDFGenerator) drawTableHeader(pdf *fpdf.Fpdf, headers []string, widths []float64) {
	pdf.SetFillColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetTextColor(colorWhite[0], colorWhite[1], colorWhite[2])
	pdf.SetFont("Helvetica", "B", 9)

	for i, header := range headers {
		pdf.CellFormat(widths[i], 7, header, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *PDFGenerator) drawTableRow(pdf *fpdf.Fpdf, values []string, widths []float64, alternate bool) {
	if alternate {
		pdf.SetFillColor(colorLight[0], colorLight[1], colorLight[2])
	} else {
		pdf.SetFillColor(colorWhite[0], colorWhite[1], colorWhite[2])
	}
	pdf.SetTextColor(colorDark[0], colorDark[1], colorDark[2])
	pdf.SetFont("Helvetica", "", 8)

	for i, value := range values {
		pdf.CellFormat(widths[i], 6, value, "", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)
}

func (g *PDFGenerator) truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
