package formatter

import (
	"bytes"
	"fmt"
	"os"

	"github.com/futig/interview-emotion/internal/render"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	// Relative paths where the TTF font may live.
	// In Docker runtime we copy fonts to /app/ttf,
	// so for the compiled binary the path is ./ttf/DejaVuSans.ttf.
	pdfFontRuntimePath = "ttf/DejaVuSans.ttf"

	// Source-relative path (useful when running from repo root with `go run`).
	pdfFontSourcePath = "internal/pkg/formatter/ttf/DejaVuSans.ttf"
)

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// resolveFontPath tries to find the DejaVuSans font in
// runtime layout (next to the binary) or source layout.
func resolveFontPath() string {
	// 1) Try runtime-relative path from current working directory.
	if _, err := os.Stat(pdfFontRuntimePath); err == nil {
		return pdfFontRuntimePath
	}

	// 2) Try source-relative path (useful in local dev).
	if _, err := os.Stat(pdfFontSourcePath); err == nil {
		return pdfFontSourcePath
	}

	return ""
}

func (mf *PDFFormatter) Format(report *render.ReportView) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Try to use UTF-8 capable DejaVuSans font, bundled with the project.
	fontName := "Arial"
	if fontPath := resolveFontPath(); fontPath != "" {
		// Register regular and bold styles under the same family name
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", fontPath)
		fontName = pdfFontName
	}
	tr := func(s string) string { return s }
	if fontName != pdfFontName {
		tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, baseTitle)
	pdf.Ln(12)

	pdf.SetFont(fontName, "", 10)
	pdf.Cell(0, 6, "Session: "+report.SessionID)
	pdf.Ln(10)

	pageWidth, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	barWidth := pageWidth - left - right

	for _, p := range report.Pages {
		pdf.SetFont(fontName, "B", 14)
		pdf.MultiCell(0, 8, tr(pageTitle(p)), "", "", false)
		pdf.Ln(2)

		pdf.SetFont(fontName, "", 11)
		for _, m := range p.Messages {
			r, g, b := hexRGB(m.Background)
			pdf.SetFillColor(r, g, b)
			pdf.MultiCell(0, 7, tr(fmt.Sprintf("%s: %s", m.Speaker, m.Text)), "1", "", true)
			pdf.Ln(1)
		}

		if p.Emotions != nil {
			pdf.Ln(2)
			x, y := pdf.GetXY()
			for _, seg := range p.Emotions.Segments {
				w := barWidth * float64(seg.Percent) / 100
				r, g, b := hexRGB(seg.Color)
				pdf.SetFillColor(r, g, b)
				pdf.Rect(x, y, w, 6, "F")
				x += w
			}
			pdf.Ln(9)

			for _, e := range p.Emotions.Legend {
				r, g, b := hexRGB(e.Color)
				pdf.SetFillColor(r, g, b)
				lx, ly := pdf.GetXY()
				pdf.Rect(lx, ly+1, 4, 4, "F")
				pdf.SetX(lx + 6)
				pdf.Cell(0, 6, tr(e.Text))
				pdf.Ln(6)
			}
		}
		pdf.Ln(6)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (mf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
