package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/interview-emotion/internal/render"
	"github.com/unidoc/unioffice/color"
	"github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (mf *DOCXFormatter) Format(report *render.ReportView) ([]byte, error) {
	doc := document.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Heading1")
	titleRun := titlePar.AddRun()
	titleRun.AddText(baseTitle)

	doc.AddParagraph().AddRun().AddText("Session: " + report.SessionID)

	for _, p := range report.Pages {
		heading := doc.AddParagraph()
		heading.SetStyle("Heading2")
		heading.AddRun().AddText(pageTitle(p))

		for _, m := range p.Messages {
			par := doc.AddParagraph()
			speaker := par.AddRun()
			speaker.Properties().SetBold(true)
			speaker.AddText(fmt.Sprintf("%s: ", m.Speaker))
			par.AddRun().AddText(m.Text)
		}

		if p.Emotions != nil {
			summary := doc.AddParagraph()
			summary.SetStyle("Heading3")
			summary.AddRun().AddText("Emotion summary")

			for _, e := range p.Emotions.Legend {
				par := doc.AddParagraph()
				swatch := par.AddRun()
				swatch.Properties().SetColor(color.FromHex(e.Color))
				swatch.AddText("■ ")
				par.AddRun().AddText(e.Text)
			}
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (mf *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (mf *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
