package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/interview-emotion/internal/render"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(report *render.ReportView) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\nSession: `%s`\n", baseTitle, report.SessionID)

	for _, p := range report.Pages {
		fmt.Fprintf(&buf, "\n## %s\n\n", pageTitle(p))
		for _, m := range p.Messages {
			fmt.Fprintf(&buf, "**%s:** %s\n\n", m.Speaker, m.Text)
		}
		if p.Emotions != nil {
			buf.WriteString("### Emotion summary\n\n")
			for _, e := range p.Emotions.Legend {
				fmt.Fprintf(&buf, "- %s\n", e.Text)
			}
		}
	}
	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
