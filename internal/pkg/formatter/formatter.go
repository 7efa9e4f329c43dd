package formatter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/futig/interview-emotion/internal/entity"
	"github.com/futig/interview-emotion/internal/render"
)

const baseTitle = "Interview emotion report"

type Formatter interface {
	Format(report *render.ReportView) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatJSON:
		return NewJSONFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(), nil
	default:
		return nil, fmt.Errorf("%w: unsupported format: %s", entity.ErrInvalidParameter, format)
	}
}

func pageTitle(p render.PageView) string {
	return fmt.Sprintf("Q%d. %s", p.Index+1, p.Question)
}

// hexRGB parses #rgb and #rrggbb colors, falling back to grey
func hexRGB(hex string) (int, int, int) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0xcc, 0xcc, 0xcc
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0xcc, 0xcc, 0xcc
	}
	return int(v >> 16 & 0xff), int(v >> 8 & 0xff), int(v & 0xff)
}
