package extractors

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// NewPDF creates the extractor for .pdf files.
func NewPDF() driven.Extractor {
	return &fileExtractor{
		sourceType:    domain.SourcePDF,
		extensions:    []string{".pdf"},
		parse:         extractPDF,
		title:         baseTitle,
		plainFallback: true,
	}
}

// extractPDF extracts plain text from PDF bytes, page by page.
func extractPDF(content []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open PDF: %w", err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i+1, err)
		}
		buf.WriteString(text)
		if i < numPages-1 {
			buf.WriteByte('\n')
		}
	}
	return buf.String(), nil
}
