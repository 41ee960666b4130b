package extractors

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// wtTag matches <w:t>text</w:t> including attributed forms like
// <w:t xml:space="preserve">.
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// wpClose matches paragraph boundaries so extracted text keeps its
// paragraph structure.
var wpClose = regexp.MustCompile(`</w:p>`)

// NewDOCX creates the extractor for .docx files.
func NewDOCX() driven.Extractor {
	return &fileExtractor{
		sourceType:    domain.SourceDocx,
		extensions:    []string{".docx"},
		parse:         extractDOCX,
		title:         baseTitle,
		plainFallback: true,
	}
}

// extractDOCX extracts text from .docx bytes. DOCX is a ZIP containing
// word/document.xml (OOXML). All <w:t> text nodes are collected so
// content survives regardless of run attributes; closing paragraph
// tags become blank lines.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name != docxDocumentXMLPath {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: open %s: %w", f.Name, err)
		}
		var buf bytes.Buffer
		_, err = buf.ReadFrom(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("extract DOCX: read %s: %w", f.Name, err)
		}
		docXML = buf.Bytes()
		break
	}
	if docXML == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", docxDocumentXMLPath)
	}

	xml := wpClose.ReplaceAllString(string(docXML), "\n\n")

	// Collect text nodes per paragraph so boundaries survive.
	var out strings.Builder
	for _, para := range strings.Split(xml, "\n\n") {
		var p strings.Builder
		for _, m := range wtTag.FindAllStringSubmatch(para, -1) {
			p.WriteString(unescapeXML(m[1]))
		}
		if text := strings.TrimSpace(p.String()); text != "" {
			if out.Len() > 0 {
				out.WriteString("\n\n")
			}
			out.WriteString(text)
		}
	}
	return out.String(), nil
}

// unescapeXML reverses the XML entity escapes that appear in text nodes.
func unescapeXML(s string) string {
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&apos;", "'",
		"&amp;", "&",
	)
	return r.Replace(s)
}
