package extractors

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// fileExtractor is the shared machinery for file-based sources. Each
// concrete extractor supplies its source type, the extensions it
// claims, and a parse function from raw bytes to text.
type fileExtractor struct {
	sourceType domain.SourceType
	extensions []string
	parse      func(content []byte) (string, error)
	title      func(path, text string) string

	// plainFallback retries a failed rich parse as a raw UTF-8 read.
	// The tier that produced the text lands in the document metadata.
	plainFallback bool
}

var _ driven.Extractor = (*fileExtractor)(nil)

// SourceType identifies the source this extractor handles.
func (e *fileExtractor) SourceType() domain.SourceType {
	return e.sourceType
}

// Extract reads files named by the "path" param or scans the "dir"
// param for files with matching extensions. A file that fails to parse
// is reported in the batch errors and does not abort its siblings.
func (e *fileExtractor) Extract(ctx context.Context, params map[string]any) (*driven.ExtractedBatch, error) {
	paths, err := e.resolvePaths(params)
	if err != nil {
		return nil, err
	}

	batch := &driven.ExtractedBatch{}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc, err := e.extractFile(path)
		if err != nil {
			batch.Errors = append(batch.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}
		batch.Documents = append(batch.Documents, *doc)
	}
	return batch, nil
}

// resolvePaths expands the path/dir params into concrete file paths.
func (e *fileExtractor) resolvePaths(params map[string]any) ([]string, error) {
	if path := stringParam(params, "path"); path != "" {
		return []string{path}, nil
	}

	dir := stringParam(params, "dir")
	if dir == "" {
		return nil, &domain.ValidationError{Field: "path", Reason: "either path or dir is required"}
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if e.claims(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, &domain.ExtractionError{SourceType: e.sourceType, Err: err}
	}
	return paths, nil
}

// claims reports whether this extractor handles the file's extension.
func (e *fileExtractor) claims(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range e.extensions {
		if ext == want {
			return true
		}
	}
	return false
}

// extractFile parses one file into a document.
func (e *fileExtractor) extractFile(path string) (*driven.ExtractedDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ExtractionError{SourceType: e.sourceType, Err: err}
	}

	tier := "rich"
	text, err := e.parse(content)
	if err != nil {
		if !e.plainFallback || !utf8.Valid(content) {
			return nil, &domain.ExtractionError{SourceType: e.sourceType, Err: err}
		}
		tier = "plain"
		text = string(content)
	}
	if strings.TrimSpace(text) == "" {
		return nil, &domain.ExtractionError{SourceType: e.sourceType, Err: domain.ErrEmptyContent}
	}

	title := e.title(path, text)
	now := time.Now().UTC()
	return &driven.ExtractedDocument{
		Document: domain.Document{
			ID:         docID(e.sourceType, pathDigest(path)),
			Title:      title,
			SourceType: e.sourceType,
			Metadata:   map[string]any{"path": path, "extraction_tier": tier},
			CreatedAt:  now,
			UpdatedAt:  now,
		},
		Text: text,
	}, nil
}

// baseTitle derives a title from the file name.
func baseTitle(path, _ string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// NewPlaintext creates the extractor for .txt files.
func NewPlaintext() driven.Extractor {
	return &fileExtractor{
		sourceType: domain.SourceText,
		extensions: []string{".txt"},
		parse:      func(content []byte) (string, error) { return string(content), nil },
		title:      baseTitle,
	}
}

// NewMarkdown creates the extractor for .md files. The first heading,
// when present, becomes the document title.
func NewMarkdown() driven.Extractor {
	return &fileExtractor{
		sourceType: domain.SourceMarkdown,
		extensions: []string{".md", ".markdown"},
		parse:      func(content []byte) (string, error) { return string(content), nil },
		title: func(path, text string) string {
			for _, line := range strings.Split(text, "\n") {
				line = strings.TrimSpace(line)
				if strings.HasPrefix(line, "#") {
					return strings.TrimSpace(strings.TrimLeft(line, "#"))
				}
			}
			return baseTitle(path, text)
		},
	}
}
