// Package chunker splits extracted document text into bounded-size
// passages. Splitting is deterministic and makes no external calls.
//
// Three strategies cover the corpus:
//
//   - Paragraphs: structured text (tickets, plain files).
//   - Sentences: unstructured prose (PDF extraction output).
//   - Markdown: header-aware splitting with paragraph fallback.
//
// All strategies greedily accumulate units into a buffer until adding
// the next unit would exceed the size budget, then flush. A single
// unit larger than the budget is emitted whole rather than hard-split.
package chunker

import (
	"regexp"
	"strings"
)

// headingLine matches a markdown heading marker at line start.
var headingLine = regexp.MustCompile(`(?m)^#{1,6}\s`)

// sentenceEnd matches trailing sentence punctuation.
var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Paragraphs splits text on blank-line boundaries and greedily packs
// paragraphs into chunks of at most sizeBudget characters. A paragraph
// that alone exceeds the budget becomes its own oversized chunk.
// Empty or whitespace-only input yields no chunks.
func Paragraphs(text string, sizeBudget int) []string {
	return packUnits(splitParagraphs(text), "\n\n", sizeBudget)
}

// Sentences splits text on sentence boundaries (., !, ?) and greedily
// packs sentences into chunks of at most sizeBudget characters.
// Trailing punctuation is restored on each sentence.
func Sentences(text string, sizeBudget int) []string {
	return packUnits(splitSentences(text), " ", sizeBudget)
}

// Markdown splits text on heading boundaries first. Each heading
// section that fits the budget becomes one chunk; oversized sections
// are further split by the paragraph algorithm. Text without headings
// falls back to paragraph chunking entirely.
func Markdown(text string, sizeBudget int) []string {
	sections := splitSections(text)
	if len(sections) <= 1 {
		return Paragraphs(text, sizeBudget)
	}

	var chunks []string
	for _, section := range sections {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		if len(section) <= sizeBudget {
			chunks = append(chunks, section)
			continue
		}
		chunks = append(chunks, Paragraphs(section, sizeBudget)...)
	}
	return chunks
}

// ForSource selects the strategy appropriate for a source type key.
// PDFs are unstructured prose, markdown is header-structured, and
// everything else splits on paragraphs.
func ForSource(sourceType string) func(string, int) []string {
	switch sourceType {
	case "pdf":
		return Sentences
	case "md":
		return Markdown
	default:
		return Paragraphs
	}
}

// packUnits greedily accumulates units into chunks of at most
// sizeBudget characters, joining buffered units with sep. Flushing
// happens when appending the next unit would exceed the budget.
func packUnits(units []string, sep string, sizeBudget int) []string {
	var chunks []string
	var buf strings.Builder

	flush := func() {
		if buf.Len() == 0 {
			return
		}
		chunk := strings.TrimSpace(buf.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		buf.Reset()
	}

	for _, unit := range units {
		if buf.Len() > 0 && buf.Len()+len(sep)+len(unit) > sizeBudget {
			flush()
		}
		if buf.Len() > 0 {
			buf.WriteString(sep)
		}
		buf.WriteString(unit)
	}
	flush()

	return chunks
}

// splitParagraphs splits on blank lines and trims each paragraph,
// dropping empty ones.
func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

// splitSentences splits on sentence-ending punctuation, restoring the
// punctuation on each sentence.
func splitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		s := strings.TrimSpace(text[last:loc[1]])
		if strings.TrimRight(s, ".!?") != "" {
			sentences = append(sentences, s)
		}
		last = loc[1]
	}
	// Tail without terminal punctuation.
	if tail := strings.TrimSpace(text[last:]); tail != "" {
		sentences = append(sentences, tail)
	}
	return sentences
}

// splitSections splits markdown text at heading lines. The heading
// line stays attached to its section.
func splitSections(text string) []string {
	locs := headingLine.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []string{text}
	}

	var sections []string
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			sections = append(sections, text[prev:loc[0]])
		}
		prev = loc[0]
	}
	sections = append(sections, text[prev:])
	return sections
}
