// Package prompt builds the grounded-answer prompts shared by all
// generation adapters. Keeping the wording in one place ensures every
// provider answers from the same instructions.
package prompt

import (
	"fmt"
	"strings"

	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// System is the system prompt for grounded answer generation. The
// model must answer only from the provided passages and admit when
// they do not contain the answer.
const System = `You are a technical support assistant. Answer the user's question using ONLY the information in the provided sources. Cite sources as [Source N] where relevant. If the sources do not contain the information needed to answer, say so clearly instead of guessing.`

// User renders the user prompt: numbered source blocks followed by
// the question.
func User(query string, passages []driven.ContextPassage) string {
	var b strings.Builder
	b.WriteString("Sources:\n\n")
	for i, p := range passages {
		fmt.Fprintf(&b, "[Source %d] %s (%s)\n%s\n\n", i+1, p.DocTitle, p.SourceType, p.Content)
	}
	b.WriteString("Question: ")
	b.WriteString(query)
	return b.String()
}
