package llm

import (
	"strings"
)

const (
	instructionBegin = "--- BEGIN INSTRUCTIONS ---"
	instructionEnd   = "--- END INSTRUCTIONS ---"
	priorBegin       = "--- BEGIN PRIOR TABLE (JSON) ---"
	priorEnd         = "--- END PRIOR TABLE (JSON) ---"
	corpusBegin      = "--- BEGIN DOCUMENTS ---"
	corpusEnd        = "--- END DOCUMENTS ---"
)

// ComposePrompt builds the single outbound prompt: instruction, then the prior table as a
// JSON records array (only when priorJSON is non-nil), then the corpus. Each section is
// wrapped in begin/end markers so the model can tell the roles apart.
func ComposePrompt(instruction string, priorJSON []byte, corpus string) string {
	var b strings.Builder
	section(&b, instructionBegin, strings.TrimSpace(instruction), instructionEnd)
	if priorJSON != nil {
		b.WriteString("\n\n")
		section(&b, priorBegin, string(priorJSON), priorEnd)
	}
	b.WriteString("\n\n")
	section(&b, corpusBegin, corpus, corpusEnd)
	return b.String()
}

func section(b *strings.Builder, begin, body, end string) {
	b.WriteString(begin)
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")
	b.WriteString(end)
}
