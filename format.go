package redline

import (
	"fmt"
	"strings"
)

// SystemInstruction describes the CriticMarkup output contract to a model.
const SystemInstruction = `You are an editor working on a Markdown document. Apply the user's request by returning the COMPLETE document with every change marked in CriticMarkup:

- insertion: {++added text++}
- deletion: {--removed text--}
- replacement: {~~old text~>new text~~}

Rules:
- Reproduce all unchanged text exactly, byte for byte.
- Never nest markers and never place a marker inside another marker.
- Keep changes small and local; prefer several narrow markers over one large replacement.
- Do not edit inside fenced code blocks unless the request asks for it.
- Keep Markdown structure intact: list markers, table pipes, and heading hashes stay outside markers unless the whole element changes.
- Return only the document. No commentary, no surrounding code fence.`

// PromptFormatter renders a document and a user request as the prompt sent to
// a model.
type PromptFormatter interface {
	Format(document, prompt string) string
}

// DefaultFormatter implements PromptFormatter with tagged sections.
type DefaultFormatter struct{}

// Format renders the document and request as structured text.
func (f *DefaultFormatter) Format(document, prompt string) string {
	var sb strings.Builder

	sb.WriteString("<document>\n")
	sb.WriteString(document)
	if !strings.HasSuffix(document, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("</document>\n\n")

	sb.WriteString("<request>\n")
	sb.WriteString(strings.TrimSpace(prompt))
	sb.WriteString("\n</request>\n\n")

	fmt.Fprintf(&sb, "Return the full document (%d bytes before your edits) with CriticMarkup markers for each change.\n", len(document))

	return sb.String()
}

// Unfence strips a single code fence wrapped around a model response when the
// document itself does not start with one.
func Unfence(document, response string) string {
	trimmed := strings.TrimSpace(response)
	if strings.HasPrefix(strings.TrimSpace(document), "```") {
		return response
	}
	if !strings.HasPrefix(trimmed, "```") || !strings.HasSuffix(trimmed, "```") {
		return response
	}
	nl := strings.IndexByte(trimmed, '\n')
	if nl < 0 {
		return response
	}
	body := trimmed[nl+1 : len(trimmed)-3]
	if strings.HasSuffix(document, "\n") {
		return body
	}
	return strings.TrimSuffix(body, "\n")
}
