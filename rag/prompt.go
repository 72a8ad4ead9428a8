package rag

import (
	"strings"

	"github.com/poiesic/tedrag/core"
)

// SystemPrompt restricts the model to the retrieved TED context.
const SystemPrompt = `You are a TED Talk assistant that answers questions strictly and only based on the TED dataset context provided to you (metadata and transcript passages).
You must not use any external knowledge, the open internet, or information that is not explicitly contained in the retrieved context.
If the answer cannot be determined from the provided context, respond: "I don't know based on the provided TED data."
Always explain your answer using the given context, quoting or paraphrasing the relevant transcript or metadata when helpful.`

const unknownField = "Unknown"

// BuildContext renders one section per match, in match order.
func BuildContext(matches []core.Match) string {
	var sb strings.Builder
	for _, m := range matches {
		sb.WriteString("---\nTitle: ")
		sb.WriteString(orUnknown(m.Metadata.Title))
		sb.WriteString("\nSpeaker: ")
		sb.WriteString(orUnknown(m.Metadata.Speaker))
		sb.WriteString("\nTranscript Snippet: ")
		sb.WriteString(m.Metadata.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}

// BuildUserMessage combines the context block and the question.
func BuildUserMessage(contextBlock, question string) string {
	return "Context:\n" + contextBlock + "\n\nQuestion: " + question
}

func orUnknown(s string) string {
	if s == "" {
		return unknownField
	}
	return s
}
