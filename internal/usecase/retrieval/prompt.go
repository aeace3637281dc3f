package retrieval

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/docrag/internal/domain/record"
)

// SystemPrompt restricts generation to the supplied sources.
const SystemPrompt = "You are a careful document assistant. Answer only from the SOURCES provided " +
	"in the user message. Cite every statement with its source number, for example [SOURCE 1]. " +
	"If the sources do not contain the answer, say that the documents do not cover it. " +
	"Do not use outside knowledge and do not invent facts, dates, names or clauses."

// formatSources renders numbered SOURCE blocks separated by blank lines.
func formatSources(sources []record.Citation) string {
	blocks := make([]string, len(sources))
	for i, s := range sources {
		blocks[i] = fmt.Sprintf("SOURCE %d\nDocument: %s\nChunk: %d\nExcerpt: %s\n",
			i+1, s.Source, s.ChunkIndex, s.Excerpt)
	}
	return strings.Join(blocks, "\n")
}

func userPrompt(question string, sources []record.Citation) string {
	return "Question: " + question + "\n\n" +
		"SOURCES:\n" + formatSources(sources) + "\n\n" +
		"Answer the question using only the SOURCES and cite them."
}
