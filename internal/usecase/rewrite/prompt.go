package rewrite

import "strings"

// PersonaPrompt frames general drafting questions answered without retrieval.
const PersonaPrompt = "You are a concise drafting assistant. Answer general drafting questions " +
	"clearly and cautiously, avoid adding facts you do not know, and keep responses short " +
	"and practical. Do not reference uploaded documents; respond only to the user's question."

// RewritePrompt frames document rewrites.
const RewritePrompt = "You are a careful drafting assistant. Rewrite the provided text to improve " +
	"clarity, grammar, and structure while preserving meaning. Do not invent facts, citations, " +
	"dates, names, or clauses that are not present in the source. Keep tone professional and " +
	"consistent with the original."

// rewriteUserPrompt lays out the document, optional goals and optional notes
// as newline-joined blocks.
func rewriteUserPrompt(text string, goals []string, notes string) string {
	parts := []string{"Rewrite the document below.\n", "Document:\n", strings.TrimSpace(text), "\n"}
	if len(goals) > 0 {
		bullets := make([]string, len(goals))
		for i, g := range goals {
			bullets[i] = "- " + g
		}
		parts = append(parts, "Goals:\n", strings.Join(bullets, "\n"), "\n")
	}
	if notes != "" {
		parts = append(parts, "User notes:\n", notes, "\n")
	}
	parts = append(parts, "Return only the rewritten document text.")
	return strings.Join(parts, "\n")
}

func askUserPrompt(question string) string {
	return question + "\n\nRespond succinctly in 3-6 sentences."
}
