// Package answer holds the typed outcome of grounded question answering.
package answer

import "github.com/kailas-cloud/docrag/internal/domain/record"

// Outcome tells a caller how an answer was produced.
type Outcome string

const (
	// Grounded means the answer was generated from the attached sources.
	Grounded Outcome = "grounded"
	// NoEvidence means retrieval found nothing relevant enough; generation was not invoked.
	NoEvidence Outcome = "no_evidence"
)

// NoMatchText is the fixed answer returned when the relevance gate rejects the evidence.
const NoMatchText = "No strong match found in the documents."

// Answer is a generated answer with the citations it was grounded on.
type Answer struct {
	Text    string
	Outcome Outcome
	Sources []record.Citation
}

// NoMatch returns the answer used when the relevance gate short-circuits.
func NoMatch() Answer {
	return Answer{Text: NoMatchText, Outcome: NoEvidence, Sources: []record.Citation{}}
}

// Generation is the raw output of a text generation call.
type Generation struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// Prompt is a single-turn generation request.
type Prompt struct {
	System string
	User   string
}
