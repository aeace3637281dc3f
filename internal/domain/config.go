package domain

// RetrievalConfig holds the chunking budgets and relevance settings shared by the pipelines.
type RetrievalConfig struct {
	DocRoot           string
	MinRelevanceScore float64
	IngestChunkChars  int
	SearchChunkChars  int
	QAChunkChars      int
	DefaultTopK       int
	MaxTopK           int
}

// DefaultRetrievalConfig returns the budgets of the reference deployment:
// 200 characters at ingestion and for grounded Q&A, 800 for plain search.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		MinRelevanceScore: 0.35,
		IngestChunkChars:  200,
		SearchChunkChars:  800,
		QAChunkChars:      200,
		DefaultTopK:       5,
		MaxTopK:           50,
	}
}
