package db

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	VectorField  string // defaults to "vector"
	Vector       []float32
	K            int
	ReturnFields []string
}

// TagQuery selects documents whose TAG field equals Value exactly.
// Entries are paged by Offset and Limit; Total counts every match.
type TagQuery struct {
	IndexName    string
	Field        string
	Value        string
	ReturnFields []string
	Offset       int
	Limit        int
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
// For KNN hits Score is the cosine similarity clamped to [0, 1].
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
