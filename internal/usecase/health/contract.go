package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}

// IndexCounter reads the vector record count.
type IndexCounter interface {
	Count(ctx context.Context) (int, error)
}

// GenerationChecker reports whether text generation has a credential.
type GenerationChecker interface {
	Configured() bool
}
