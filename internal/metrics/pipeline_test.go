package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterPipelineMetrics_Idempotent(t *testing.T) {
	RegisterPipelineMetrics()
	RegisterPipelineMetrics()

	before := testutil.ToFloat64(AnswerOutcomesTotal.WithLabelValues("grounded"))
	AnswerOutcomesTotal.WithLabelValues("grounded").Inc()
	if got := testutil.ToFloat64(AnswerOutcomesTotal.WithLabelValues("grounded")); got != before+1 {
		t.Errorf("answer_outcomes_total = %f, want %f", got, before+1)
	}

	IngestChunks.Observe(3)
	if testutil.CollectAndCount(IngestChunks) != 1 {
		t.Error("expected ingest_chunks histogram to be collected")
	}
}

func TestRegisterEmbeddingMetrics_Idempotent(t *testing.T) {
	RegisterEmbeddingMetrics()
	RegisterEmbeddingMetrics()

	EmbeddingCacheTotal.WithLabelValues("hit").Inc()
	if testutil.ToFloat64(EmbeddingCacheTotal.WithLabelValues("hit")) < 1 {
		t.Error("expected embedding_cache_total{result=hit} >= 1")
	}
}
