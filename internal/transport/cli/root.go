// Package cli implements the docragctl command line.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
	"github.com/kailas-cloud/docrag/internal/repository/filestore"
	"github.com/kailas-cloud/docrag/internal/usecase/ingest"
	"github.com/kailas-cloud/docrag/internal/version"
)

// Ingester indexes a document.
type Ingester interface {
	IngestUpload(ctx context.Context, u filestore.Upload) (ingest.Result, error)
}

// Retriever runs search and grounded Q&A.
type Retriever interface {
	Search(ctx context.Context, query string, topK int) ([]record.Citation, error)
	Answer(ctx context.Context, question string, topK int) (answer.Answer, error)
}

// Rewriter rewrites documents and answers general questions.
type Rewriter interface {
	RewriteFile(ctx context.Context, path string, goals []string, notes string) (string, error)
	Ask(ctx context.Context, question string) (string, error)
}

// Counter counts indexed records.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Services are the operations the commands drive.
type Services struct {
	Ingest    Ingester
	Retrieval Retriever
	Rewrite   Rewriter
	Index     Counter
	// Workers bounds concurrent ingestion.
	Workers int
}

// Factory builds the services for an environment. The returned func releases them.
type Factory func(ctx context.Context, env string) (*Services, func(), error)

type runner struct {
	build Factory
	env   string
}

// services builds the services for the selected environment.
func (r *runner) services(cmd *cobra.Command) (*Services, func(), error) {
	svc, closeFn, err := r.build(cmd.Context(), r.env)
	if err != nil {
		return nil, nil, fmt.Errorf("initialize: %w", err)
	}
	return svc, closeFn, nil
}

// NewRootCmd creates the docragctl command tree.
func NewRootCmd(build Factory, defaultEnv string) *cobra.Command {
	r := &runner{build: build}

	root := &cobra.Command{
		Use:           "docragctl",
		Short:         "Index DOCX documents and query them with grounded answers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&r.env, "env", defaultEnv, "config environment (local, dev, prod)")

	root.AddCommand(
		newIngestCmd(r),
		newSearchCmd(r),
		newQACmd(r),
		newAskCmd(r),
		newRewriteCmd(r),
		newStatsCmd(r),
		newVersionCmd(),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("docragctl %s\n", version.String())
		},
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
