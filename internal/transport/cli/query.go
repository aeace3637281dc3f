package cli

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docrag/internal/domain/answer"
	"github.com/kailas-cloud/docrag/internal/domain/record"
)

type citationJSON struct {
	ID         string  `json:"id"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	ChunkIndex int     `json:"chunk_index"`
	Excerpt    string  `json:"excerpt"`
}

func citationsJSON(cc []record.Citation) []citationJSON {
	out := make([]citationJSON, len(cc))
	for i, c := range cc {
		out[i] = citationJSON(c)
	}
	return out
}

func newSearchCmd(r *runner) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Semantic search over indexed chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			results, err := svc.Retrieval.Search(cmd.Context(), args[0], topK)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, citationsJSON(results))
			}
			printCitations(cmd, results)
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of results (default: retrieval.default_top_k)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output results as JSON")
	return cmd
}

func newQACmd(r *runner) *cobra.Command {
	var (
		topK   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "qa QUESTION",
		Short: "Answer a question grounded in the indexed documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			ans, err := svc.Retrieval.Answer(cmd.Context(), args[0], topK)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, struct {
					Answer  string         `json:"answer"`
					Outcome string         `json:"outcome"`
					Sources []citationJSON `json:"sources"`
				}{ans.Text, string(ans.Outcome), citationsJSON(ans.Sources)})
			}

			cmd.Println(ans.Text)
			if ans.Outcome == answer.Grounded {
				cmd.Println()
				printCitations(cmd, ans.Sources)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of sources (default: retrieval.default_top_k)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the answer as JSON")
	return cmd
}

func newAskCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Ask a general question without document grounding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			text, err := svc.Rewrite.Ask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			cmd.Println(text)
			return nil
		},
	}
}

func newRewriteCmd(r *runner) *cobra.Command {
	var (
		goals []string
		notes string
	)
	cmd := &cobra.Command{
		Use:   "rewrite FILE",
		Short: "Rewrite a .docx document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			text, err := svc.Rewrite.RewriteFile(cmd.Context(), args[0], goals, notes)
			if err != nil {
				return err
			}
			cmd.Println(text)
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&goals, "goal", "g", nil, "rewrite goal (repeatable)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes for the rewrite")
	return cmd
}

func newStatsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the number of indexed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			n, err := svc.Index.Count(cmd.Context())
			if err != nil {
				return err
			}
			cmd.Printf("Records: %d\n", n)
			return nil
		},
	}
}

func printCitations(cmd *cobra.Command, cc []record.Citation) {
	if len(cc) == 0 {
		cmd.Println("No results found.")
		return
	}
	for i, c := range cc {
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, c.Source, c.ChunkIndex, c.Score)
		cmd.Printf("      %s\n", c.Excerpt)
	}
}
