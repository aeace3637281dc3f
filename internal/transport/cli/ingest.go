package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/docrag/internal/repository/filestore"
	"github.com/kailas-cloud/docrag/internal/usecase/ingest"
)

func newIngestCmd(r *runner) *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "ingest PATH...",
		Short: "Ingest .docx files or directories of .docx files",
		Long: `Copies each document into the document root, then extracts, chunks,
embeds and indexes it. Directories are expanded to the .docx files they contain.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := expandDocxPaths(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .docx files found")
			}

			svc, closeFn, err := r.services(cmd)
			if err != nil {
				return err
			}
			defer closeFn()

			if workers <= 0 {
				workers = svc.Workers
			}
			return runIngest(cmd, svc.Ingest, paths, workers)
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "concurrent ingestions (default: ingest.workers)")
	return cmd
}

type ingestOutcome struct {
	path string
	res  ingest.Result
	err  error
}

// runIngest ingests paths with bounded concurrency. Every file is attempted;
// the first failure is returned after all finish.
func runIngest(cmd *cobra.Command, ing Ingester, paths []string, workers int) error {
	if workers <= 0 {
		workers = 1
	}
	outcomes := make([]ingestOutcome, len(paths))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, p := range paths {
		g.Go(func() error {
			res, err := ingestFile(cmd, ing, p)
			outcomes[i] = ingestOutcome{path: p, res: res, err: err}
			if err != nil {
				return fmt.Errorf("%s: %w", p, err)
			}
			return nil
		})
	}
	firstErr := g.Wait()

	var failed int
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			cmd.PrintErrf("FAIL %s: %v\n", o.path, o.err)
			continue
		}
		cmd.Printf("OK   %s doc_id=%s chunks=%d", o.res.Filename, o.res.DocumentID, o.res.ChunkCount)
		if o.res.Superseded > 0 {
			cmd.Printf(" superseded=%d", o.res.Superseded)
		}
		cmd.Println()
	}
	cmd.Printf("Ingested %d of %d documents.\n", len(paths)-failed, len(paths))
	return firstErr
}

func ingestFile(cmd *cobra.Command, ing Ingester, path string) (ingest.Result, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return ingest.Result{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	return ing.IngestUpload(cmd.Context(), filestore.Upload{
		Filename: filepath.Base(path),
		Body:     f,
	})
}

// expandDocxPaths replaces directories by the .docx files directly inside them.
func expandDocxPaths(args []string) ([]string, error) {
	var out []string
	for _, a := range args {
		info, err := os.Stat(a)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", a, err)
		}
		if !info.IsDir() {
			out = append(out, a)
			continue
		}
		entries, err := os.ReadDir(a)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", a, err)
		}
		var found []string
		for _, e := range entries {
			name := e.Name()
			// Skip Word lock files and hidden upload staging files.
			if e.IsDir() || strings.HasPrefix(name, "~$") || strings.HasPrefix(name, ".") {
				continue
			}
			if strings.EqualFold(filepath.Ext(name), ".docx") {
				found = append(found, filepath.Join(a, name))
			}
		}
		sort.Strings(found)
		out = append(out, found...)
	}
	return out, nil
}
