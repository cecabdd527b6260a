package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/search"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/ui"
)

// searchOptions holds CLI flags for one-shot search.
type searchOptions struct {
	limit  int
	format string // "text", "json"
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the existing index without starting the watcher",
		Long: `Search the persisted index and exit.

The index must have been built by a previous 'semdex' run. Results
blend a metadata score (file name, path, type) with a content score,
content weighted higher.

Examples:
  semdex search "quarterly budget"
  semdex search "cat photos" --limit 5
  semdex search "meeting notes" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			return runSearch(cmd.Context(), cmd, query, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 10, "Maximum number of results")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(ctx context.Context, cmd *cobra.Command, query string, opts searchOptions) error {
	render := ui.NewRenderer(cmd.OutOrStdout())

	cfg, err := config.Load(".")
	if err != nil {
		return err
	}

	embedder := embed.NewStaticEmbedder()
	defer embedder.Close()

	st, err := store.Open(config.DefaultDataDir(), embedder.Dimensions())
	if err != nil {
		render.Error(err)
		return err
	}
	defer st.Close()

	slog.Info("search started", slog.String("query", query), slog.Int("limit", opts.limit))

	ranker := search.NewRanker(st, embedder, cfg.Search)
	executor := search.NewExecutor(ranker, cfg.SearchTimeout(), slog.Default())
	results, err := executor.Search(ctx, query, opts.limit)
	if err != nil {
		render.Error(err)
		return err
	}

	if opts.format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	render.Results(query, results)
	if root := st.IndexedRoot(); root != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nIndex root: %s\n", root)
	}
	return nil
}
