package cmd

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/pipeline"
	"github.com/Aman-CERP/semdex/internal/progress"
	"github.com/Aman-CERP/semdex/internal/search"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/ui"
)

// runServe indexes root and enters the interactive prompt. Indexing
// keeps running in the background while queries are answered.
func runServe(ctx context.Context, cmd *cobra.Command, root string) error {
	render := ui.NewRenderer(cmd.OutOrStdout())

	cfg, err := config.Load(root)
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

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracker := progress.NewTracker()
	pipe := pipeline.New(cfg, st, embedder, tracker, slog.Default())
	if err := pipe.Start(ctx, root); err != nil {
		render.Error(err)
		return err
	}
	defer pipe.Stop()

	ranker := search.NewRanker(st, embedder, cfg.Search)
	executor := search.NewExecutor(ranker, cfg.SearchTimeout(), slog.Default())

	render.Info(fmt.Sprintf("Indexing %s in the background.", pipe.Root()))
	render.Info(`Type a query to search, ":status" for progress, ":root <dir>" to switch, ":quit" to exit.`)
	render.Rule()

	return promptLoop(ctx, cmd, render, pipe, executor, cfg.Search.MaxResults)
}

// promptLoop reads queries and commands from stdin until EOF, :quit,
// or ctx cancellation.
func promptLoop(ctx context.Context, cmd *cobra.Command, render *ui.Renderer, pipe *pipeline.Pipeline, executor *search.Executor, limit int) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(cmd.InOrStdin())
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		fmt.Fprint(cmd.OutOrStdout(), "> ")
		select {
		case <-ctx.Done():
			render.Info("\nShutting down, finishing in-flight work.")
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			switch {
			case line == "":
				continue
			case line == ":quit" || line == ":q" || line == ":exit":
				return nil
			case line == ":status":
				render.Status(pipe.Status())
			case strings.HasPrefix(line, ":root "):
				newRoot := strings.TrimSpace(strings.TrimPrefix(line, ":root "))
				if err := pipe.SetRoot(newRoot); err != nil {
					render.Error(err)
					continue
				}
				render.Info("Index reset; now indexing " + pipe.Root())
			case strings.HasPrefix(line, ":"):
				render.Info("Unknown command " + line)
			default:
				results, err := executor.Search(ctx, line, limit)
				if err != nil {
					render.Error(err)
					continue
				}
				render.Results(line, results)
			}
		}
	}
}
