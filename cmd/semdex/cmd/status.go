package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/semdex/internal/config"
	"github.com/Aman-CERP/semdex/internal/embed"
	"github.com/Aman-CERP/semdex/internal/store"
	"github.com/Aman-CERP/semdex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted index's root and size",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text, json")
	return cmd
}

func runStatus(cmd *cobra.Command, format string) error {
	render := ui.NewRenderer(cmd.OutOrStdout())

	st, err := store.Open(config.DefaultDataDir(), embed.StaticDimensions)
	if err != nil {
		// A running semdex holds the index lock; point at the prompt.
		render.Error(err)
		render.Info(`If semdex is running, use ":status" at its prompt instead.`)
		return err
	}
	defer st.Close()

	files, err := st.Catalog().Count()
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"root":            st.IndexedRoot(),
			"indexed_files":   files,
			"content_vectors": st.Content().Count(),
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Index root:    %s\n", st.IndexedRoot())
	fmt.Fprintf(cmd.OutOrStdout(), "Indexed files: %d\n", files)
	fmt.Fprintf(cmd.OutOrStdout(), "With content:  %d\n", st.Content().Count())
	return nil
}
