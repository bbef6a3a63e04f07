package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/app"
	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
)

var ingestSkipHidden bool

// ingestCmd extracts a directory and prints the combined corpus
var ingestCmd = &cobra.Command{
	Use:   "ingest <dir>",
	Short: "Extract every supported document in a directory and print the corpus",
	Long: `Extract every supported document under <dir>, in path order, and print the
combined corpus text exactly as it would be sent to the model. Documents that
cannot be read are reported on stderr and skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestSkipHidden, "skip-hidden", true, "Skip hidden files and directories")
}

func runIngest(cmd *cobra.Command, args []string) error {
	docs, warnings, stats, err := ingest.LoadDirectory(args[0], ingestSkipHidden)
	if err != nil {
		return err
	}
	logger.Info("directory loaded", "root", args[0], "scanned", stats.Scanned, "matched", stats.Matched, "failed", stats.Failed)

	ing := ingest.NewIngestor(app.NewExtractor(cfg.Docs, logger), logger)
	corpus, more, err := ing.Ingest(cmd.Context(), docs)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), append(warnings, more...))

	_, err = fmt.Fprintln(cmd.OutOrStdout(), corpus.Text())
	return err
}

func printWarnings(w io.Writer, warnings []ingest.Warning) {
	for _, warn := range warnings {
		prefix := "warning"
		if warn.Skipped {
			prefix = "skipped"
		}
		fmt.Fprintf(w, "%s: %s: %s\n", prefix, warn.Name, warn.Message)
	}
}
