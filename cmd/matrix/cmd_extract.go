package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/app"
	"github.com/joseph-ayodele/interview-matrix/internal/document"
)

// extractCmd runs the extractor on one file, for checking OCR and tool setup
var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "Extract a single document and print its text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc := document.NewSourceDocument(filepath.Base(args[0]), data)

		start := time.Now()
		res, err := app.NewExtractor(cfg.Docs, logger).Extract(cmd.Context(), doc)
		if err != nil {
			logger.Error("text extraction failed", "file", args[0], "error", err,
				"duration_ms", time.Since(start).Milliseconds())
			return err
		}
		logger.Info("text extraction OK",
			"format", res.Format,
			"method", res.Method,
			"pages", res.Pages,
			"bytes", len(res.Text),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		for _, w := range res.Warnings {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", w)
		}
		if res.Image != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "[image %s, %d bytes, %dx%d]\n", res.Image.MIMEType, len(res.Image.Data), res.Image.Width, res.Image.Height)
			return nil
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Text)
		return err
	},
}
