package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/interview-matrix/internal/ingest"
	"github.com/joseph-ayodele/interview-matrix/internal/matrix"
)

var (
	runWorkflow   string
	runOut        string
	runSkipHidden bool
	runShowRaw    bool
	runQuiet      bool
)

// runCmd runs a whole workflow over a directory and writes the workbook
var runCmd = &cobra.Command{
	Use:   "run <dir>",
	Short: "Run a workflow over a directory of documents and write the workbook",
	Long: `Ingest every supported document under <dir>, run each step of the workflow in
order (each step after the first receives the previous table), print the tables
and write the Excel workbook.

The output defaults to the workflow file name in the parent directory of <dir>.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowCmd,
}

func init() {
	runCmd.Flags().StringVarP(&runWorkflow, "workflow", "w", matrix.WorkflowDiagnosticPUO,
		"Workflow: "+strings.Join(matrix.WorkflowNames(), ", "))
	runCmd.Flags().StringVarP(&runOut, "out", "o", "", "Output .xlsx path")
	runCmd.Flags().BoolVar(&runSkipHidden, "skip-hidden", true, "Skip hidden files and directories")
	runCmd.Flags().BoolVar(&runShowRaw, "raw", false, "Print the raw model reply of each step")
	runCmd.Flags().BoolVarP(&runQuiet, "quiet", "q", false, "Do not print the tables")
}

func runWorkflowCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	wf, err := matrix.WorkflowByName(runWorkflow)
	if err != nil {
		return err
	}
	out := runOut
	if out == "" {
		out = filepath.Join(filepath.Dir(filepath.Clean(args[0])), wf.FileName)
	}

	docs, warnings, _, err := ingest.LoadDirectory(args[0], runSkipHidden)
	if err != nil {
		return err
	}
	printWarnings(cmd.ErrOrStderr(), warnings)

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	sess, err := a.Service.CreateSession(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Service.DeleteSession(ctx, sess.ID); err != nil {
			logger.Warn("session cleanup failed", "session_id", sess.ID, "error", err)
		}
	}()

	res, err := a.Service.Ingest(ctx, sess.ID, docs)
	printWarnings(cmd.ErrOrStderr(), res.Warnings)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "ingested %d documents (%d images, %d chars)\n", res.Documents, res.Images, res.Chars)

	for _, step := range wf.Steps {
		r, err := a.Service.RunStep(ctx, sess.ID, wf.Name, step.Kind, "")
		if runShowRaw && r.Raw != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "--- %s raw reply ---\n%s\n", step.Sheet, r.Raw)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", step.Sheet, err)
		}
		if !runQuiet {
			fmt.Fprintf(cmd.OutOrStdout(), "== %s (%d rows) ==\n", r.Sheet, r.Table.Len())
			renderTable(cmd.OutOrStdout(), r.Table)
		}
	}

	exp, err := a.Service.Export(ctx, sess.ID, wf.Name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(out, exp.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	logger.Info("workbook written", "path", out, "sheets", strings.Join(exp.Sheets, ","), "bytes", len(exp.Data))
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func renderTable(w io.Writer, t matrix.Table) {
	if len(t.Columns) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	var buf bytes.Buffer
	tw := tablewriter.NewWriter(&buf)
	tw.SetHeader(t.Columns)
	tw.SetAutoFormatHeaders(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range t.Rows {
		line := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			line[i] = r[c]
		}
		tw.Append(line)
	}
	tw.Render()
	_, _ = w.Write(buf.Bytes())
}
