package cmd

import (
	"fmt"
	"log/slog"
	"os"

	md "github.com/jcdickinson/apiperms/internal/markdown"
	"github.com/spf13/cobra"
)

var reportCmd = &cobra.Command{
	Use:   "report <methods_f> <perms_f>",
	Short: "Write a Markdown or HTML report of the model",
	Example: `  apiperms report methods.csv permissions.csv > report.md
  apiperms report --html -o report.html methods.csv permissions.csv
  apiperms report --toc methods.csv permissions.csv`,
	Args: cobra.ExactArgs(2),
	Run:  runReport,
}

var (
	reportHTML   bool
	reportTOC    bool
	reportOutput string
)

func init() {
	reportCmd.Flags().BoolVar(&reportHTML, "html", false, "render HTML instead of Markdown")
	reportCmd.Flags().BoolVar(&reportTOC, "toc", false, "print only the table of contents")
	reportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "write to file instead of stdout")
}

func runReport(cmd *cobra.Command, args []string) {
	m := loadModel(args)

	out := md.Report(m)
	if reportTOC {
		out = md.TOC(out)
	} else if reportHTML || (!cmd.Flags().Changed("html") && cfg.Report.HTML) {
		out = md.ToHTML(out)
	}

	if reportOutput == "" {
		fmt.Print(out)
		return
	}
	if err := os.WriteFile(reportOutput, []byte(out), 0644); err != nil {
		slog.Error("failed to write report", "path", reportOutput, "error", err)
		os.Exit(1)
	}
	slog.Info("report written", "path", reportOutput)
}
