package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"pngkit/internal/processor"
	"pngkit/internal/tui"
)

var scanChunks bool

var scanCmd = &cobra.Command{
	Use:   "scan <path>",
	Short: "Check PNG files and report their structure without modifying them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, reports, err := runWithProgress("scan", args[0], processor.Options{Mode: processor.ModeScan})
		if err != nil {
			return err
		}

		for i, report := range reports {
			if i > 0 {
				fmt.Fprintln(os.Stdout)
			}
			printReport(report)
		}

		if len(reports) > 0 {
			fmt.Fprintln(os.Stdout)
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary([]tui.SummaryRow{
			{Label: "PNG files scanned", Value: strconv.Itoa(summary.Processed)},
			{Label: "Corrupt", Value: strconv.Itoa(summary.Corrupt)},
			{Label: "Unsupported", Value: strconv.Itoa(summary.Unsupported)},
			{Label: "Errors", Value: strconv.Itoa(summary.Errors)},
		}))
		return nil
	},
}

func printReport(report processor.ScanReport) {
	verdict := report.Verdict.String()
	verdictStyle := lipgloss.NewStyle().Bold(true).Foreground(tui.VerdictColor(verdict))
	fmt.Fprintf(os.Stdout, "%s %s\n", scanFileStyle.Render(report.Path), verdictStyle.Render("["+verdict+"]"))

	for _, detail := range report.Details {
		if len(detail.Values) == 0 {
			continue
		}
		fmt.Fprintf(os.Stdout, "  %s\n", scanCategoryStyle.Render(detail.Category+":"))
		for _, value := range detail.Values {
			fmt.Fprintf(os.Stdout, "    %s %s\n", scanBulletStyle.Render("-"), scanValueStyle.Render(value))
		}
	}

	if scanChunks && len(report.Chunks) > 0 {
		rows := make([][]string, 0, len(report.Chunks))
		for _, c := range report.Chunks {
			kind := "ancillary"
			if c.Critical {
				kind = "critical"
			}
			rows = append(rows, []string{c.Type, strconv.Itoa(c.Length), kind})
		}
		fmt.Fprintf(os.Stdout, "  %s\n", scanCategoryStyle.Render("Chunks:"))
		fmt.Fprintln(os.Stdout, indent(tui.RenderTable([]string{"Type", "Length", "Kind"}, rows), "    "))
	}

	if len(report.Insights) > 0 {
		fmt.Fprintf(os.Stdout, "  %s\n", scanCategoryStyle.Render("Insights:"))
		for _, insight := range report.Insights {
			fmt.Fprintf(os.Stdout, "    %s %s %s\n",
				scanBulletStyle.Render("-"),
				scanDimStyle.Render(insight.Kind+":"),
				scanValueStyle.Render(insight.Message),
			)
		}
	}
}

func indent(s, prefix string) string {
	return lipgloss.NewStyle().MarginLeft(len(prefix)).Render(s)
}

var (
	scanFileStyle     = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	scanCategoryStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	scanValueStyle    = lipgloss.NewStyle().Foreground(tui.ColorInk)
	scanDimStyle      = lipgloss.NewStyle().Foreground(tui.ColorDim)
	scanBulletStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	scanCmd.Flags().BoolVarP(&scanChunks, "chunks", "c", true, "list every chunk in each file")

	rootCmd.AddCommand(scanCmd)
}
