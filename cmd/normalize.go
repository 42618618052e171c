package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"pngkit/internal/logging"
	"pngkit/internal/processor"
	"pngkit/internal/tui"
)

var (
	normalizeInPlace   bool
	normalizeOutputDir string
	normalizeConvert   bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize [flags] <path>",
	Short: "Rewrite PNG files as non-interlaced 8-bit RGBA",
	Long: "normalize decodes every PNG under <path> and writes it back as 8-bit RGBA. " +
		"Ancillary chunks such as text and EXIF are not carried over. " +
		"With --convert, JPEG, GIF, BMP, TIFF and WebP files are converted to PNG as well.",
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		if normalizeInPlace && normalizeOutputDir != "" {
			return fmt.Errorf("--inplace cannot be used with --output")
		}

		outputDir := normalizeOutputDir
		if !normalizeInPlace && outputDir == "" {
			outputDir = "normalized"
		}

		if !normalizeInPlace {
			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return err
			}
		}

		summary, _, err := runWithProgress("normalize", path, processor.Options{
			Mode:      processor.ModeNormalize,
			InPlace:   normalizeInPlace,
			OutputDir: outputDir,
			Convert:   normalizeConvert,
			Encoder:   cfg.Encoder(logging.GlobalLogger()),
		})
		if err != nil {
			return err
		}

		rows := []tui.SummaryRow{
			{Label: "Files normalized", Value: strconv.Itoa(summary.Processed - summary.Errors)},
			{Label: "Converted to PNG", Value: strconv.Itoa(summary.Converted)},
			{Label: "Errors", Value: strconv.Itoa(summary.Errors)},
			{Label: "Bytes read", Value: tui.FormatBytes(summary.BytesIn)},
			{Label: "Bytes written", Value: tui.FormatBytes(summary.BytesOut)},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		if normalizeInPlace {
			fmt.Fprintln(os.Stdout, "In-place normalize complete.")
		} else {
			outPath := outputDir
			if abs, absErr := filepath.Abs(outputDir); absErr == nil {
				outPath = abs
			}
			fmt.Fprintf(os.Stdout, "Normalized files written to: %s\n", outPath)
			fmt.Fprintln(os.Stdout, "Note: originals are unchanged unless --inplace is used.")
		}

		return nil
	},
}

func init() {
	normalizeCmd.Flags().BoolVarP(&normalizeInPlace, "inplace", "i", false, "rewrite files in place")
	normalizeCmd.Flags().StringVarP(&normalizeOutputDir, "output", "o", "", "destination folder for normalized copies")
	normalizeCmd.Flags().BoolVar(&normalizeConvert, "convert", false, "also convert JPEG, GIF, BMP, TIFF and WebP files to PNG")

	rootCmd.AddCommand(normalizeCmd)
}
