package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pngkit/internal/config"
	"pngkit/internal/logging"
	"pngkit/internal/processor"
	"pngkit/internal/tui"
	"pngkit/pkg/png"
)

var (
	cfg = config.Default()

	flagLogLevel    string
	flagWorkers     int
	flagCompression string
	flagFilter      string
	flagIDATSize    int
)

var rootCmd = &cobra.Command{
	Use:          "pngkit",
	Short:        "pngkit - decode, verify and normalize PNG images",
	Long:         "pngkit reads PNG images of any color type and bit depth, reports on their structure, and rewrites them as 8-bit RGBA.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		cfg = c
		logging.Setup(os.Stderr, cfg.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagLogLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	flags.IntVar(&flagWorkers, "workers", cfg.Workers, "number of files processed in parallel")
	flags.StringVar(&flagCompression, "compression", "default", "zlib level for written files (default, none, speed, best)")
	flags.StringVar(&flagFilter, "filter", "adaptive", "scanline filter for written files (adaptive, none, sub, up, average, paeth)")
	flags.IntVar(&flagIDATSize, "idat-size", png.DefaultMaxIDATSize, "maximum IDAT chunk payload in bytes")
}

// loadConfig layers PNGKIT_* environment variables over the defaults, then
// any flags given on the command line over both.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	c, err := config.FromEnv(config.Default())
	if err != nil {
		return c, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		if c.LogLevel, err = config.ParseLogLevel(flagLogLevel); err != nil {
			return c, fmt.Errorf("--log-level: %w", err)
		}
	}
	if flags.Changed("workers") {
		c.Workers = flagWorkers
	}
	if flags.Changed("compression") {
		if c.Compression, err = png.ParseCompressionLevel(flagCompression); err != nil {
			return c, fmt.Errorf("--compression: %w", err)
		}
	}
	if flags.Changed("filter") {
		if c.Filter, err = png.ParseFilterStrategy(flagFilter); err != nil {
			return c, fmt.Errorf("--filter: %w", err)
		}
	}
	if flags.Changed("idat-size") {
		c.MaxIDATSize = flagIDATSize
	}
	return c, c.Validate()
}

// runWithProgress runs the processor while a progress view draws on the terminal.
func runWithProgress(title, path string, opts processor.Options) (processor.Summary, []processor.ScanReport, error) {
	logger := logging.With().Str("command", title).Logger()
	opts.Workers = cfg.Workers
	opts.Logger = &logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	model := tui.NewModel(title, updates)
	program := tea.NewProgram(model)

	uiDone := make(chan struct{})
	go func() {
		if _, err := program.Run(); err != nil {
			logger.Debug().Err(err).Msg("progress view stopped")
		}
		close(uiDone)
	}()
	go drainAfter(uiDone, cancel, updates)

	summary, reports, err := processor.Run(ctx, path, opts, updates)
	close(updates)
	<-uiDone
	if err == nil && ctx.Err() != nil {
		err = fmt.Errorf("%s interrupted: %w", title, ctx.Err())
	}
	return summary, reports, err
}

// drainAfter stops the run once the progress view has exited and discards
// the updates nobody is drawing anymore.
func drainAfter(uiDone <-chan struct{}, cancel context.CancelFunc, updates <-chan processor.ProgressUpdate) {
	<-uiDone
	cancel()
	for range updates {
	}
}
