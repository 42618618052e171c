package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pngkit/internal/logging"
	"pngkit/pkg/png"
)

var (
	checkerWidth  int
	checkerHeight int
	checkerCells  int
)

var checkerCmd = &cobra.Command{
	Use:   "checker [flags] <out.png>",
	Short: "Write a black and white checkerboard test image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := checkerboard(checkerWidth, checkerHeight, checkerCells)
		if err != nil {
			return err
		}
		if err := cfg.Encoder(logging.GlobalLogger()).WriteFile(args[0], m, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %dx%d checkerboard to %s\n", m.Width, m.Height, args[0])
		return nil
	},
}

// checkerboard alternates opaque black and white squares, cells squares
// across the width.
func checkerboard(width, height, cells int) (*png.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("checkerboard size must be positive, got %dx%d", width, height)
	}
	if cells <= 0 || cells > width {
		return nil, fmt.Errorf("--cells must be between 1 and the width (%d), got %d", width, cells)
	}
	size := width / cells

	pixels := make([]uint32, 0, width*height)
	for y := 0; y < height; y++ {
		yBit := (y / size) % 2
		for x := 0; x < width; x++ {
			if ((x/size)%2)^yBit == 1 {
				pixels = append(pixels, 0xffffffff)
			} else {
				pixels = append(pixels, 0xff000000)
			}
		}
	}
	return png.FromARGB(pixels, width, height)
}

func init() {
	checkerCmd.Flags().IntVar(&checkerWidth, "width", 100, "image width in pixels")
	checkerCmd.Flags().IntVar(&checkerHeight, "height", 100, "image height in pixels")
	checkerCmd.Flags().IntVar(&checkerCells, "cells", 10, "number of squares across the width")

	rootCmd.AddCommand(checkerCmd)
}
