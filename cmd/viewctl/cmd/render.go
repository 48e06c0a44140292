package cmd

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"

	"github.com/jpfielding/dicomview.go/pkg/viewer"
	"github.com/spf13/cobra"
)

// NewRenderCmd renders one frame of a DICOM file to PNG
func NewRenderCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "render a DICOM frame to PNG",
		Long:  "decode a DICOM file, apply window/level, and write one frame as PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			frame, _ := cmd.Flags().GetInt("frame")
			center, _ := cmd.Flags().GetFloat64("center")
			width, _ := cmd.Flags().GetFloat64("width")

			data, err := readInput(in)
			if err != nil {
				return err
			}

			session := viewer.NewSession()
			if err := session.Load(data); err != nil {
				return fmt.Errorf("failed to load %s: %w", in, err)
			}
			if err := session.SetFrame(frame); err != nil {
				return err
			}
			if width != 0 {
				if err := session.SetWindow(center, width); err != nil {
					return err
				}
			}

			rendered, err := session.Render()
			if err != nil {
				return fmt.Errorf("failed to render frame %d: %w", frame, err)
			}
			slog.DebugContext(ctx, "rendered frame",
				"id", session.ID(),
				"frame", frame,
				"width", rendered.Width,
				"height", rendered.Height,
				"window", session.Window())

			img := &image.RGBA{
				Pix:    rendered.Pix,
				Stride: rendered.Width * 4,
				Rect:   image.Rect(0, 0, rendered.Width, rendered.Height),
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create output: %w", err)
			}
			defer f.Close()
			return png.Encode(f, img)
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "-", "DICOM file to read (- for stdin)")
	pf.StringP("out", "o", "out.png", "PNG file to write")
	pf.Int("frame", 0, "frame index to render")
	pf.Float64("center", 0, "window center override")
	pf.Float64("width", 0, "window width override (0 uses the dataset's window)")
	return cmd
}
