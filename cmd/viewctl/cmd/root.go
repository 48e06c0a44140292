package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jpfielding/dicomview.go/pkg/dicom"
	"github.com/jpfielding/dicomview.go/pkg/logging"
	"github.com/spf13/cobra"
)

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "viewctl",
		Short: "a CLI to inspect and render DICOM files",
		Long:  "viewctl decodes DICOM datasets and renders windowed frames to PNG",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logLevel, _ := cmd.Flags().GetString("log-level")
			logJSON, _ := cmd.Flags().GetBool("log-json")
			logFile, _ := cmd.Flags().GetString("log-file")

			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				level = slog.LevelInfo
			}
			out := io.Writer(os.Stderr)
			if logFile != "" {
				out = logging.Rotating(logFile)
			}
			slog.SetDefault(logging.Logger(out, logJSON, level))
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewInfoCmd(ctx),
		NewRenderCmd(ctx),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "INFO", "Log level (DEBUG, INFO, WARN, ERROR)")
	pf.Bool("log-json", false, "Log as JSON")
	pf.String("log-file", "", "Log to a rotated file instead of stderr")
	return cmd
}

func printCommandTree(cmd *cobra.Command, indent int) {
	fmt.Println(strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(gitsha)
		},
	}
	return cmd
}

// NewInfoCmd dumps a dataset's elements as text or JSON
func NewInfoCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "info",
		Short: "dump a DICOM dataset",
		Long:  "parse a DICOM file and print its elements",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("in")
			data, err := readInput(path)
			if err != nil {
				return err
			}
			ds, err := dicom.Parse(data)
			if err != nil {
				return fmt.Errorf("failed to parse %s: %w", path, err)
			}
			slog.DebugContext(ctx, "parsed dataset",
				"id", dicom.Fingerprint(ds),
				"elements", ds.Len(),
				"syntax", ds.TransferSyntax.Name())
			result := dicom.Validate(ds, dicom.ViewerRequirements)
			for _, v := range result.Errors {
				slog.WarnContext(ctx, "validation", "finding", v.Error())
			}
			for _, v := range result.Warnings {
				slog.InfoContext(ctx, "validation", "finding", v.Error())
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				fmt.Println(ds)
			default:
				j, err := json.Marshal(ds)
				if err != nil {
					return err
				}
				os.Stdout.Write(j)
			}
			return nil
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringP("in", "i", "-", "DICOM file to read (- for stdin)")
	pf.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(strings.TrimPrefix(path, "file://"))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return data, nil
}
