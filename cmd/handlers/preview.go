package handlers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"inboxbrief/internal/logger"
	"inboxbrief/internal/render"
)

// NewPreviewCmd creates the preview command
func NewPreviewCmd() *cobra.Command {
	previewCmd := &cobra.Command{
		Use:   "preview [file]",
		Short: "Render summary markdown the way the brief will show it",
		Long: `Parse a file of summary markdown (bullets and **bold** spans) and print it
with the same segments and styles the brief uses. Reads stdin when no file
is given.`,
		Args: cobra.MaximumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			title, _ := cmd.Flags().GetString("title")
			if err := runPreview(cmd.Context(), args, title, cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				logger.Error("Failed to render preview", err)
				os.Exit(1)
			}
		},
	}

	previewCmd.Flags().String("title", "", "Heading shown above the text (defaults to the file name)")
	return previewCmd
}

func runPreview(ctx context.Context, args []string, title string, in io.Reader, out io.Writer) error {
	var (
		data []byte
		err  error
	)
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		if title == "" {
			title = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
		}
	} else {
		data, err = io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
	}

	doc := render.Preview(time.Now(), title, string(data))
	if doc.Empty {
		fmt.Fprintln(out, "Nothing to preview")
		return nil
	}

	return render.NewTerminalSink(out).Write(ctx, doc)
}
