package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/chatstats/internal/config"
	errs "github.com/edgard/chatstats/internal/errors"
)

func newGraphCommand(s *state) *cobra.Command {
	var source string

	cmd := &cobra.Command{
		Use:   "graph [file.csv]",
		Short: "Draw hour and weekday charts from a Date,Hour,Name CSV",
		Long: `graph writes <name>-by-hour.png and <name>-by-weekday.png for every sender
found in the CSV (standard input by default). With --one-image the charts share
their scale and are also combined into all-by-hour.png and all-by-weekday.png.
With --source the records come from the archive instead of a CSV.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.setup(cmd, source != ""); err != nil {
				return err
			}

			var (
				charts []string
				err    error
			)
			switch {
			case source != "":
				if len(args) > 0 {
					return errs.NewValidationError("--source and a CSV file are mutually exclusive", nil)
				}
				charts, err = s.app.GraphSource(cmd.Context(), source)
			case len(args) == 0 || args[0] == stdinName:
				charts, err = s.app.GraphCSV(cmd.Context(), bufio.NewReader(cmd.InOrStdin()))
			default:
				var f *os.File
				if f, err = os.Open(args[0]); err != nil {
					return errs.NewIOError("failed to open csv", err)
				}
				defer f.Close()
				charts, err = s.app.GraphCSV(cmd.Context(), bufio.NewReader(f))
			}
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), charts)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "graph an archived source instead of a CSV")
	cmd.Flags().Bool("one-image", config.DefaultOneImage, "share the scale and combine all senders into one image per dimension")
	return cmd
}

func printPaths(w io.Writer, paths []string) error {
	for _, p := range paths {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return errs.NewIOError("failed to write output", err)
		}
	}
	return nil
}
