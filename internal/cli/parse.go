package cli

import (
	"bufio"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/edgard/chatstats/internal/app"
	"github.com/edgard/chatstats/internal/config"
	errs "github.com/edgard/chatstats/internal/errors"
)

// stdinName stands for standard input wherever a file path is expected.
const stdinName = "-"

func newParseCommand(s *state) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "parse [file] [marker]",
		Short: "Filter a chat export into a Date,Hour,Name CSV",
		Long: `parse keeps the messages of a chat export whose text contains the marker
and writes one CSV row per message. The file defaults to standard input and the
CSV goes to standard output unless -o is given.`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if err := s.setup(cmd, false); err != nil {
				return err
			}
			overrideMarker(s.cfg, args, 1)

			path := stdinName
			if len(args) > 0 {
				path = args[0]
			}

			var in io.Reader = cmd.InOrStdin()
			source := ""
			if path != stdinName {
				f, err := os.Open(path)
				if err != nil {
					return errs.NewIOError("failed to open chat log", err)
				}
				defer f.Close()
				in = f
				source = app.SourceName(path)
			}

			var out io.Writer = cmd.OutOrStdout()
			if output != "" && output != stdinName {
				f, err := os.Create(output)
				if err != nil {
					return errs.NewIOError("failed to create output file", err)
				}
				defer func() {
					if cerr := f.Close(); cerr != nil && err == nil {
						err = errs.NewIOError("failed to close output file", cerr)
					}
				}()
				out = f
			}

			bw := bufio.NewWriter(out)
			if _, err := s.app.Parse(cmd.Context(), bufio.NewReader(in), bw, source); err != nil {
				return err
			}
			if err := bw.Flush(); err != nil {
				return errs.NewIOError("failed to write csv", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the CSV to this file instead of standard output")
	cmd.Flags().BoolP("ignore-case", "i", config.DefaultCaseInsensitive, "match the marker case-insensitively")
	return cmd
}

// overrideMarker applies the marker given as positional argument idx, if any.
func overrideMarker(cfg *config.Config, args []string, idx int) {
	if len(args) > idx {
		cfg.Parse.Marker = args[idx]
	}
}
