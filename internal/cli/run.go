package cli

import (
	"github.com/spf13/cobra"

	"github.com/edgard/chatstats/internal/config"
)

func newRunCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.txt> [marker]",
		Short: "Parse a chat export next to it as CSV, then chart it",
		Long: `run chains parse and graph: file.txt is filtered into file.csv (".csv" is
appended when the file has no .txt extension) and the charts are drawn from
that CSV.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.setup(cmd, false); err != nil {
				return err
			}
			overrideMarker(s.cfg, args, 1)

			csvPath, charts, err := s.app.Run(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printPaths(cmd.OutOrStdout(), append([]string{csvPath}, charts...))
		},
	}

	cmd.Flags().BoolP("ignore-case", "i", config.DefaultCaseInsensitive, "match the marker case-insensitively")
	cmd.Flags().Bool("one-image", config.DefaultOneImage, "share the scale and combine all senders into one image per dimension")
	return cmd
}
