package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	errs "github.com/edgard/chatstats/internal/errors"
)

func newDBCommand(s *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Inspect and maintain the archive of parsed exports",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List archived sources",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := s.setup(cmd, true); err != nil {
					return err
				}
				imports, err := s.store.ListImports(cmd.Context())
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SOURCE\tMARKER\tIGNORE CASE\tLINES\tRECORDS\tIMPORTED")
				for _, imp := range imports {
					fmt.Fprintf(tw, "%s\t%s\t%t\t%d\t%d\t%s\n",
						imp.Source, imp.Marker, imp.CaseInsensitive, imp.LinesRead, imp.RecordCount,
						imp.ImportedAt.Local().Format(time.DateTime))
				}
				if err := tw.Flush(); err != nil {
					return errs.NewIOError("failed to write output", err)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete <source>",
			Short: "Remove an archived source and its records",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := s.setup(cmd, true); err != nil {
					return err
				}
				found, err := s.store.DeleteImport(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !found {
					return errs.NewValidationError(fmt.Sprintf("source %q is not archived", args[0]), nil)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "vacuum",
			Short: "Compact the archive file",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := s.setup(cmd, true); err != nil {
					return err
				}
				return s.store.RunSQLMaintenance(cmd.Context())
			},
		},
	)
	return cmd
}
