package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/repository"
)

func newExportCommand() *cobra.Command {
	var (
		output     string
		statusID   int64
		categoryID int64
		search     string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write requests as semicolon separated CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			filter := repository.RequestFilter{}
			if statusID > 0 {
				filter.StatusID = &statusID
			}
			if categoryID > 0 {
				filter.CategoryID = &categoryID
			}
			if search != "" {
				filter.Search = &search
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}

			n, err := s.requestService().Export(cmd.Context(), w, filter)
			if err != nil {
				return err
			}
			if w != cmd.OutOrStdout() {
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d requests to %s\n", n, output)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "-", "Destination file, - for stdout")
	cmd.Flags().Int64Var(&statusID, "status-id", 0, "Only requests with this status")
	cmd.Flags().Int64Var(&categoryID, "category-id", 0, "Only requests in this category")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive title/description match")
	return cmd
}
