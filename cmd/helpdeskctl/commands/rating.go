package commands

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spec-kit/helpdesk-service/internal/cache"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

func newRatingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rating",
		Short: "Print the technician leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ratingService := service.NewRatingService(s.users, s.requests, cache.New(nil, config.CacheConfig{}, nil, s.logger), s.cfg.Rating.ResolutionTarget(), s.logger)
			ratings, err := ratingService.Ratings(cmd.Context())
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.Header("#", "Technician", "Closed", "Overdue", "High", "Score")
			for i, r := range ratings {
				row := []string{
					strconv.Itoa(i + 1),
					r.TechnicianName,
					strconv.Itoa(r.ClosedCount),
					strconv.Itoa(r.OverdueCount),
					strconv.Itoa(r.HighPriorityCount),
					strconv.Itoa(r.Score),
				}
				if err := table.Append(row); err != nil {
					return err
				}
			}
			return table.Render()
		},
	}
}
