package cli

import (
	"fmt"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/repo"
)

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show listing inventory statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			st, err := repo.Stats(cmd.Context(), a.db)
			if err != nil {
				return fmt.Errorf("listing stats: %w", err)
			}
			rc := a.cfg.Rotation

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			statuses := make([]domain.ListingStatus, 0, len(st.ByStatus))
			for s := range st.ByStatus {
				statuses = append(statuses, s)
			}
			sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })
			for _, s := range statuses {
				fmt.Fprintf(w, "%s\t%d\n", s, st.ByStatus[s])
			}
			fmt.Fprintf(w, "published featured\t%d\n", st.PublishedFeatured)
			fmt.Fprintf(w, "published standard\t%d\n", st.Published-st.PublishedFeatured)
			latest := "-"
			if st.LatestPublishedAt != nil {
				latest = st.LatestPublishedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "latest published\t%s\n", latest)
			fmt.Fprintf(w, "rotation tiers\t%d featured / %d hot / %d regular every %s\n",
				rc.FeaturedSize, rc.HotSize, rc.RegularSize, rc.TTL)
			return w.Flush()
		},
	}
}
