package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/repo"
)

func newSeedCmd() *cobra.Command {
	var (
		featured, standard int
		statusFlag         string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert demo listings for local development",
		Long: `Insert demo listings. They are published by default; --status seeds
drafts, archived or other rows that the rotation must never show.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if featured < 0 || standard < 0 {
				return fmt.Errorf("--featured and --standard must be >= 0")
			}
			status, err := domain.ParseStatus(statusFlag)
			if err != nil {
				return fmt.Errorf("--status %q: %w", statusFlag, err)
			}
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			now := time.Now().UTC()
			for i := 0; i < featured+standard; i++ {
				l := &domain.Listing{
					Title:     fmt.Sprintf("Demo listing %d", i+1),
					Price:     float64(50 * (i + 1)),
					Location:  "Athens",
					Featured:  i < featured,
					Status:    status,
					CreatedAt: now.Add(-time.Duration(i) * time.Minute),
				}
				if err := repo.CreateListing(cmd.Context(), a.db, l); err != nil {
					return fmt.Errorf("seed listing %d: %w", i+1, err)
				}
			}
			n, err := repo.CountPublished(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			log.Info().Int("featured", featured).Int("standard", standard).Str("status", string(status)).Int64("published", n).Msg("seeded listings")
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d %s listings (%d published in total)\n", featured+standard, status, n)
			return nil
		},
	}
	cmd.Flags().IntVar(&featured, "featured", 5, "number of featured listings")
	cmd.Flags().IntVar(&standard, "standard", 20, "number of standard listings")
	cmd.Flags().StringVar(&statusFlag, "status", string(domain.StatusPublished), "status of the inserted listings (draft|pending|published|rejected|archived)")
	return cmd
}
