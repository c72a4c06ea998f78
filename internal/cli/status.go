package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/go-listings-backend/internal/domain"
	"github.com/tbourn/go-listings-backend/internal/repo"
)

func newSetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <listing-id> <status>",
		Short: "Move a listing to another status",
		Long: `Move a listing to draft, pending, published, rejected or archived. Only
published listings are eligible for the rotation; a running server picks the
change up on its next rotation (or after POST /admin/rotation/force).`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			status, err := domain.ParseStatus(args[1])
			if err != nil {
				return fmt.Errorf("status %q: %w", args[1], err)
			}

			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			l, err := repo.GetListing(cmd.Context(), a.db, id)
			if errors.Is(err, repo.ErrNotFound) {
				return fmt.Errorf("listing %s not found", id)
			}
			if err != nil {
				return fmt.Errorf("get listing %s: %w", id, err)
			}
			if l.Status == status {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already %s\n", id, status)
				return nil
			}
			if err := repo.UpdateListingStatus(cmd.Context(), a.db, id, status); err != nil {
				return fmt.Errorf("update listing %s: %w", id, err)
			}
			log.Info().Str("listing_id", id).Str("from", string(l.Status)).Str("to", string(status)).Msg("listing status changed")
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", id, l.Status, status)
			return nil
		},
	}
}
