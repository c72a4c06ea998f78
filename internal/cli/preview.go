package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newPreviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "preview",
		Short: "Compute one rotation from the configured database and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			rot, err := a.rotationService().GetRotatedListings(cmd.Context())
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(rot, "", "  ")
			if err != nil {
				return fmt.Errorf("encode rotation: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}
