package main

import (
	"context"
	"fmt"

	"modelvault/pkg/types"
	"modelvault/pkg/utils"

	"github.com/spf13/cobra"
)

func cleanupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Reclaim chunk storage for deprecated artifacts",
		Long:  `Deletes every chunk belonging to deprecated artifacts. Manifest records are kept as audit history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			ctx := context.Background()

			if dryRun {
				deprecated := types.StateDeprecated
				manifests, err := v.registry.List(ctx, &deprecated)
				if err != nil {
					return err
				}
				var chunks uint64
				for _, manifest := range manifests {
					chunks += uint64(len(manifest.Chunks))
					fmt.Printf("  %s: %d chunks, %s\n",
						manifest.ArtifactID, len(manifest.Chunks), utils.FormatDataSize(manifest.StoredSize()))
				}
				fmt.Printf("Dry run: %d chunks across %d deprecated artifacts would be removed\n",
					chunks, len(manifests))
				return nil
			}

			removed, err := v.registry.CleanupDeprecated(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d chunks\n", removed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", true, "Show what would be removed without deleting chunks")
	return cmd
}
