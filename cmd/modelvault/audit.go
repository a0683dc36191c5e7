package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func auditCmd() *cobra.Command {
	var tail int

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Print the audit ledger",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			events, err := v.registry.AuditLog(context.Background())
			if err != nil {
				return err
			}

			if tail > 0 && len(events) > tail {
				events = events[len(events)-tail:]
			}
			for _, event := range events {
				fmt.Printf("%s  %-12s  %-20s  %-20s  %s\n",
					event.Timestamp.Format("2006-01-02 15:04:05"),
					event.Type, event.ArtifactID, event.Actor, event.Details)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&tail, "tail", 0, "Show only the last N events")
	return cmd
}

func uploaderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "uploader",
		Short: "Manage the authorized uploader list",
	}

	var actor string

	addCmd := &cobra.Command{
		Use:   "add [name]",
		Short: "Add an authorized uploader",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			ctx := context.Background()
			if actor == "" {
				// No acting identity given: only valid for bootstrap.
				return v.registry.SeedUploader(ctx, args[0])
			}
			return v.registry.AddAuthorizedUploader(ctx, args[0], actor)
		},
	}
	addCmd.Flags().StringVar(&actor, "as", "", "Acting uploader identity (omit to bootstrap an empty list)")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List authorized uploaders",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			uploaders, err := v.registry.AuthorizedUploaders(context.Background())
			if err != nil {
				return err
			}
			for _, uploader := range uploaders {
				fmt.Println(uploader)
			}
			return nil
		},
	}

	cmd.AddCommand(addCmd, listCmd)
	return cmd
}
