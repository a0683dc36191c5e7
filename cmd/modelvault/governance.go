package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"modelvault/pkg/governance"
	"modelvault/pkg/types"

	"github.com/spf13/cobra"
)

func governanceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "governance",
		Short: "Create, vote on and tally governance proposals",
	}
	cmd.AddCommand(proposeCmd(), voteCmd(), tallyCmd(), executeCmd(), proposalsCmd(), voterCmd())
	return cmd
}

func voterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voter",
		Short: "Manage the voter roll",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add [identity]",
		Short: "Add an identity to the voter roll",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			return v.governance.AddAuthorizedVoter(context.Background(), args[0])
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the voter roll",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			voters, err := v.governance.Voters(context.Background())
			if err != nil {
				return err
			}
			for _, voter := range voters {
				fmt.Println(voter)
			}
			return nil
		},
	})

	return cmd
}

func proposeCmd() *cobra.Command {
	var (
		proposalType string
		description  string
		proposer     string
	)

	cmd := &cobra.Command{
		Use:   "propose [artifact-id]",
		Short: "Open a new proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			id, err := v.governance.CreateProposal(context.Background(),
				governance.ProposalType(proposalType), types.ArtifactID(args[0]),
				proposer, description, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Proposal %d created\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&proposalType, "type", string(governance.ProposalActivateArtifact), "Proposal type")
	cmd.Flags().StringVar(&description, "description", "", "Proposal description")
	cmd.Flags().StringVar(&proposer, "as", "", "Proposing voter identity")
	cmd.MarkFlagRequired("as")
	return cmd
}

func voteCmd() *cobra.Command {
	var (
		voter  string
		choice string
	)

	cmd := &cobra.Command{
		Use:   "vote [proposal-id]",
		Short: "Cast or change a vote on an open proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[0], err)
			}

			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			return v.governance.CastVote(context.Background(), proposalID,
				voter, governance.Vote(choice), time.Now())
		},
	}

	cmd.Flags().StringVar(&voter, "as", "", "Voting identity")
	cmd.Flags().StringVar(&choice, "choice", string(governance.VoteYes), "yes, no or abstain")
	cmd.MarkFlagRequired("as")
	return cmd
}

func tallyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tally [proposal-id]",
		Short: "Decide an expired proposal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[0], err)
			}

			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			status, err := v.governance.Tally(context.Background(), proposalID, time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Proposal %d: %s\n", proposalID, status)
			return nil
		},
	}
}

func executeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "execute [proposal-id]",
		Short: "Mark a passed proposal as carried out",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			proposalID, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid proposal id %q: %w", args[0], err)
			}

			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			return v.governance.Execute(context.Background(), proposalID)
		},
	}
}

func proposalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proposals",
		Short: "List all proposals",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger(verbose)
			defer logger.Sync()

			v, err := openVault(logger)
			if err != nil {
				return err
			}
			defer v.close()

			proposals, err := v.governance.ListProposals(context.Background())
			if err != nil {
				return err
			}
			for _, proposal := range proposals {
				fmt.Printf("%4d  %-20s  %-20s  %-8s  %d votes, deadline %s\n",
					proposal.ID, proposal.Type, proposal.ArtifactID, proposal.Status,
					len(proposal.Votes), proposal.VotingDeadline.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
