// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.


package cli

import (
	"fmt"

	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/cobra"
)

func newSessionsCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "Manage share sets in the share store",
		Long: `List, show and delete share sets persisted with "split --store".
The store directory is set with --share-dir, SSS_SHARE_DIR or the
storage section of the config file.`,
	}
	cmd.AddCommand(
		newSessionsListCmd(cfg),
		newSessionsShowCmd(cfg),
		newSessionsDeleteCmd(cfg),
	)
	return cmd
}

func newSessionsListCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := cfg.openService(true)
			if err != nil {
				return err
			}
			defer s.Close()

			infos, err := s.svc.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			return cfg.Printer().PrintSessions(infos)
		},
	}
}

func newSessionsShowCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session>",
		Short: "Print the shares of a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateSessionID(args[0]); err != nil {
				return err
			}
			s, err := cfg.openService(true)
			if err != nil {
				return err
			}
			defer s.Close()

			shares, err := s.svc.LoadSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			set := ShareSet{Session: args[0], Shares: shares}
			if len(shares) > 0 {
				set.Threshold = shares[0].Threshold
				set.Total = shares[0].Total
			}
			return cfg.Printer().PrintShares(set)
		},
	}
}

func newSessionsDeleteCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session>",
		Short: "Delete a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateSessionID(args[0]); err != nil {
				return err
			}
			s, err := cfg.openService(true)
			if err != nil {
				return err
			}
			defer s.Close()

			n, err := s.svc.DeleteSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return cfg.Printer().PrintSuccess(fmt.Sprintf("Deleted session %s (%d shares)", args[0], n))
		},
	}
}
