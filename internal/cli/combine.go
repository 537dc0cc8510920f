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

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/cobra"
)

func newCombineCmd(cfg *Config) *cobra.Command {
	var session string

	cmd := &cobra.Command{
		Use:   "combine [share-file...]",
		Short: "Reconstruct a secret from shares",
		Long: `Reconstruct an integer secret from share files or a stored session.

A share file holds one share, a JSON array of shares, or the JSON output of
split. Use "-" to read from stdin. Every supplied share is used, so shares
from different sessions or too few shares are rejected.`,
		Example: `  sss combine shares/share-1.json shares/share-3.json shares/share-4.json
  sss split 42 -n 3 -t 2 -o json | sss combine -
  sss combine --session 6f1c...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case session != "" && len(args) > 0:
				return fmt.Errorf("%w: use either share files or --session", validation.ErrMalformedInput)
			case session == "" && len(args) == 0:
				return fmt.Errorf("%w: no shares given", validation.ErrMalformedInput)
			}

			s, err := cfg.openService(session != "")
			if err != nil {
				return err
			}
			defer s.Close()

			var shares []shamir.Share
			if session != "" {
				shares, err = s.svc.LoadSession(cmd.Context(), session)
			} else {
				shares, err = loadShares(cfg.fs, cmd.InOrStdin(), args)
			}
			if err != nil {
				return err
			}

			secret, err := s.svc.Combine(cmd.Context(), shares)
			if err != nil {
				return err
			}
			return cfg.Printer().PrintSecret(secret.String(), len(shares))
		},
	}

	cmd.Flags().StringVar(&session, "session", "", "reconstruct a session from the share store")
	return cmd
}
