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

	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/cobra"
)

func newSplitCmd(cfg *Config) *cobra.Command {
	var (
		shares    int
		threshold int
		xMode     string
		outDir    string
		store     bool
	)

	cmd := &cobra.Command{
		Use:   "split <secret>",
		Short: "Split an integer secret into shares",
		Long: `Split an integer secret into n shares, any t of which reconstruct it.

The secret is decimal, or hex/octal/binary with a 0x/0o/0b prefix, and may
be negative. It must fit the signed window of the field.`,
		Example: `  sss split 1234 -n 5 -t 3
  sss split 0xdeadbeef -n 3 -t 2 --out ./shares -o json
  sss split 42 -n 5 -t 3 --store --share-dir /var/lib/sss`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := validation.ParseInteger(args[0])
			if err != nil {
				return err
			}
			if err := validation.ValidateCount("shares", shares); err != nil {
				return err
			}
			if err := validation.ValidateCount("threshold", threshold); err != nil {
				return err
			}
			var mode shamir.XMode
			if xMode != "" {
				if mode, err = shamir.ParseXMode(xMode); err != nil {
					return err
				}
			}

			s, err := cfg.openService(store)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.svc.Split(cmd.Context(), service.SplitRequest{
				Secret:    secret,
				Shares:    shares,
				Threshold: threshold,
				XMode:     mode,
				Persist:   store,
			})
			if err != nil {
				return err
			}

			if outDir != "" {
				paths, err := writeShareFiles(cfg.fs, outDir, result.Shares)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d share files to %s\n", len(paths), outDir)
			}

			set := ShareSet{
				Session:   result.Session,
				Threshold: threshold,
				Total:     shares,
				Shares:    result.Shares,
			}
			if result.Stored {
				set.StoredIn = s.dir
			}
			return cfg.Printer().PrintShares(set)
		},
	}

	cmd.Flags().IntVarP(&shares, "shares", "n", 0, "number of shares to issue")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "shares required to reconstruct")
	cmd.Flags().StringVar(&xMode, "x-mode", "", "x-coordinate selection (random, sequential)")
	cmd.Flags().StringVar(&outDir, "out", "", "also write each share to DIR/share-<i>.json")
	cmd.Flags().BoolVar(&store, "store", false, "persist the share set in the share store")
	_ = cmd.MarkFlagRequired("shares")
	_ = cmd.MarkFlagRequired("threshold")
	return cmd
}
