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
	mrand "math/rand/v2"
	"sort"

	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/cobra"
)

func newDemoCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "demo <secret> <shares> <threshold>",
		Short: "Split a secret and reconstruct it from a random subset",
		Long: `Split the secret into the given number of shares, print them, then
reconstruct the secret from a randomly chosen threshold-sized subset.`,
		Example: `  sss demo 1234 6 3`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := validation.ParseInteger(args[0])
			if err != nil {
				return err
			}
			n, err := validation.ParseCount("shares", args[1])
			if err != nil {
				return err
			}
			t, err := validation.ParseCount("threshold", args[2])
			if err != nil {
				return err
			}

			s, err := cfg.openService(false)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.svc.Split(cmd.Context(), service.SplitRequest{
				Secret:    secret,
				Shares:    n,
				Threshold: t,
			})
			if err != nil {
				return err
			}

			used, err := pickSubset(s.svc, n, t)
			if err != nil {
				return err
			}
			subset := make([]shamir.Share, len(used))
			for i, idx := range used {
				subset[i] = result.Shares[idx-1]
			}

			recovered, err := s.svc.Combine(cmd.Context(), subset)
			if err != nil {
				return err
			}

			return cfg.Printer().PrintDemo(DemoResult{
				Secret:        secret.String(),
				Threshold:     t,
				Total:         n,
				Shares:        result.Shares,
				Used:          used,
				Reconstructed: recovered.String(),
			})
		},
	}
}

// pickSubset returns t distinct 1-based share numbers out of n in ascending
// order. The permutation is keyed from the service's randomness source so a
// seeded resolver gives a repeatable demo.
func pickSubset(svc *service.SharingService, n, t int) ([]int, error) {
	seed, err := svc.Rand().Rand(32)
	if err != nil {
		return nil, fmt.Errorf("failed to seed subset selection: %w", err)
	}
	var key [32]byte
	copy(key[:], seed)
	perm := mrand.New(mrand.NewChaCha8(key)).Perm(n)

	used := make([]int, t)
	for i := range used {
		used[i] = perm[i] + 1
	}
	sort.Ints(used)
	return used, nil
}
