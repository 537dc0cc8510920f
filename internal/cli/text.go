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
	"encoding/base64"
	"fmt"
	"unicode/utf8"

	"github.com/jeremyhahn/go-shamir/internal/service"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/cobra"
)

func newTextCmd(cfg *Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "text",
		Short: "Share text and byte secrets",
		Long: `Split and combine arbitrary byte strings. Text shares are not
compatible with integer shares and need a threshold of at least 2.`,
	}
	cmd.AddCommand(newTextSplitCmd(cfg), newTextCombineCmd(cfg))
	return cmd
}

func newTextSplitCmd(cfg *Config) *cobra.Command {
	var (
		shares    int
		threshold int
		isBase64  bool
		outDir    string
	)

	cmd := &cobra.Command{
		Use:     "split <secret>",
		Short:   "Split a text secret into shares",
		Example: `  sss text split "correct horse battery staple" -n 5 -t 3 --out ./shares`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := []byte(args[0])
			if isBase64 {
				decoded, err := base64.StdEncoding.DecodeString(args[0])
				if err != nil {
					return fmt.Errorf("%w: secret is not valid base64", validation.ErrMalformedInput)
				}
				secret = decoded
			}
			if err := validation.ValidateCount("shares", shares); err != nil {
				return err
			}
			if err := validation.ValidateCount("threshold", threshold); err != nil {
				return err
			}

			s, err := cfg.openService(false)
			if err != nil {
				return err
			}
			defer s.Close()

			result, err := s.svc.SplitText(cmd.Context(), service.TextSplitRequest{
				Secret:    secret,
				Shares:    shares,
				Threshold: threshold,
			})
			if err != nil {
				return err
			}

			if outDir != "" {
				paths, err := writeShareFiles(cfg.fs, outDir, result)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d share files to %s\n", len(paths), outDir)
			}

			return cfg.Printer().PrintTextShares(TextShareSet{
				Session:   result[0].Session,
				Threshold: threshold,
				Total:     shares,
				Shares:    result,
			})
		},
	}

	cmd.Flags().IntVarP(&shares, "shares", "n", 0, "number of shares to issue")
	cmd.Flags().IntVarP(&threshold, "threshold", "t", 0, "shares required to reconstruct")
	cmd.Flags().BoolVar(&isBase64, "base64", false, "the secret argument is base64 encoded bytes")
	cmd.Flags().StringVar(&outDir, "out", "", "also write each share to DIR/share-<i>.json")
	_ = cmd.MarkFlagRequired("shares")
	_ = cmd.MarkFlagRequired("threshold")
	return cmd
}

func newTextCombineCmd(cfg *Config) *cobra.Command {
	var asBase64 bool

	cmd := &cobra.Command{
		Use:   "combine <share-file>...",
		Short: "Reconstruct a text secret from shares",
		Long: `Reconstruct a text secret. Secrets that are not valid UTF-8 are
printed base64 encoded, as is every secret when --base64 is set.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			shares, err := loadTextShares(cfg.fs, cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			s, err := cfg.openService(false)
			if err != nil {
				return err
			}
			defer s.Close()

			secret, err := s.svc.CombineText(cmd.Context(), shares)
			if err != nil {
				return err
			}

			out := string(secret)
			if asBase64 || !utf8.Valid(secret) {
				out = base64.StdEncoding.EncodeToString(secret)
			}
			return cfg.Printer().PrintSecret(out, len(shares))
		},
	}

	cmd.Flags().BoolVar(&asBase64, "base64", false, "print the secret base64 encoded")
	return cmd
}
