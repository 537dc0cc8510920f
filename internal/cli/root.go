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

	"github.com/spf13/cobra"
)

// NewRootCommand builds the sss command tree with its own configuration.
func NewRootCommand() *cobra.Command {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "sss",
		Short: "sss - Shamir secret sharing over prime fields",
		Long: `sss splits an integer secret into n shares so that any t of them
reconstruct it and fewer than t reveal nothing about it.

Shares are points on a random polynomial over a prime field. The default
field is the 256-bit prime 2^256 - 2^32 - 977; use --modulus to pick
another (m127, m521, or any prime in decimal or 0x-hex).

Byte and text secrets are handled by the "text" subcommands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.bind(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.ConfigFile, "config", "", "YAML config file")
	flags.StringVarP(&cfg.OutputFormat, "output", "o", "text", "output format (text, json, table)")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "verbose output")
	flags.String(keyModulus, "", "prime modulus or alias (p256k1, m127, m521)")
	flags.String(keyRandMode, "", "randomness source (software, seeded)")
	flags.String(keySeed, "", "seed for --rand-mode seeded (tests only)")
	flags.String(keyShareDir, "", "share store directory")
	flags.String(keyLogLevel, "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newSplitCmd(cfg),
		newCombineCmd(cfg),
		newDemoCmd(cfg),
		newTextCmd(cfg),
		newSessionsCmd(cfg),
		newVersionCmd(cfg),
	)
	return rootCmd
}

// Execute runs the sss command line. Errors are printed in the selected
// output format before being returned.
func Execute(args []string) error {
	return run(NewRootCommand(), args)
}

func run(rootCmd *cobra.Command, args []string) error {
	rootCmd.SetArgs(args)
	_, err := rootCmd.ExecuteC()
	if err != nil {
		format, _ := rootCmd.PersistentFlags().GetString("output")
		printer := NewPrinter(format, rootCmd.ErrOrStderr())
		if printErr := printer.PrintError(err); printErr != nil {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
	}
	return err
}
