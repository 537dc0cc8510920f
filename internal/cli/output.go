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
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/textshare"
)

// OutputFormat defines the output format type
type OutputFormat string

const (
	OutputFormatText  OutputFormat = "text"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatTable OutputFormat = "table"
)

// ParseOutputFormat validates an --output value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case "", OutputFormatText:
		return OutputFormatText, nil
	case OutputFormatJSON, OutputFormatTable:
		return OutputFormat(s), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", s)
	}
}

// Printer handles formatted output
type Printer struct {
	format OutputFormat
	writer io.Writer
}

// NewPrinter creates a new Printer. Unknown formats fall back to text.
func NewPrinter(format string, writer io.Writer) *Printer {
	f, err := ParseOutputFormat(format)
	if err != nil {
		f = OutputFormatText
	}
	return &Printer{format: f, writer: writer}
}

// ShareSet is the JSON document printed by split and read back by combine.
type ShareSet struct {
	Session   string         `json:"session"`
	Threshold int            `json:"threshold"`
	Total     int            `json:"total"`
	StoredIn  string         `json:"stored_in,omitempty"`
	Shares    []shamir.Share `json:"shares"`
}

// TextShareSet is the JSON document printed by text split.
type TextShareSet struct {
	Session   string            `json:"session"`
	Threshold int               `json:"threshold"`
	Total     int               `json:"total"`
	Shares    []textshare.Share `json:"shares"`
}

// PrintShares prints an integer share set
func (p *Printer) PrintShares(set ShareSet) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(set)
	case OutputFormatTable:
		fmt.Fprintf(p.writer, "Session: %s (threshold %d of %d)\n", set.Session, set.Threshold, set.Total)
		tw := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tX\tY")
		for i, share := range set.Shares {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", i+1, share.X, share.Y)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	default:
		fmt.Fprintf(p.writer, "Session:   %s\n", set.Session)
		fmt.Fprintf(p.writer, "Threshold: %d of %d\n", set.Threshold, set.Total)
		for i, share := range set.Shares {
			fmt.Fprintf(p.writer, "Share %d: x=%s y=%s\n", i+1, share.X, share.Y)
		}
	}
	if set.StoredIn != "" && p.format != OutputFormatJSON {
		fmt.Fprintf(p.writer, "Stored in: %s\n", set.StoredIn)
	}
	return nil
}

// PrintTextShares prints a text share set
func (p *Printer) PrintTextShares(set TextShareSet) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(set)
	default:
		fmt.Fprintf(p.writer, "Session:   %s\n", set.Session)
		fmt.Fprintf(p.writer, "Threshold: %d of %d\n", set.Threshold, set.Total)
		for _, share := range set.Shares {
			fmt.Fprintf(p.writer, "Share %d: %s\n", share.Index, share.Value)
		}
		return nil
	}
}

// PrintSecret prints a reconstructed secret
func (p *Printer) PrintSecret(secret string, shares int) error {
	switch p.format {
	case OutputFormatJSON:
		return p.printJSON(map[string]interface{}{
			"secret": secret,
			"shares": shares,
		})
	default:
		fmt.Fprintln(p.writer, secret)
		return nil
	}
}

// DemoResult is the outcome of the demo command.
type DemoResult struct {
	Secret        string         `json:"secret"`
	Threshold     int            `json:"threshold"`
	Total         int            `json:"total"`
	Shares        []shamir.Share `json:"shares"`
	Used          []int          `json:"used"`
	Reconstructed string         `json:"reconstructed"`
}

// PrintDemo prints a split and reconstruction walk-through
func (p *Printer) PrintDemo(d DemoResult) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(d)
	}
	fmt.Fprintf(p.writer, "Secret: %s\n", d.Secret)
	fmt.Fprintf(p.writer, "Shares (%d of %d needed):\n", d.Threshold, d.Total)
	for i, share := range d.Shares {
		fmt.Fprintf(p.writer, "  %d: x=%s y=%s\n", i+1, share.X, share.Y)
	}
	used := make([]string, len(d.Used))
	for i, n := range d.Used {
		used[i] = fmt.Sprint(n)
	}
	fmt.Fprintf(p.writer, "Reconstructed from shares %s: %s\n", strings.Join(used, ", "), d.Reconstructed)
	return nil
}

// PrintSessions prints stored share sets
func (p *Printer) PrintSessions(infos []sharestore.SessionInfo) error {
	switch p.format {
	case OutputFormatJSON:
		if infos == nil {
			infos = []sharestore.SessionInfo{}
		}
		return p.printJSON(map[string]interface{}{"sessions": infos})
	case OutputFormatTable:
		if len(infos) == 0 {
			fmt.Fprintln(p.writer, "No sessions found")
			return nil
		}
		tw := tabwriter.NewWriter(p.writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "SESSION\tSHARES\tTHRESHOLD\tTOTAL")
		for _, info := range infos {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%d\n", info.ID, info.Shares, info.Threshold, info.Total)
		}
		return tw.Flush()
	default:
		if len(infos) == 0 {
			fmt.Fprintln(p.writer, "No sessions found")
			return nil
		}
		for _, info := range infos {
			fmt.Fprintf(p.writer, "%s  %d shares, threshold %d of %d\n", info.ID, info.Shares, info.Threshold, info.Total)
		}
		return nil
	}
}

// PrintSuccess prints a success message
func (p *Printer) PrintSuccess(message string) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{
			"status":  "success",
			"message": message,
		})
	}
	fmt.Fprintln(p.writer, message)
	return nil
}

// PrintError prints an error message
func (p *Printer) PrintError(err error) error {
	if p.format == OutputFormatJSON {
		return p.printJSON(map[string]interface{}{
			"status": "error",
			"error":  err.Error(),
		})
	}
	_, werr := fmt.Fprintf(p.writer, "Error: %v\n", err)
	return werr
}

// printJSON prints data as JSON
func (p *Printer) printJSON(data interface{}) error {
	encoder := json.NewEncoder(p.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
