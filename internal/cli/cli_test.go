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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func runWithInput(t *testing.T, stdin io.Reader, args ...string) result {
	t.Helper()
	cmd := NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin != nil {
		cmd.SetIn(stdin)
	}
	err := run(cmd, args)
	return result{stdout: out.String(), stderr: errOut.String(), err: err}
}

func runCLI(t *testing.T, args ...string) result {
	t.Helper()
	return runWithInput(t, nil, args...)
}

func splitJSON(t *testing.T, args ...string) (ShareSet, string) {
	t.Helper()
	r := runCLI(t, append([]string{"split", "-o", "json"}, args...)...)
	require.NoError(t, r.err, r.stderr)
	var set ShareSet
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &set))
	return set, r.stdout
}

func TestSplitCombine_Files(t *testing.T) {
	dir := t.TempDir()
	set, _ := splitJSON(t, "1234", "-n", "5", "-t", "3", "--out", dir)

	assert.Equal(t, 3, set.Threshold)
	assert.Equal(t, 5, set.Total)
	assert.NotEmpty(t, set.Session)
	require.Len(t, set.Shares, 5)
	for _, sh := range set.Shares {
		assert.Equal(t, set.Session, sh.Session)
	}

	for i := 1; i <= 5; i++ {
		info, err := os.Stat(filepath.Join(dir, fmt.Sprintf("share-%d.json", i)))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}

	r := runCLI(t, "combine",
		filepath.Join(dir, "share-1.json"),
		filepath.Join(dir, "share-3.json"),
		filepath.Join(dir, "share-5.json"))
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "1234\n", r.stdout)
}

func TestSplitCombine_Stdin(t *testing.T) {
	_, doc := splitJSON(t, "-n", "3", "-t", "2", "--", "-0xff")

	r := runWithInput(t, strings.NewReader(doc), "combine", "-", "-o", "json")
	require.NoError(t, r.err, r.stderr)

	var out struct {
		Secret string `json:"secret"`
		Shares int    `json:"shares"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, "-255", out.Secret)
	assert.Equal(t, 3, out.Shares)
}

func TestSplit_TextOutput(t *testing.T) {
	r := runCLI(t, "split", "42", "-n", "3", "-t", "2", "--x-mode", "sequential")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Threshold: 2 of 3")
	assert.Contains(t, r.stdout, "Share 1: x=1 ")
	assert.Contains(t, r.stdout, "Share 3: x=3 ")

	r = runCLI(t, "split", "42", "-n", "3", "-t", "2", "-o", "table")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "#  X")
}

func TestSplit_SeededIsRepeatable(t *testing.T) {
	args := []string{"--rand-mode", "seeded", "--seed", "fixture", "1234", "-n", "4", "-t", "2"}
	_, first := splitJSON(t, args...)
	_, second := splitJSON(t, args...)
	assert.Equal(t, first, second)

	_, other := splitJSON(t, "--rand-mode", "seeded", "--seed", "other", "1234", "-n", "4", "-t", "2")
	assert.NotEqual(t, first, other)
}

func TestSplit_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad secret", []string{"split", "abc", "-n", "3", "-t", "2"}, "not an integer"},
		{"threshold above shares", []string{"split", "1", "-n", "2", "-t", "3"}, "Error:"},
		{"zero shares", []string{"split", "1", "-n", "0", "-t", "1"}, "shares must be between"},
		{"missing flags", []string{"split", "1"}, "required flag"},
		{"bad x-mode", []string{"split", "1", "-n", "2", "-t", "2", "--x-mode", "spiral"}, "unknown x-mode"},
		{"out of range", []string{"split", "0x" + strings.Repeat("f", 40), "-n", "2", "-t", "2", "--modulus", "m127"}, "Error:"},
		{"bad modulus", []string{"split", "1", "-n", "2", "-t", "2", "--modulus", "15"}, "Error:"},
		{"bad output", []string{"split", "1", "-n", "2", "-t", "2", "-o", "yaml"}, "unknown output format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			require.Error(t, r.err)
			assert.Contains(t, r.stderr, tt.want)
			assert.Empty(t, r.stdout)
		})
	}
}

func TestZeroThreshold_IsInvalidParameters(t *testing.T) {
	for _, args := range [][]string{
		{"split", "42", "-n", "3", "-t", "0"},
		{"demo", "42", "3", "0"},
		{"text", "split", "hello", "-n", "3", "-t", "0"},
	} {
		r := runCLI(t, args...)
		require.Error(t, r.err, args)
		assert.ErrorIs(t, r.err, shamir.ErrInvalidParameters, args)
		assert.NotErrorIs(t, r.err, validation.ErrMalformedInput, args)
		assert.Contains(t, r.stderr, "invalid parameters")
	}

	r := runCLI(t, "demo", "42", "three", "2")
	assert.ErrorIs(t, r.err, validation.ErrMalformedInput)
}

func TestCombine_Errors(t *testing.T) {
	dir := t.TempDir()
	splitJSON(t, "99", "-n", "4", "-t", "3", "--out", dir)
	otherDir := t.TempDir()
	splitJSON(t, "99", "-n", "4", "-t", "3", "--out", otherDir)

	garbage := filepath.Join(t.TempDir(), "garbage.json")
	require.NoError(t, os.WriteFile(garbage, []byte("not json"), 0600))

	tests := []struct {
		name string
		args []string
	}{
		{"no shares", []string{"combine"}},
		{"files and session", []string{"combine", filepath.Join(dir, "share-1.json"), "--session", "x"}},
		{"too few", []string{"combine", filepath.Join(dir, "share-1.json"), filepath.Join(dir, "share-2.json")}},
		{"mixed sessions", []string{"combine",
			filepath.Join(dir, "share-1.json"), filepath.Join(dir, "share-2.json"), filepath.Join(otherDir, "share-3.json")}},
		{"duplicate", []string{"combine",
			filepath.Join(dir, "share-1.json"), filepath.Join(dir, "share-1.json"), filepath.Join(dir, "share-2.json")}},
		{"missing file", []string{"combine", filepath.Join(dir, "share-9.json")}},
		{"garbage", []string{"combine", garbage}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := runCLI(t, tt.args...)
			assert.Error(t, r.err)
			assert.Empty(t, r.stdout)
		})
	}
}

func TestErrorOutput_JSON(t *testing.T) {
	r := runCLI(t, "-o", "json", "combine")
	require.Error(t, r.err)

	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stderr), &out))
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "no shares given")
}

func TestDemo(t *testing.T) {
	r := runCLI(t, "demo", "1234", "6", "3")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Secret: 1234")
	assert.Contains(t, r.stdout, "Shares (3 of 6 needed):")
	assert.Contains(t, r.stdout, "Reconstructed from shares ")
	assert.True(t, strings.HasSuffix(r.stdout, ": 1234\n"), r.stdout)

	r = runCLI(t, "demo", "-o", "json", "--", "-5", "4", "4")
	require.NoError(t, r.err, r.stderr)
	var d DemoResult
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &d))
	assert.Equal(t, "-5", d.Reconstructed)
	assert.Equal(t, d.Secret, d.Reconstructed)
	assert.Equal(t, []int{1, 2, 3, 4}, d.Used)

	r = runCLI(t, "demo", "1", "three", "2")
	assert.Error(t, r.err)
}

func TestDemo_SubsetIsDistinct(t *testing.T) {
	for i := 0; i < 20; i++ {
		r := runCLI(t, "demo", "7", "10", "4", "-o", "json")
		require.NoError(t, r.err, r.stderr)
		var d DemoResult
		require.NoError(t, json.Unmarshal([]byte(r.stdout), &d))
		require.Len(t, d.Used, 4)
		assert.True(t, sort.IntsAreSorted(d.Used))
		seen := map[int]bool{}
		for _, n := range d.Used {
			assert.False(t, seen[n])
			assert.GreaterOrEqual(t, n, 1)
			assert.LessOrEqual(t, n, 10)
			seen[n] = true
		}
		assert.Equal(t, "7", d.Reconstructed)
	}
}

func TestText_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	r := runCLI(t, "text", "split", "correct horse battery staple", "-n", "5", "-t", "3", "--out", dir)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Threshold: 3 of 5")
	assert.Contains(t, r.stderr, "Wrote 5 share files")

	r = runCLI(t, "text", "combine",
		filepath.Join(dir, "share-2.json"),
		filepath.Join(dir, "share-4.json"),
		filepath.Join(dir, "share-5.json"))
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "correct horse battery staple\n", r.stdout)
}

func TestText_Base64(t *testing.T) {
	r := runCLI(t, "text", "split", "//79", "--base64", "-n", "3", "-t", "2", "-o", "json")
	require.NoError(t, r.err, r.stderr)

	var set TextShareSet
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &set))
	require.Len(t, set.Shares, 3)

	r = runWithInput(t, strings.NewReader(r.stdout), "text", "combine", "-")
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "//79\n", r.stdout)

	r = runCLI(t, "text", "split", "!!!", "--base64", "-n", "3", "-t", "2")
	assert.Error(t, r.err)
}

func TestText_Errors(t *testing.T) {
	r := runCLI(t, "text", "split", "hello", "-n", "3", "-t", "1")
	assert.Error(t, r.err)

	dir := t.TempDir()
	r = runCLI(t, "text", "split", "hello", "-n", "3", "-t", "3", "--out", dir)
	require.NoError(t, r.err)
	r = runCLI(t, "text", "combine", filepath.Join(dir, "share-1.json"))
	assert.Error(t, r.err)
}

func TestSessions(t *testing.T) {
	shareDir := t.TempDir()

	r := runCLI(t, "sessions", "list", "--share-dir", shareDir)
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "No sessions found\n", r.stdout)

	set, _ := splitJSON(t, "31337", "-n", "5", "-t", "3", "--store", "--share-dir", shareDir)
	assert.Equal(t, shareDir, set.StoredIn)

	r = runCLI(t, "sessions", "list", "--share-dir", shareDir, "-o", "json")
	require.NoError(t, r.err, r.stderr)
	var list struct {
		Sessions []sharestore.SessionInfo `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &list))
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, sharestore.SessionInfo{ID: set.Session, Shares: 5, Threshold: 3, Total: 5}, list.Sessions[0])

	r = runCLI(t, "sessions", "list", "--share-dir", shareDir, "-o", "table")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "SESSION")
	assert.Contains(t, r.stdout, set.Session)

	r = runCLI(t, "sessions", "show", set.Session, "--share-dir", shareDir)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "Threshold: 3 of 5")

	r = runCLI(t, "combine", "--session", set.Session, "--share-dir", shareDir)
	require.NoError(t, r.err, r.stderr)
	assert.Equal(t, "31337\n", r.stdout)

	r = runCLI(t, "sessions", "delete", set.Session, "--share-dir", shareDir)
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, "5 shares")

	r = runCLI(t, "combine", "--session", set.Session, "--share-dir", shareDir)
	assert.Error(t, r.err)

	r = runCLI(t, "sessions", "delete", "../etc", "--share-dir", shareDir)
	assert.Error(t, r.err)
}

func TestSessions_ShareDirFromEnv(t *testing.T) {
	shareDir := t.TempDir()
	t.Setenv("SSS_SHARE_DIR", shareDir)

	set, _ := splitJSON(t, "8", "-n", "2", "-t", "2", "--store")
	assert.Equal(t, shareDir, set.StoredIn)

	r := runCLI(t, "sessions", "list")
	require.NoError(t, r.err, r.stderr)
	assert.Contains(t, r.stdout, set.Session)
}

func TestVersion(t *testing.T) {
	r := runCLI(t, "version")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "sss version "+Version)

	r = runCLI(t, "version", "-o", "json")
	require.NoError(t, r.err)
	var out map[string]string
	require.NoError(t, json.Unmarshal([]byte(r.stdout), &out))
	assert.Equal(t, Version, out["version"])
}

func TestDecodeDocument(t *testing.T) {
	single := `{"x":"1","y":"5","threshold":2,"total":3,"session":"s"}`

	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr bool
	}{
		{"single", single, 1, false},
		{"array", "[" + single + "," + strings.Replace(single, `"x":"1"`, `"x":"2"`, 1) + "]", 2, false},
		{"set", `{"session":"s","shares":[` + single + `]}`, 1, false},
		{"empty", "  ", 0, true},
		{"not json", "x=1", 0, true},
		{"bad share", `{"x":"0","y":"1","threshold":2,"total":3}`, 0, true},
		{"bad array", `[1,2]`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := decodeDocument([]byte(tt.doc), sharestore.Decode)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, shares, tt.want)
		})
	}
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{
		"":      OutputFormatText,
		"text":  OutputFormatText,
		"json":  OutputFormatJSON,
		"table": OutputFormatTable,
	} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)

	var buf bytes.Buffer
	p := NewPrinter("xml", &buf)
	require.NoError(t, p.PrintSuccess("ok"))
	assert.Equal(t, "ok\n", buf.String())
}
