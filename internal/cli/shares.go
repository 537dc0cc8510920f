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
	"path/filepath"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/sharestore"
	"github.com/jeremyhahn/go-shamir/pkg/textshare"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/afero"
)

// stdinPath names standard input in share file arguments.
const stdinPath = "-"

// readInputs returns the contents of each path. "-" reads stdin once.
func readInputs(fs afero.Fs, stdin io.Reader, paths []string) ([][]byte, error) {
	docs := make([][]byte, 0, len(paths))
	usedStdin := false
	for _, path := range paths {
		if path == stdinPath {
			if usedStdin {
				return nil, fmt.Errorf("%w: stdin given more than once", validation.ErrMalformedInput)
			}
			usedStdin = true
			data, err := io.ReadAll(stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read stdin: %w", err)
			}
			docs = append(docs, data)
			continue
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read share file: %w", err)
		}
		docs = append(docs, data)
	}
	return docs, nil
}

// decodeDocument accepts a single share object, an array of shares, or an
// object with a "shares" array such as the JSON output of split.
func decodeDocument[T any](data []byte, decode func([]byte) (T, error)) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty share document", validation.ErrMalformedInput)
	}

	var raw []json.RawMessage
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", validation.ErrMalformedInput, err)
		}
	case '{':
		var set struct {
			Shares []json.RawMessage `json:"shares"`
		}
		if err := json.Unmarshal(data, &set); err != nil {
			return nil, fmt.Errorf("%w: %v", validation.ErrMalformedInput, err)
		}
		raw = set.Shares
		if raw == nil {
			raw = []json.RawMessage{data}
		}
	default:
		return nil, fmt.Errorf("%w: share document is not JSON", validation.ErrMalformedInput)
	}

	out := make([]T, 0, len(raw))
	for _, r := range raw {
		v, err := decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeTextShare(data []byte) (textshare.Share, error) {
	var sh textshare.Share
	if err := json.Unmarshal(data, &sh); err != nil {
		return textshare.Share{}, fmt.Errorf("%w: %v", shamir.ErrInvalidShare, err)
	}
	if err := sh.Validate(); err != nil {
		return textshare.Share{}, err
	}
	return sh, nil
}

// loadShares reads integer shares from every path.
func loadShares(fs afero.Fs, stdin io.Reader, paths []string) ([]shamir.Share, error) {
	docs, err := readInputs(fs, stdin, paths)
	if err != nil {
		return nil, err
	}
	var shares []shamir.Share
	for _, doc := range docs {
		decoded, err := decodeDocument(doc, sharestore.Decode)
		if err != nil {
			return nil, err
		}
		shares = append(shares, decoded...)
	}
	return shares, nil
}

// loadTextShares reads text shares from every path.
func loadTextShares(fs afero.Fs, stdin io.Reader, paths []string) ([]textshare.Share, error) {
	docs, err := readInputs(fs, stdin, paths)
	if err != nil {
		return nil, err
	}
	var shares []textshare.Share
	for _, doc := range docs {
		decoded, err := decodeDocument(doc, decodeTextShare)
		if err != nil {
			return nil, err
		}
		shares = append(shares, decoded...)
	}
	return shares, nil
}

// writeShareFiles writes each share to dir as share-<i>.json.
func writeShareFiles[T any](fs afero.Fs, dir string, shares []T) ([]string, error) {
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	paths := make([]string, 0, len(shares))
	for i, sh := range shares {
		data, err := json.MarshalIndent(sh, "", "  ")
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, fmt.Sprintf("share-%d.json", i+1))
		if err := afero.WriteFile(fs, path, append(data, '\n'), 0600); err != nil {
			return paths, fmt.Errorf("failed to write share file: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
