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

package textshare

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitCombine(t *testing.T) {
	tests := []struct {
		name      string
		secret    []byte
		threshold int
		total     int
	}{
		{"short passphrase", []byte("hunter2"), 2, 3},
		{"multi chunk", bytes.Repeat([]byte("0123456789abcdef"), 9), 3, 5},
		{"trailing zero bytes", []byte{0x01, 0x00, 0x00}, 2, 2},
		{"leading zero bytes", []byte{0x00, 0x00, 0xff}, 2, 4},
		{"unicode", []byte("pässwörd 🔑"), 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := Split(tt.secret, tt.threshold, tt.total)
			require.NoError(t, err)
			require.Len(t, shares, tt.total)
			for i, s := range shares {
				assert.Equal(t, i+1, s.Index)
				assert.Equal(t, shares[0].Session, s.Session)
				assert.NoError(t, s.Validate())
			}

			got, err := Combine(shares[tt.total-tt.threshold:])
			require.NoError(t, err)
			assert.Equal(t, tt.secret, got)

			got, err = Combine(shares)
			require.NoError(t, err)
			assert.Equal(t, tt.secret, got)
		})
	}
}

func TestSplit_InvalidParameters(t *testing.T) {
	tests := []struct {
		name      string
		secret    []byte
		threshold int
		total     int
		want      error
	}{
		{"threshold too small", []byte("s"), 1, 3, shamir.ErrInvalidParameters},
		{"threshold above total", []byte("s"), 4, 3, shamir.ErrInvalidParameters},
		{"too many shares", []byte("s"), 2, 256, shamir.ErrInvalidParameters},
		{"empty secret", nil, 2, 3, shamir.ErrSecretOutOfRange},
		{"oversized secret", make([]byte, MaxSecretSize+1), 2, 3, shamir.ErrSecretOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Split(tt.secret, tt.threshold, tt.total)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCombine_Errors(t *testing.T) {
	a, err := Split([]byte("alpha"), 2, 3)
	require.NoError(t, err)
	b, err := Split([]byte("bravo"), 2, 3)
	require.NoError(t, err)

	corrupt := a[1]
	corrupt.Value = base64.StdEncoding.EncodeToString([]byte("garbage"))

	notBase64 := a[1]
	notBase64.Value = "!!!"

	relabelled := a[0]
	relabelled.Index = 2

	tests := []struct {
		name   string
		shares []Share
		want   error
	}{
		{"empty", nil, shamir.ErrInsufficientShares},
		{"below threshold", a[:1], shamir.ErrInsufficientShares},
		{"mixed sessions", []Share{a[0], b[1]}, shamir.ErrMixedSessions},
		{"duplicate index", []Share{a[0], a[0]}, shamir.ErrDuplicateXCoordinate},
		{"duplicate value, relabelled index", []Share{a[0], relabelled}, shamir.ErrDuplicateXCoordinate},
		{"duplicate value among valid shares", []Share{a[0], a[2], relabelled}, shamir.ErrDuplicateXCoordinate},
		{"corrupt value", []Share{a[0], corrupt}, shamir.ErrInvalidShare},
		{"not base64", []Share{a[0], notBase64}, shamir.ErrInvalidShare},
		{"bad metadata", []Share{{Index: 0, Threshold: 2, Total: 3, Value: "x"}}, shamir.ErrInvalidShare},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Combine(tt.shares)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplitFrom_SessionFromReader(t *testing.T) {
	seed := bytes.Repeat([]byte{0x5a}, 16)

	first, err := SplitFrom(bytes.NewReader(seed), []byte("seeded"), 2, 3)
	require.NoError(t, err)
	second, err := SplitFrom(bytes.NewReader(seed), []byte("seeded"), 2, 3)
	require.NoError(t, err)
	assert.Equal(t, first[0].Session, second[0].Session)

	got, err := Combine([]Share{first[2], first[0]})
	require.NoError(t, err)
	assert.Equal(t, []byte("seeded"), got)

	_, err = SplitFrom(bytes.NewReader(nil), []byte("seeded"), 2, 3)
	assert.Error(t, err)
}

func TestXCoordinates(t *testing.T) {
	shares, err := Split(bytes.Repeat([]byte("k"), 100), 2, 3)
	require.NoError(t, err)

	raw0, err := shares[0].Bytes()
	require.NoError(t, err)
	raw1, err := shares[1].Bytes()
	require.NoError(t, err)

	x0 := xCoordinates(string(raw0))
	assert.Len(t, x0, len(raw0)/chunkLen*coordLen)
	assert.NotEqual(t, x0, xCoordinates(string(raw1)))
}

func TestShare_JSONAndString(t *testing.T) {
	shares, err := Split([]byte("json"), 2, 2)
	require.NoError(t, err)

	data, err := json.Marshal(shares[0])
	require.NoError(t, err)

	var decoded Share
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, shares[0], decoded)

	assert.NotContains(t, shares[0].String(), shares[0].Value)
}
