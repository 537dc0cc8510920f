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

package shamir

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShare_JSON(t *testing.T) {
	y, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457584007908834671662", 10)
	require.True(t, ok)

	share := Share{
		X:         big.NewInt(7),
		Y:         y,
		Threshold: 3,
		Total:     5,
		Session:   "6f1c2a8e-0c1d-4e8b-9d6a-5c1e2f3a4b5c",
	}

	data, err := json.Marshal(share)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"y":"115792089237316195423570985008687907853269984665640564039457584007908834671662"`)

	var decoded Share
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 0, decoded.X.Cmp(share.X))
	assert.Equal(t, 0, decoded.Y.Cmp(share.Y))
	assert.Equal(t, share.Threshold, decoded.Threshold)
	assert.Equal(t, share.Total, decoded.Total)
	assert.Equal(t, share.Session, decoded.Session)
}

func TestShare_JSONUntagged(t *testing.T) {
	data, err := json.Marshal(Share{X: big.NewInt(1), Y: big.NewInt(2)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":"1","y":"2"}`, string(data))
}

func TestShare_JSONErrors(t *testing.T) {
	_, err := json.Marshal(Share{X: big.NewInt(1)})
	assert.Error(t, err)

	var s Share
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"x":"abc","y":"1"}`), &s), ErrInvalidShare)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"x":"1","y":""}`), &s), ErrInvalidShare)
	assert.Error(t, json.Unmarshal([]byte(`{"x":1`), &s))
}

func TestShare_Validate(t *testing.T) {
	tests := []struct {
		name    string
		share   Share
		wantErr bool
	}{
		{"tagged", Share{X: big.NewInt(1), Y: big.NewInt(0), Threshold: 2, Total: 3, Session: "s"}, false},
		{"untagged", Share{X: big.NewInt(1), Y: big.NewInt(0)}, false},
		{"missing x", Share{Y: big.NewInt(0)}, true},
		{"missing y", Share{X: big.NewInt(1)}, true},
		{"zero x", Share{X: big.NewInt(0), Y: big.NewInt(1)}, true},
		{"negative threshold", Share{X: big.NewInt(1), Y: big.NewInt(1), Threshold: -1}, true},
		{"total below threshold", Share{X: big.NewInt(1), Y: big.NewInt(1), Threshold: 4, Total: 3}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.share.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidShare)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShare_Clone(t *testing.T) {
	s := Share{X: big.NewInt(5), Y: big.NewInt(6), Threshold: 1, Total: 1, Session: "a"}
	c := s.Clone()
	c.X.SetInt64(50)
	c.Y.SetInt64(60)

	assert.Equal(t, int64(5), s.X.Int64())
	assert.Equal(t, int64(6), s.Y.Int64())
	assert.Equal(t, "a", c.Session)
}

func TestShare_StringOmitsY(t *testing.T) {
	x, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)
	s := Share{X: x, Y: big.NewInt(987654321), Threshold: 2, Total: 3, Session: "abc"}

	str := s.String()
	assert.NotContains(t, str, "987654321")
	assert.Contains(t, str, "1234567890123456...")
	assert.True(t, strings.HasPrefix(str, "Share{"))
}

func TestCheckDistinct(t *testing.T) {
	ok := []Share{{X: big.NewInt(1)}, {X: big.NewInt(2)}, {X: big.NewInt(3)}}
	assert.NoError(t, CheckDistinct(ok))
	assert.NoError(t, CheckDistinct(nil))

	dup := []Share{{X: big.NewInt(1)}, {X: big.NewInt(2)}, {X: big.NewInt(1)}}
	err := CheckDistinct(dup)
	assert.ErrorIs(t, err, ErrDuplicateXCoordinate)
	assert.Contains(t, err.Error(), "shares 0 and 2")

	assert.ErrorIs(t, CheckDistinct([]Share{{}}), ErrInvalidShare)
}
