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

package rand

import (
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResolver_Modes(t *testing.T) {
	tests := []struct {
		name     string
		config   interface{}
		wantMode Mode
		wantErr  bool
	}{
		{"nil config", nil, ModeSoftware, false},
		{"empty mode", Mode(""), ModeSoftware, false},
		{"software mode", ModeSoftware, ModeSoftware, false},
		{"nil *Config", (*Config)(nil), ModeSoftware, false},
		{"config without mode", &Config{}, ModeSoftware, false},
		{"seeded config", &Config{Mode: ModeSeeded, Seed: []byte("seed")}, ModeSeeded, false},
		{"seeded without seed", &Config{Mode: ModeSeeded}, "", true},
		{"seeded mode only", ModeSeeded, "", true},
		{"unknown mode", Mode("tpm2"), "", true},
		{"unsupported type", 42, ModeSoftware, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewResolver(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer func() { _ = r.Close() }()
			assert.Equal(t, tt.wantMode, r.Mode())
			assert.True(t, r.Available())
		})
	}
}

func TestNewResolver_DoesNotMutateConfig(t *testing.T) {
	cfg := &Config{}
	_, err := NewResolver(cfg)
	require.NoError(t, err)
	assert.Equal(t, Mode(""), cfg.Mode)
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSoftware, m)

	m, err = ParseMode("seeded")
	require.NoError(t, err)
	assert.Equal(t, ModeSeeded, m)

	_, err = ParseMode("pkcs11")
	assert.Error(t, err)
}

func TestSoftwareResolver(t *testing.T) {
	r, err := NewResolver(ModeSoftware)
	require.NoError(t, err)

	a, err := r.Rand(32)
	require.NoError(t, err)
	b, err := r.Rand(32)
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)

	buf := make([]byte, 16)
	n, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	_, err = r.Rand(-1)
	assert.Error(t, err)
}

func TestSeededResolver_Deterministic(t *testing.T) {
	newSeeded := func(seed string) Resolver {
		r, err := NewResolver(&Config{Mode: ModeSeeded, Seed: []byte(seed)})
		require.NoError(t, err)
		return r
	}

	a := newSeeded("fixture")
	b := newSeeded("fixture")
	c := newSeeded("other")

	outA, err := a.Rand(64)
	require.NoError(t, err)
	outB, err := b.Rand(64)
	require.NoError(t, err)
	outC, err := c.Rand(64)
	require.NoError(t, err)

	assert.Equal(t, outA, outB)
	assert.NotEqual(t, outA, outC)

	// The stream advances between reads.
	next, err := a.Rand(64)
	require.NoError(t, err)
	assert.NotEqual(t, outA, next)
}

func TestSeededResolver_SplitReadsMatchSingleRead(t *testing.T) {
	cfg := &Config{Mode: ModeSeeded, Seed: []byte("chunking")}
	whole, err := NewResolver(cfg)
	require.NoError(t, err)
	parts, err := NewResolver(cfg)
	require.NoError(t, err)

	all, err := whole.Rand(48)
	require.NoError(t, err)

	first, err := parts.Rand(7)
	require.NoError(t, err)
	rest, err := parts.Rand(41)
	require.NoError(t, err)

	assert.Equal(t, all, append(first, rest...))
}

func TestSeededResolver_Close(t *testing.T) {
	r, err := NewResolver(&Config{Mode: ModeSeeded, Seed: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.False(t, r.Available())

	_, err = r.Read(make([]byte, 4))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSeededResolver_Concurrent(t *testing.T) {
	r, err := NewResolver(&Config{Mode: ModeSeeded, Seed: []byte("concurrent")})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, err := r.Rand(32)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
}
