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
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sync"

	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// ErrClosed is returned when reading from a closed resolver.
var ErrClosed = errors.New("rand: resolver closed")

const seededInfo = "go-shamir seeded rng v1"

// SeededResolver produces a deterministic ChaCha20 keystream.
type SeededResolver struct {
	mu     sync.Mutex
	cipher *chacha20.Cipher
	closed bool
}

var _ Resolver = (*SeededResolver)(nil)

func newSeededResolver(seed []byte) (Resolver, error) {
	if len(seed) == 0 {
		return nil, fmt.Errorf("seeded RNG requires a non-empty seed")
	}

	key := make([]byte, chacha20.KeySize)
	kdf := hkdf.New(sha256.New, seed, nil, []byte(seededInfo))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("failed to derive seeded RNG key: %w", err)
	}

	nonce := make([]byte, chacha20.NonceSize)
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to create seeded RNG: %w", err)
	}
	return &SeededResolver{cipher: c}, nil
}

func (s *SeededResolver) Rand(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("invalid byte count: %d", n)
	}
	buf := make([]byte, n)
	if _, err := s.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read fills p with the next bytes of the keystream.
func (s *SeededResolver) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrClosed
	}
	clear(p)
	s.cipher.XORKeyStream(p, p)
	return len(p), nil
}

func (s *SeededResolver) Mode() Mode {
	return ModeSeeded
}

func (s *SeededResolver) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.closed
}

func (s *SeededResolver) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
