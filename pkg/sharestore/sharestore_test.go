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

package sharestore

import (
	"errors"
	"math/big"
	"testing"

	"github.com/jeremyhahn/go-shamir/pkg/shamir"
	"github.com/jeremyhahn/go-shamir/pkg/storage"
	"github.com/jeremyhahn/go-shamir/pkg/storage/file"
	"github.com/jeremyhahn/go-shamir/pkg/validation"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, n, th int, secret int64) []shamir.Share {
	t.Helper()
	gen, err := shamir.NewGenerator(nil)
	require.NoError(t, err)
	shares, err := gen.GenerateInt64(n, th, secret)
	require.NoError(t, err)
	return shares
}

func stores(t *testing.T) map[string]*Store {
	t.Helper()
	fs, err := file.NewWithFs(afero.NewMemMapFs(), "/shares")
	require.NoError(t, err)

	out := make(map[string]*Store)
	for name, backend := range map[string]storage.Backend{"memory": storage.NewMemory(), "file": fs} {
		s, err := New(&Config{Backend: backend})
		require.NoError(t, err)
		out[name] = s
	}
	return out
}

func TestStore_SaveLoadCombine(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			shares := generate(t, 12, 3, -991)
			session := shares[0].Session
			require.NoError(t, store.SaveSet(shares))

			loaded, err := store.LoadSet(session)
			require.NoError(t, err)
			require.Len(t, loaded, 12)
			// Numeric, not lexical, ordering: 1, 2, ..., 10, 11, 12
			for i := range shares {
				assert.Equal(t, 0, shares[i].X.Cmp(loaded[i].X))
				assert.Equal(t, 0, shares[i].Y.Cmp(loaded[i].Y))
				assert.Equal(t, session, loaded[i].Session)
			}

			rec, err := shamir.NewReconstructor(nil)
			require.NoError(t, err)
			secret, err := rec.Reconstruct(loaded[4:7])
			require.NoError(t, err)
			assert.Equal(t, int64(-991), secret.Int64())

			assert.ErrorIs(t, store.SaveSet(shares), ErrSessionExists)
		})
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			a := generate(t, 5, 3, 1)
			b := generate(t, 2, 2, 2)
			require.NoError(t, store.SaveSet(a))
			require.NoError(t, store.SaveSet(b))

			infos, err := store.ListSessions()
			require.NoError(t, err)
			require.Len(t, infos, 2)

			byID := map[string]SessionInfo{}
			for _, info := range infos {
				byID[info.ID] = info
			}
			assert.Equal(t, SessionInfo{ID: a[0].Session, Shares: 5, Threshold: 3, Total: 5}, byID[a[0].Session])
			assert.Equal(t, SessionInfo{ID: b[0].Session, Shares: 2, Threshold: 2, Total: 2}, byID[b[0].Session])

			n, err := store.DeleteSet(a[0].Session)
			require.NoError(t, err)
			assert.Equal(t, 5, n)

			_, err = store.LoadSet(a[0].Session)
			assert.ErrorIs(t, err, ErrSessionNotFound)
			_, err = store.DeleteSet(a[0].Session)
			assert.ErrorIs(t, err, ErrSessionNotFound)

			infos, err = store.ListSessions()
			require.NoError(t, err)
			assert.Len(t, infos, 1)
		})
	}
}

func TestStore_SaveSetRejects(t *testing.T) {
	store, err := New(&Config{Backend: storage.NewMemory()})
	require.NoError(t, err)

	a := generate(t, 3, 2, 1)
	b := generate(t, 3, 2, 1)

	untagged := []shamir.Share{{X: big.NewInt(1), Y: big.NewInt(2)}}
	badSession := []shamir.Share{a[0].Clone()}
	badSession[0].Session = "../../etc"

	tests := []struct {
		name   string
		shares []shamir.Share
		want   error
	}{
		{"empty", nil, shamir.ErrInsufficientShares},
		{"untagged", untagged, ErrUntagged},
		{"mixed sessions", []shamir.Share{a[0], b[1]}, shamir.ErrMixedSessions},
		{"unsafe session", badSession, validation.ErrMalformedInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, store.SaveSet(tt.shares), tt.want)
		})
	}

	keys, err := store.backend.List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

type failingBackend struct {
	storage.Backend
	failAfter int
	puts      int
}

func (f *failingBackend) Put(key string, value []byte, opts *storage.Options) error {
	f.puts++
	if f.puts > f.failAfter {
		return errors.New("disk full")
	}
	return f.Backend.Put(key, value, opts)
}

func TestStore_SaveSetRollsBack(t *testing.T) {
	backend := &failingBackend{Backend: storage.NewMemory(), failAfter: 2}
	store, err := New(&Config{Backend: backend})
	require.NoError(t, err)

	err = store.SaveSet(generate(t, 4, 2, 9))
	require.Error(t, err)

	keys, err := backend.List("")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestStore_LoadSetCorrupt(t *testing.T) {
	backend := storage.NewMemory()
	store, err := New(&Config{Backend: backend})
	require.NoError(t, err)

	shares := generate(t, 2, 2, 3)
	require.NoError(t, store.SaveSet(shares))
	require.NoError(t, backend.Put(Key(shares[0].Session, 2), []byte(`{"x":"zz"}`), nil))

	_, err = store.LoadSet(shares[0].Session)
	assert.ErrorIs(t, err, shamir.ErrInvalidShare)

	_, err = store.LoadSet("not-a-session")
	assert.ErrorIs(t, err, validation.ErrMalformedInput)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "shares/abc/7.json", Key("abc", 7))
	assert.Equal(t, 7, index("shares/abc/7.json"))
}

func TestDecode(t *testing.T) {
	sh, err := Decode([]byte(`{"x":"3","y":"4","threshold":2,"total":3,"session":"s"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(3), sh.X.Int64())

	_, err = Decode([]byte(`not json`))
	assert.ErrorIs(t, err, shamir.ErrInvalidShare)

	_, err = Decode([]byte(`{"x":"0","y":"4"}`))
	assert.ErrorIs(t, err, shamir.ErrInvalidShare)
}

func TestNew_RequiresBackend(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
	_, err = New(&Config{})
	assert.Error(t, err)
}
