// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syztempl/syztempl/pkg/db"
	"github.com/syztempl/syztempl/pkg/hash"
)

func TestCaseName(t *testing.T) {
	assert.Equal(t, "105_setsockopt_000", CaseName(105, "setsockopt", 0, true))
	assert.Equal(t, "004_write_012", CaseName(4, "write", 12, true))
	assert.Equal(t, "write_012", CaseName(4, "write", 12, false))
	assert.Equal(t, "1000_x_1000", CaseName(1000, "x", 1000, true))
}

func TestSequencer(t *testing.T) {
	s := NewSequencer()
	assert.Equal(t, 0, s.Next(4, "write"))
	assert.Equal(t, 1, s.Next(4, "write"))
	assert.Equal(t, 0, s.Next(3, "write"))
	assert.Equal(t, 0, s.Next(4, "pwrite"))
	assert.Equal(t, 2, s.Next(4, "write"))

	// A fresh sequencer starts over.
	assert.Equal(t, 0, NewSequencer().Next(4, "write"))
}

func TestSequencerConcurrent(t *testing.T) {
	s := NewSequencer()
	const n = 100
	seen := make([]bool, n)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq := s.Next(1, "a")
			mu.Lock()
			seen[seq] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	for i, ok := range seen {
		assert.True(t, ok, i)
	}
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	dbFile := filepath.Join(t.TempDir(), "corpus.db")
	w, err := NewWriter(dir, true, dbFile)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Dir())

	e0, err := w.Write(4, "write", []byte{1, 2, 3})
	require.NoError(t, err)
	e1, err := w.Write(4, "write", []byte{4})
	require.NoError(t, err)
	e2, err := w.Write(3, "read", nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "004_write_000", e0.Name)
	assert.Equal(t, 0, e0.Seq)
	assert.Equal(t, 3, e0.Size)
	assert.Equal(t, hash.String([]byte{1, 2, 3}), e0.Hash)
	assert.Equal(t, "004_write_001", e1.Name)
	assert.Equal(t, 1, e1.Seq)
	assert.Equal(t, "003_read_000", e2.Name)

	data, err := os.ReadFile(e0.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)
	data, err = os.ReadFile(filepath.Join(dir, "004_write_001"))
	require.NoError(t, err)
	assert.Equal(t, []byte{4}, data)

	database, err := db.Open(dbFile)
	require.NoError(t, err)
	assert.Equal(t, uint64(FormatVersion), database.Version)
	assert.Equal(t, []string{"003_read_000", "004_write_000", "004_write_001"}, database.Keys())
	assert.Equal(t, []byte{4}, database.Records["004_write_001"].Val)
}

func TestWriterNoDB(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWriter(dir, false, "")
	require.NoError(t, err)
	e, err := w.Write(4, "write", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "write_000", e.Name)
	assert.FileExists(t, filepath.Join(dir, "write_000"))
	assert.NoError(t, w.Close())
}

func TestWriterNoNRSharedName(t *testing.T) {
	// Different syscall numbers with one name (e.g. compat entry points) must not overwrite each other.
	dir := t.TempDir()
	w, err := NewWriter(dir, false, "")
	require.NoError(t, err)
	var names []string
	for _, nr := range []uint64{4, 5, 4} {
		e, err := w.Write(nr, "write", []byte{byte(nr)})
		require.NoError(t, err)
		names = append(names, e.Name)
	}
	require.NoError(t, w.Close())
	assert.Equal(t, []string{"write_000", "write_001", "write_002"}, names)
	for i, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Equal(t, []byte{byte([]uint64{4, 5, 4}[i])}, data)
	}

	// With the number in the name the sequences stay separate.
	w, err = NewWriter(t.TempDir(), true, "")
	require.NoError(t, err)
	e4, err := w.Write(4, "write", nil)
	require.NoError(t, err)
	e5, err := w.Write(5, "write", nil)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Equal(t, "004_write_000", e4.Name)
	assert.Equal(t, "005_write_000", e5.Name)
}
