// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package corpus writes generated cases to disk: one replay file per case,
// named after the primary call and a per-call sequence number.
package corpus

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/syztempl/syztempl/pkg/db"
	"github.com/syztempl/syztempl/pkg/hash"
	"github.com/syztempl/syztempl/pkg/osutil"
)

// FormatVersion is stored as the version of corpus databases.
const FormatVersion = 1

// Sequencer hands out dense sequence numbers per (syscall number, name) pair.
// One sequencer is owned by one batch run.
type Sequencer struct {
	mu   sync.Mutex
	next map[seqKey]int
}

type seqKey struct {
	nr   uint64
	name string
}

func NewSequencer() *Sequencer {
	return &Sequencer{next: make(map[seqKey]int)}
}

// Next returns the next sequence number for the call, starting from 0.
func (s *Sequencer) Next(nr uint64, name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := seqKey{nr, name}
	seq := s.next[key]
	s.next[key] = seq + 1
	return seq
}

// CaseName returns the file name of a case: "%03d_<name>_%03d", or "<name>_%03d" without the number.
func CaseName(nr uint64, name string, seq int, withNR bool) string {
	if withNR {
		return fmt.Sprintf("%03d_%v_%03d", nr, name, seq)
	}
	return fmt.Sprintf("%v_%03d", name, seq)
}

// Entry describes one written case.
type Entry struct {
	Name string
	Path string
	Seq  int
	Size int
	Hash string
}

// Writer stores encoded cases in a directory and optionally mirrors them into a corpus database.
type Writer struct {
	dir    string
	withNR bool
	seq    *Sequencer
	mu     sync.Mutex
	db     *db.DB
}

// NewWriter creates the output directory. If dbFile is not empty, cases are also saved there.
func NewWriter(dir string, withNR bool, dbFile string) (*Writer, error) {
	if err := osutil.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("failed to create corpus dir: %w", err)
	}
	w := &Writer{
		dir:    dir,
		withNR: withNR,
		seq:    NewSequencer(),
	}
	if dbFile != "" {
		database, err := db.Open(dbFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open corpus database: %w", err)
		}
		if err := database.BumpVersion(FormatVersion); err != nil {
			return nil, err
		}
		w.db = database
	}
	return w, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// Write assigns the next sequence number of the call to the case and writes it out.
// Only successfully encoded cases must be passed here, so that numbering stays dense.
func (w *Writer) Write(nr uint64, name string, data []byte) (*Entry, error) {
	// Sequence numbers follow the file name, so without the number all calls of one name share them.
	seqNR := nr
	if !w.withNR {
		seqNR = 0
	}
	seq := w.seq.Next(seqNR, name)
	entry := &Entry{
		Name: CaseName(nr, name, seq, w.withNR),
		Seq:  seq,
		Size: len(data),
		Hash: hash.String(data),
	}
	entry.Path = filepath.Join(w.dir, entry.Name)
	if err := osutil.WriteFileAtomically(entry.Path, data); err != nil {
		return nil, fmt.Errorf("failed to write case %v: %w", entry.Name, err)
	}
	if w.db != nil {
		w.mu.Lock()
		w.db.Save(entry.Name, data, uint64(seq))
		w.mu.Unlock()
	}
	return entry, nil
}

// Close flushes the corpus database.
func (w *Writer) Close() error {
	if w.db == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.db.Flush()
}
