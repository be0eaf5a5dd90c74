// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/syztempl/syztempl/pkg/osutil"
)

const ManifestFile = "manifest.json"

// Manifest lists all cases of one generation run.
type Manifest struct {
	RunID     string           `json:"run_id"`
	Target    string           `json:"target"`
	Started   time.Time        `json:"started"`
	Templates []string         `json:"templates"`
	Cases     []*ManifestEntry `json:"cases"`

	mu     sync.Mutex
	byName map[string]*ManifestEntry
}

type ManifestEntry struct {
	Name     string `json:"name"`
	Template string `json:"template"` // file:line of the case specification
	Index    uint64 `json:"index"`    // index of the case in the product of its specification
	Calls    string `json:"calls"`
	Size     int    `json:"size"`
	SHA1     string `json:"sha1"`
	Verdict  string `json:"verdict,omitempty"`
}

func NewManifest(target string, templates []string) *Manifest {
	return &Manifest{
		RunID:     uuid.NewString(),
		Target:    target,
		Started:   time.Now().UTC().Truncate(time.Second),
		Templates: templates,
	}
}

func (m *Manifest) Add(entry *ManifestEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cases = append(m.Cases, entry)
	if m.byName != nil {
		m.byName[entry.Name] = entry
	}
}

// SetVerdict records the oracle verdict of a case.
func (m *Manifest) SetVerdict(name, verdict string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byName == nil {
		m.byName = make(map[string]*ManifestEntry, len(m.Cases))
		for _, entry := range m.Cases {
			m.byName[entry.Name] = entry
		}
	}
	if entry := m.byName[name]; entry != nil {
		entry.Verdict = verdict
	}
}

// Save writes the manifest with cases sorted by name.
func (m *Manifest) Save(file string) error {
	m.mu.Lock()
	sort.Slice(m.Cases, func(i, j int) bool {
		return m.Cases[i].Name < m.Cases[j].Name
	})
	data, err := json.MarshalIndent(m, "", "\t")
	m.mu.Unlock()
	if err != nil {
		return err
	}
	return osutil.WriteFileAtomically(file, append(data, '\n'))
}

func LoadManifest(file string) (*Manifest, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	m := new(Manifest)
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %v: %w", file, err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return nil, fmt.Errorf("bad manifest %v run id: %w", file, err)
	}
	return m, nil
}
