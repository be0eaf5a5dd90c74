// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManifest(t *testing.T) {
	m := NewManifest("openbsd/amd64", []string{"a.tmpl"})
	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, m.RunID, NewManifest("openbsd/amd64", nil).RunID)

	m.Add(&ManifestEntry{Name: "write_001", Template: "a.tmpl:2", Index: 1, Size: 8})
	m.Add(&ManifestEntry{Name: "write_000", Template: "a.tmpl:2", Index: 0, Size: 16})
	m.SetVerdict("write_001", "pass")
	m.SetVerdict("nonexistent", "fail")

	file := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, m.Save(file))
	loaded, err := LoadManifest(file)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, loaded.RunID)
	assert.Equal(t, "openbsd/amd64", loaded.Target)
	assert.True(t, m.Started.Equal(loaded.Started))
	assert.Equal(t, []string{"a.tmpl"}, loaded.Templates)
	require.Len(t, loaded.Cases, 2)
	assert.Equal(t, "write_000", loaded.Cases[0].Name)
	assert.Equal(t, "", loaded.Cases[0].Verdict)
	assert.Equal(t, "write_001", loaded.Cases[1].Name)
	assert.Equal(t, "pass", loaded.Cases[1].Verdict)
}

func TestManifestManyVerdicts(t *testing.T) {
	const n = 100000
	m := NewManifest("test/64", nil)
	for i := 0; i < n; i++ {
		m.Add(&ManifestEntry{Name: fmt.Sprintf("write_%06d", i)})
		if i%2 == 0 {
			// Verdicts arrive while cases are still being added.
			m.SetVerdict(fmt.Sprintf("write_%06d", i), "pass")
		}
	}
	for i := 1; i < n; i += 2 {
		m.SetVerdict(fmt.Sprintf("write_%06d", i), "fail")
	}
	for i, entry := range m.Cases {
		want := "pass"
		if i%2 != 0 {
			want = "fail"
		}
		if entry.Verdict != want {
			t.Fatalf("case %v: verdict %q, want %q", entry.Name, entry.Verdict, want)
		}
	}

	file := filepath.Join(t.TempDir(), ManifestFile)
	require.NoError(t, m.Save(file))
	loaded, err := LoadManifest(file)
	require.NoError(t, err)
	loaded.SetVerdict("write_000001", "unverified")
	loaded.Add(&ManifestEntry{Name: "write_extra"})
	loaded.SetVerdict("write_extra", "skipped")
	assert.Equal(t, "unverified", loaded.Cases[1].Verdict)
	assert.Equal(t, "skipped", loaded.Cases[n].Verdict)
}

func TestLoadManifestErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := LoadManifest(filepath.Join(dir, "nonexistent"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0644))
	_, err = LoadManifest(bad)
	assert.Error(t, err)

	noID := filepath.Join(dir, "noid.json")
	require.NoError(t, os.WriteFile(noID, []byte(`{"run_id": "foo"}`), 0644))
	_, err = LoadManifest(noID)
	assert.ErrorContains(t, err, "run id")
}
