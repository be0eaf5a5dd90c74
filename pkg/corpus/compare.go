// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// Diff is the difference between two corpora.
type Diff struct {
	Added   []string
	Removed []string
	Changed []FileDiff
}

type FileDiff struct {
	Name string
	// Changed lines of hex dumps of the two versions, prefixed with - and +.
	Text string
}

func (d *Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Changed) == 0
}

func (d *Diff) String() string {
	buf := new(strings.Builder)
	for _, name := range d.Removed {
		fmt.Fprintf(buf, "removed %v\n", name)
	}
	for _, name := range d.Added {
		fmt.Fprintf(buf, "added %v\n", name)
	}
	for _, file := range d.Changed {
		fmt.Fprintf(buf, "changed %v\n%v", file.Name, file.Text)
	}
	return buf.String()
}

// Compare compares two corpora file by file. The manifest is ignored since it differs between runs.
func Compare(oldFiles, newFiles map[string][]byte) *Diff {
	d := new(Diff)
	for _, name := range sortedKeys(oldFiles) {
		if name == ManifestFile {
			continue
		}
		newData, ok := newFiles[name]
		if !ok {
			d.Removed = append(d.Removed, name)
			continue
		}
		if oldData := oldFiles[name]; string(oldData) != string(newData) {
			d.Changed = append(d.Changed, FileDiff{
				Name: name,
				Text: diffText(hex.Dump(oldData), hex.Dump(newData)),
			})
		}
	}
	for _, name := range sortedKeys(newFiles) {
		if _, ok := oldFiles[name]; !ok && name != ManifestFile {
			d.Added = append(d.Added, name)
		}
	}
	return d
}

func diffText(oldText, newText string) string {
	diffMatcher := dmp.New()
	oldChars, newChars, lines := diffMatcher.DiffLinesToChars(oldText, newText)
	diffs := diffMatcher.DiffCharsToLines(diffMatcher.DiffMain(oldChars, newChars, false), lines)
	buf := new(strings.Builder)
	for _, diff := range diffs {
		var prefix string
		switch diff.Type {
		case dmp.DiffDelete:
			prefix = "-"
		case dmp.DiffInsert:
			prefix = "+"
		default:
			continue
		}
		for _, line := range strings.SplitAfter(diff.Text, "\n") {
			if line != "" {
				buf.WriteString(prefix + line)
			}
		}
	}
	return buf.String()
}

func sortedKeys(files map[string][]byte) []string {
	var names []string
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CompareDirs compares two corpora, each given as a directory or a .tar.xz archive.
func CompareDirs(oldPath, newPath string) (*Diff, error) {
	oldFiles, err := Load(oldPath)
	if err != nil {
		return nil, err
	}
	newFiles, err := Load(newPath)
	if err != nil {
		return nil, err
	}
	return Compare(oldFiles, newFiles), nil
}
