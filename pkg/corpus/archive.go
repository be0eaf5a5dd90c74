// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package corpus

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/syztempl/syztempl/pkg/osutil"
	"github.com/ulikunitz/xz"
)

// Archive packs all regular files of the corpus dir into a .tar.xz file.
// Files are stored sorted with zero mtimes, so identical corpora give identical archives.
func Archive(dir, out string) error {
	files, err := ReadDir(dir)
	if err != nil {
		return err
	}
	buf := new(bytes.Buffer)
	xw, err := xz.NewWriter(buf)
	if err != nil {
		return err
	}
	tw := tar.NewWriter(xw)
	for _, name := range sortedKeys(files) {
		data := files[name]
		hdr := &tar.Header{
			Name:     name,
			Mode:     osutil.DefaultFilePerm,
			Size:     int64(len(data)),
			Typeflag: tar.TypeReg,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	if err := xw.Close(); err != nil {
		return err
	}
	return osutil.WriteFileAtomically(out, buf.Bytes())
}

// ReadArchive returns contents of all files in a .tar.xz archive.
func ReadArchive(file string) (map[string][]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	xr, err := xz.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", file, err)
	}
	files := make(map[string][]byte)
	tr := tar.NewReader(xr)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %v: %w", file, err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("failed to read %v: %w", file, err)
		}
		files[hdr.Name] = data
	}
	return files, nil
}

// ReadDir returns contents of all regular files in the corpus dir.
func ReadDir(dir string) (map[string][]byte, error) {
	names, err := osutil.ListDir(dir)
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte)
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		file := filepath.Join(dir, name)
		info, err := os.Stat(file)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		files[name] = data
	}
	return files, nil
}

// Load reads a corpus from a directory or from a .tar.xz archive.
func Load(path string) (map[string][]byte, error) {
	if strings.HasSuffix(path, ".tar.xz") {
		return ReadArchive(path)
	}
	return ReadDir(path)
}
