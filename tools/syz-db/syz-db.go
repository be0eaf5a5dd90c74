// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// syz-db converts generated corpora between directories and corpus.db files.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syztempl/syztempl/pkg/corpus"
	"github.com/syztempl/syztempl/pkg/db"
	"github.com/syztempl/syztempl/pkg/osutil"
	"github.com/syztempl/syztempl/pkg/tool"
	"github.com/syztempl/syztempl/prog"
)

func main() {
	var (
		flagVersion = flag.Uint64("version", corpus.FormatVersion, "database version")
		flagTarget  = flag.String("target", "", "target OS/arch to check cases against")
	)
	defer tool.Init()()
	args := flag.Args()
	if len(args) != 3 {
		usage()
	}
	var target *prog.Target
	if *flagTarget != "" {
		var err error
		target, err = prog.ParseTarget(*flagTarget)
		if err != nil {
			tool.Failf("failed to find target: %v", err)
		}
	}
	switch args[0] {
	case "pack":
		pack(args[1], args[2], target, *flagVersion)
	case "unpack":
		unpack(args[1], args[2])
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  syz-db pack dir|corpus.tar.xz corpus.db\n")
	fmt.Fprintf(os.Stderr, "  syz-db unpack corpus.db dir\n")
	os.Exit(1)
}

func pack(dir, file string, target *prog.Target, version uint64) {
	files, err := corpus.Load(dir)
	if err != nil {
		tool.Failf("failed to read corpus: %v", err)
	}
	records := make(map[string]db.Record)
	for name, data := range files {
		if name == corpus.ManifestFile {
			continue
		}
		if target != nil {
			if _, err := target.DeserializeExec(data); err != nil {
				tool.Failf("failed to decode %v: %v", name, err)
			}
		}
		records[name] = db.Record{Val: data}
	}
	if err := db.Create(file, version, records); err != nil {
		tool.Fail(err)
	}
}

func unpack(file, dir string) {
	database, err := db.Open(file)
	if err != nil {
		tool.Failf("failed to open database: %v", err)
	}
	if err := osutil.MkdirAll(dir); err != nil {
		tool.Fail(err)
	}
	for _, key := range database.Keys() {
		if err := osutil.WriteFile(filepath.Join(dir, key), database.Records[key].Val); err != nil {
			tool.Failf("failed to output file: %v", err)
		}
	}
}
