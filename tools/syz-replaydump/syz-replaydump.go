// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// syz-replaydump decodes replay files and prints the calls in them.
// Usage:
//
//	syz-replaydump -target=openbsd/amd64 corpus/005_open_000 ...
//	syz-replaydump -target=openbsd/amd64 -db=corpus.db
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/syztempl/syztempl/pkg/db"
	"github.com/syztempl/syztempl/pkg/tool"
	"github.com/syztempl/syztempl/prog"
)

var (
	flagTarget = flag.String("target", "", "target OS/arch the files were generated for")
	flagDB     = flag.String("db", "", "dump all cases of this corpus.db")
)

func main() {
	defer tool.Init()()
	if *flagTarget == "" || (*flagDB == "" && flag.NArg() == 0) {
		fmt.Fprintf(os.Stderr, "usage: syz-replaydump -target=os/arch (-db=corpus.db | file...)\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	target, err := prog.ParseTarget(*flagTarget)
	if err != nil {
		tool.Fail(err)
	}
	if *flagDB != "" {
		cases, err := db.ReadCorpus(*flagDB, target)
		if err != nil {
			tool.Fail(err)
		}
		var keys []string
		for key := range cases {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Printf("%v:\n%v\n", key, cases[key])
		}
		return
	}
	for _, file := range flag.Args() {
		data, err := os.ReadFile(file)
		if err != nil {
			tool.Fail(err)
		}
		ec, err := target.DeserializeExec(data)
		if err != nil {
			tool.Failf("%v: %v", file, err)
		}
		fmt.Printf("%v:\n%v\n", file, ec)
	}
}
