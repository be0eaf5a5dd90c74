// Copyright 2020 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains various helper utilitites useful for implementation of command line tools.
package tool

import (
	"flag"
	"fmt"
	"os"
)

var (
	flagCPUProfile = flag.String("cpuprofile", "", "write CPU profile to this file")
	flagMemProfile = flag.String("memprofile", "", "write memory profile to this file")
	flagTrace      = flag.String("trace", "", "write execution trace to this file")
)

// Init parses command line flags and sets up profiling.
// The returned function must be called before the tool exits: defer tool.Init()().
func Init() func() {
	flag.Parse()
	profiles := Profiles{CPU: *flagCPUProfile, Mem: *flagMemProfile, Trace: *flagTrace}
	stop, err := profiles.Start()
	if err != nil {
		Fail(err)
	}
	return func() {
		if err := stop(); err != nil {
			Fail(err)
		}
	}
}

func Failf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}
