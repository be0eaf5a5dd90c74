// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

//go:build !unix

package osutil

import (
	"os"
	"os/exec"
)

func HandleInterrupts(shutdown chan struct{}) {
}

func ProcessIDs() (self, parent int) {
	return os.Getpid(), os.Getppid()
}

func IsProcessAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}

func setPdeathsig(cmd *exec.Cmd) {
}

func killPgroup(cmd *exec.Cmd) {
}
