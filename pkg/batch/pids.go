// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package batch

import (
	"fmt"

	"github.com/syztempl/syztempl/pkg/log"
	"github.com/syztempl/syztempl/pkg/osutil"
	"github.com/syztempl/syztempl/prog"
)

// LivePids returns ids of the current process, its parent and of a child process
// that stays alive until stop is called.
func LivePids() (pids prog.Pids, stop func(), err error) {
	self, parent := osutil.ProcessIDs()
	cmd := osutil.Command("sleep", "1000000")
	if err := cmd.Start(); err != nil {
		return pids, nil, fmt.Errorf("failed to start child process: %w", err)
	}
	pids = prog.Pids{
		Self:   uint64(self),
		Parent: uint64(parent),
		Child:  uint64(cmd.Process.Pid),
	}
	log.Logf(1, "pids: self=%v parent=%v child=%v", pids.Self, pids.Parent, pids.Child)
	stop = func() {
		cmd.Process.Kill()
		cmd.Wait()
	}
	return pids, stop, nil
}
