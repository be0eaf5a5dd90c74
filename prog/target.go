// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"fmt"

	"github.com/syztempl/syztempl/sys/targets"
)

// Target is the calling convention cases are encoded for.
type Target struct {
	*targets.Target
}

func GetTarget(OS, arch string) (*Target, error) {
	target := targets.Get(OS, arch)
	if target == nil {
		return nil, fmt.Errorf("unknown target: %v/%v", OS, arch)
	}
	return &Target{target}, nil
}

// ParseTarget accepts "os/arch".
func ParseTarget(str string) (*Target, error) {
	target, err := targets.Parse(str)
	if err != nil {
		return nil, err
	}
	return &Target{target}, nil
}

// Pids are process ids that process identity placeholders resolve to at generation time.
type Pids struct {
	Self   uint64
	Parent uint64
	Child  uint64
}

func (pids *Pids) get(which Pid) uint64 {
	switch which {
	case PidSelf:
		return pids.Self
	case PidParent:
		return pids.Parent
	case PidChild:
		return pids.Child
	default:
		panic(fmt.Sprintf("bad pid %v", which))
	}
}

// Env carries the generation environment of an encoder.
type Env struct {
	Pids Pids
	// ReplayPids leaves process identities for the harness to resolve at replay time
	// instead of baking the ids of the generating process into the case.
	ReplayPids bool
}
