// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package targets describes the syscall calling conventions of supported OS/arch pairs:
// register width, argument count, byte order and the data area the replay harness maps.
package targets

import (
	"encoding/binary"
	"fmt"
	"sort"
	"strings"
)

type Target struct {
	os
	OS         string
	Arch       string
	PtrSize    uint64
	PageSize   uint64
	NumPages   uint64
	DataOffset uint64
	BigEndian  bool
}

type os struct {
	// Number of register argument slots in the syscall calling convention.
	// Records always carry exactly that many slots.
	SyscallArgs int
	// E.g. "__NR_" or "SYS_".
	SyscallPrefix string
}

const (
	TestOS  = "test"
	Linux   = "linux"
	OpenBSD = "openbsd"
	FreeBSD = "freebsd"
	NetBSD  = "netbsd"

	AMD64   = "amd64"
	I386    = "386"
	ARM64   = "arm64"
	ARM     = "arm"
	PPC64LE = "ppc64le"
	S390x   = "s390x"
)

var List = map[string]map[string]*Target{
	TestOS: {
		"64": {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
		"32": {
			PtrSize:  4,
			PageSize: 8 << 10,
		},
		"64_be": {
			PtrSize:   8,
			PageSize:  4 << 10,
			BigEndian: true,
		},
	},
	Linux: {
		AMD64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
		I386: {
			PtrSize:  4,
			PageSize: 4 << 10,
		},
		ARM64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
		ARM: {
			PtrSize:  4,
			PageSize: 4 << 10,
		},
		PPC64LE: {
			PtrSize:  8,
			PageSize: 64 << 10,
		},
		S390x: {
			PtrSize:   8,
			PageSize:  4 << 10,
			BigEndian: true,
		},
	},
	OpenBSD: {
		AMD64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
		ARM64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
	},
	FreeBSD: {
		AMD64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
		I386: {
			PtrSize:  4,
			PageSize: 4 << 10,
		},
	},
	NetBSD: {
		AMD64: {
			PtrSize:  8,
			PageSize: 4 << 10,
		},
	},
}

var oses = map[string]os{
	TestOS: {
		SyscallArgs: 6,
	},
	Linux: {
		SyscallArgs:   6,
		SyscallPrefix: "__NR_",
	},
	// The BSDs go through syscall(2)/__syscall(2) which passes up to 8 arguments
	// (e.g. mmap has a padding argument before the offset).
	OpenBSD: {
		SyscallArgs:   8,
		SyscallPrefix: "SYS_",
	},
	FreeBSD: {
		SyscallArgs:   8,
		SyscallPrefix: "SYS_",
	},
	NetBSD: {
		SyscallArgs:   8,
		SyscallPrefix: "SYS_",
	},
}

func init() {
	for OS, archs := range List {
		for arch, target := range archs {
			target.os = oses[OS]
			target.OS = OS
			target.Arch = arch
			target.DataOffset = 512 << 20
			target.NumPages = (16 << 20) / target.PageSize
		}
	}
}

func Get(OS, arch string) *Target {
	if archs := List[OS]; archs != nil {
		return archs[arch]
	}
	return nil
}

// Parse parses "os/arch" target specification.
func Parse(str string) (*Target, error) {
	OS, arch, ok := strings.Cut(str, "/")
	if !ok || OS == "" || arch == "" {
		return nil, fmt.Errorf("bad target %q, want os/arch", str)
	}
	target := Get(OS, arch)
	if target == nil {
		return nil, fmt.Errorf("unknown target %v/%v, supported: %v", OS, arch, strings.Join(Names(), ", "))
	}
	return target, nil
}

// Names returns sorted "os/arch" names of all known targets.
func Names() []string {
	var names []string
	for OS, archs := range List {
		for arch := range archs {
			names = append(names, OS+"/"+arch)
		}
	}
	sort.Strings(names)
	return names
}

func (target *Target) String() string {
	return target.OS + "/" + target.Arch
}

// ByteOrder is the native byte order of the target, used for every word of a replay record.
func (target *Target) ByteOrder() binary.ByteOrder {
	if target.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DataSize is the size of the data area mapped by the harness at DataOffset.
func (target *Target) DataSize() uint64 {
	return target.NumPages * target.PageSize
}
