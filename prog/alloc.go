// Copyright 2018 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"fmt"
)

// memAlloc hands out scratch regions of the harness data area for one case.
// Regions are never freed: a later call may refer to memory filled by an earlier one.
type memAlloc struct {
	base uint64
	size uint64
	next uint64
}

const memAllocGranule = 64 // all allocations are rounded to this size

func newMemAlloc(base, size uint64) *memAlloc {
	if base%memAllocGranule != 0 || size%memAllocGranule != 0 {
		panic(fmt.Sprintf("newMemAlloc: unaligned area 0x%x/0x%x", base, size))
	}
	return &memAlloc{
		base: base,
		size: size,
	}
}

// alloc returns the address of a new region of size0 bytes.
func (ma *memAlloc) alloc(size0 uint64) (uint64, error) {
	if size0 == 0 {
		size0 = 1
	}
	size := (size0 + memAllocGranule - 1) / memAllocGranule * memAllocGranule
	if size < size0 || ma.next+size > ma.size || ma.next+size < ma.next {
		return 0, fmt.Errorf("%w: data area exhausted: need 0x%x bytes, 0x%x left",
			ErrEncoding, size0, ma.size-ma.next)
	}
	addr := ma.base + ma.next
	ma.next += size
	return addr, nil
}
