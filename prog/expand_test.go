// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	r := NewResolver()
	spec := &CaseSpec{
		Calls: []*CallSpec{{
			NR:   105,
			Name: "setsockopt",
			Tags: mustParseTags(t, "fd", "0xffff", "0x1006", "[0,0]", "8"),
		}},
		File: "socket.tmpl",
		Line: 3,
	}
	e, err := r.Expand(spec)
	require.NoError(t, err)
	require.Equal(t, uint64(3), e.Count())
	var got []string
	for idx, c := range e.Cases() {
		assert.Equal(t, idx, c.Index)
		require.Len(t, c.Calls, 1)
		assert.Equal(t, uint64(105), c.Primary().NR)
		got = append(got, c.Primary().String())
	}
	want := []string{
		"setsockopt(0x1, 0xffff, 0x1006, [0x0, 0x0], 0x8)",
		`setsockopt(file("stuffhere"), 0xffff, 0x1006, [0x0, 0x0], 0x8)`,
		"setsockopt(stdfd(0), 0xffff, 0x1006, [0x0, 0x0], 0x8)",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatal(diff)
	}
	c, ok := e.Case(1)
	require.True(t, ok)
	assert.Equal(t, want[1], c.Primary().String())
	_, ok = e.Case(3)
	assert.False(t, ok)
}

func TestExpandChained(t *testing.T) {
	r := NewResolver()
	spec := &CaseSpec{
		Calls: []*CallSpec{
			{NR: 161, Name: "getfh", Tags: mustParseTags(t, `"/tmp"`, "alloc:0x20")},
			{NR: 298, Name: "fhopen", Tags: mustParseTags(t, "ref:0.1", "{0;2}"), Chained: true},
		},
		NoOracle: true,
	}
	e, err := r.Expand(spec)
	require.NoError(t, err)
	require.Equal(t, uint64(2), e.Count())
	var cases []string
	for _, c := range e.Cases() {
		assert.True(t, c.NoOracle)
		assert.Equal(t, "fhopen", c.Primary().Name)
		cases = append(cases, c.String())
	}
	assert.Equal(t, []string{
		"getfh(\"/tmp\", alloc(0x20))\nfhopen(ref(0.1), 0x0)\n",
		"getfh(\"/tmp\", alloc(0x20))\nfhopen(ref(0.1), 0x2)\n",
	}, cases)
}

func TestExpandNoArgs(t *testing.T) {
	r := NewResolver()
	e, err := r.Expand(&CaseSpec{Calls: []*CallSpec{{NR: 20, Name: "getpid"}}})
	require.NoError(t, err)
	require.Equal(t, uint64(1), e.Count())
	n := 0
	for _, c := range e.Cases() {
		assert.Empty(t, c.Primary().Args)
		n++
	}
	assert.Equal(t, 1, n)
}

func TestExpandArgsIsolated(t *testing.T) {
	// Appending to the arguments of one call must not clobber the next call.
	r := NewResolver()
	e, err := r.Expand(&CaseSpec{Calls: []*CallSpec{
		{NR: 1, Name: "a", Tags: mustParseTags(t, "1")},
		{NR: 2, Name: "b", Tags: mustParseTags(t, "2")},
	}})
	require.NoError(t, err)
	c, ok := e.Case(0)
	require.True(t, ok)
	c.Calls[0].Args = append(c.Calls[0].Args, MakeConstArg(64, 3))
	assert.Equal(t, "b(0x2)", c.Calls[1].String())
}
