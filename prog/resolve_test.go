// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func argStrings(args []Arg) []string {
	var res []string
	for _, arg := range args {
		res = append(res, arg.String())
	}
	return res
}

func TestResolve(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"0x10", []string{"0x10"}},
		{`"/tmp"`, []string{`"/tmp"`}},
		{`x"0102"`, []string{`x"0102"`}},
		{"fd", []string{"0x1", `file("stuffhere")`, "stdfd(0)"}},
		{"fn", []string{`"/tmp/file9"`, `"/"`, `"/tmp"`, `path("#!/bin/sh\necho hi\n")`}},
		{"str", []string{`"testing"`, "buf(0x100, init)", `path("stuffhere")`}},
		{"buf", []string{"alloc(0x80)", "alloc(0x1000)"}},
		{"sz", []string{"len(-1)"}},
		{"pid", []string{"0x0", "0xffffffffffffffff", "pid(self)", "pid(parent)", "pid(child)"}},
		{"sz@3", []string{"len(@3)"}},
		{"ref:1.2", []string{"ref(1.2)"}},
		{"alloc:16", []string{"alloc(0x10)"}},
		{"stdfd:2", []string{"stdfd(2)"}},
		{"{1;buf}", []string{"0x1", "alloc(0x80)", "alloc(0x1000)"}},
		{"[1,{2;3}]", []string{"[0x1, 0x2]", "[0x1, 0x3]"}},
		{"32[buf,sz]", []string{"32[alloc(0x80), len(-1)]", "32[alloc(0x1000), len(-1)]"}},
		{"[{1;2},{3;4}]", []string{"[0x1, 0x3]", "[0x1, 0x4]", "[0x2, 0x3]", "[0x2, 0x4]"}},
	}
	r := NewResolver()
	for _, test := range tests {
		t.Run(test.text, func(t *testing.T) {
			args, err := r.ResolveText(test.text)
			require.NoError(t, err)
			if diff := cmp.Diff(test.want, argStrings(args)); diff != "" {
				t.Fatal(diff)
			}
		})
	}
}

func TestResolveUnionVsVector(t *testing.T) {
	// Union alternatives are concatenated, vector lanes are multiplied.
	r := NewResolver()
	union, err := r.ResolveText("{fd;pid}")
	require.NoError(t, err)
	assert.Len(t, union, 3+5)
	vec, err := r.ResolveText("[fd,pid]")
	require.NoError(t, err)
	assert.Len(t, vec, 3*5)
	vec, err = r.ResolveText("[0,0,pid]")
	require.NoError(t, err)
	require.Len(t, vec, 5)
	for i, arg := range vec {
		v := arg.(*VectorArg)
		require.Len(t, v.Lanes, 3)
		assert.Equal(t, uint64(24), v.Len())
		if i >= 2 {
			assert.IsType(t, &PidArg{}, v.Lanes[2])
		}
	}
}

func TestResolveLaneWidth(t *testing.T) {
	r := NewResolver()
	args, err := r.ResolveText("32[7,pid]")
	require.NoError(t, err)
	for _, arg := range args {
		vec := arg.(*VectorArg)
		assert.Equal(t, 32, vec.Width)
		assert.Equal(t, 32, vec.Lanes[0].(*ConstArg).Width)
	}
	args, err = r.ResolveText("7")
	require.NoError(t, err)
	assert.Equal(t, 64, args[0].(*ConstArg).Width)
}

func TestResolveCached(t *testing.T) {
	r := NewResolver()
	a, err := r.ResolveText("buf")
	require.NoError(t, err)
	b, err := r.ResolveText("buf")
	require.NoError(t, err)
	require.Len(t, b, len(a))
	for i := range a {
		assert.Same(t, a[i], b[i])
	}
}

func TestBufferBytes(t *testing.T) {
	assert.Equal(t, make([]byte, 4), (&BufferArg{Size: 4}).Bytes())
	data := (&BufferArg{Size: initBufSize, Init: true}).Bytes()
	require.Len(t, data, initBufSize)
	for i, b := range data {
		assert.Equal(t, byte(i), b)
	}
}

func TestStringLen(t *testing.T) {
	str := MakeStringArg([]byte("testing"), true)
	assert.Equal(t, uint64(8), str.Len())
	assert.Equal(t, []byte("testing\x00"), str.Bytes())
	raw := MakeStringArg([]byte{1, 2}, false)
	assert.Equal(t, uint64(2), raw.Len())
}
