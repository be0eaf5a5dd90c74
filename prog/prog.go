// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"bytes"
	"fmt"
	"strconv"
)

// Arg is an unresolved argument descriptor.
// Args are immutable once created and may be shared between cases.
type Arg interface {
	fmt.Stringer
	arg()
}

// ConstArg is a fixed scalar. Width is 32 or 64 bits.
type ConstArg struct {
	Width int
	Val   uint64
}

// StringArg is a fixed byte string passed by pointer.
type StringArg struct {
	Data       []byte
	Terminated bool
}

// BufferArg is a scratch region passed by pointer.
// Uninitialized buffers are zero-filled, initialized ones carry a fixed pattern.
type BufferArg struct {
	Size uint64
	Init bool
}

// VectorArg is a fixed-stride array of lanes passed by pointer. Width is the lane size in bits.
type VectorArg struct {
	Width int
	Lanes []Arg
}

// LenArg resolves to the byte length of a sibling argument's final encoding.
// If Abs is set, Target is the sibling index, otherwise it is an offset from
// the position of the LenArg itself (-1 is the preceding sibling).
type LenArg struct {
	Target int
	Abs    bool
}

// RefArg resolves to the final encoding of argument Arg of an earlier call Call in the same case.
type RefArg struct {
	Call int
	Arg  int
}

type Pid int

const (
	PidSelf Pid = iota
	PidParent
	PidChild
	pidCount
)

var pidNames = [...]string{
	PidSelf:   "self",
	PidParent: "parent",
	PidChild:  "child",
}

func (pid Pid) String() string {
	if pid < 0 || pid >= pidCount {
		return fmt.Sprintf("pid%d", int(pid))
	}
	return pidNames[pid]
}

// PidArg resolves to the id of a live process: the generating process, its parent or a spawned child.
type PidArg struct {
	Which Pid
}

// StdFileArg is a descriptor the replay harness opens before running the case.
type StdFileArg struct {
	N uint64
}

// FileArg is a descriptor of a fresh regular file with the given contents, opened by the harness.
type FileArg struct {
	Contents []byte
}

// FilenameArg is a pointer to the path of a fresh file with the given contents, created by the harness.
type FilenameArg struct {
	Contents []byte
}

func (*ConstArg) arg()    {}
func (*StringArg) arg()   {}
func (*BufferArg) arg()   {}
func (*VectorArg) arg()   {}
func (*LenArg) arg()      {}
func (*RefArg) arg()      {}
func (*PidArg) arg()      {}
func (*StdFileArg) arg()  {}
func (*FileArg) arg()     {}
func (*FilenameArg) arg() {}

func MakeConstArg(width int, val uint64) *ConstArg {
	return &ConstArg{Width: width, Val: val}
}

func MakeStringArg(data []byte, terminated bool) *StringArg {
	return &StringArg{Data: append([]byte{}, data...), Terminated: terminated}
}

func MakeVectorArg(width int, lanes []Arg) *VectorArg {
	return &VectorArg{Width: width, Lanes: lanes}
}

// Len returns the length of the string bytes as they are placed in memory.
func (arg *StringArg) Len() uint64 {
	n := uint64(len(arg.Data))
	if arg.Terminated {
		n++
	}
	return n
}

// Bytes returns the string as it is placed in memory.
func (arg *StringArg) Bytes() []byte {
	data := append([]byte{}, arg.Data...)
	if arg.Terminated {
		data = append(data, 0)
	}
	return data
}

// Bytes returns the initial contents of the buffer.
func (arg *BufferArg) Bytes() []byte {
	data := make([]byte, arg.Size)
	arg.fill(data)
	return data
}

func (arg *BufferArg) fill(data []byte) {
	if arg.Init {
		for i := range data {
			data[i] = byte(i)
		}
	}
}

// Len returns the byte length of the packed vector.
func (arg *VectorArg) Len() uint64 {
	return uint64(len(arg.Lanes)) * uint64(arg.Width/8)
}

func (arg *ConstArg) String() string {
	return fmt.Sprintf("0x%x", arg.Val)
}

func (arg *StringArg) String() string {
	if arg.Terminated {
		return strconv.Quote(string(arg.Data))
	}
	return fmt.Sprintf("x\"%x\"", arg.Data)
}

func (arg *BufferArg) String() string {
	if arg.Init {
		return fmt.Sprintf("buf(0x%x, init)", arg.Size)
	}
	return fmt.Sprintf("alloc(0x%x)", arg.Size)
}

func (arg *VectorArg) String() string {
	buf := new(bytes.Buffer)
	if arg.Width == 32 {
		buf.WriteString("32")
	}
	buf.WriteByte('[')
	for i, lane := range arg.Lanes {
		if i != 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(lane.String())
	}
	buf.WriteByte(']')
	return buf.String()
}

func (arg *LenArg) String() string {
	if arg.Abs {
		return fmt.Sprintf("len(@%v)", arg.Target)
	}
	return fmt.Sprintf("len(%+d)", arg.Target)
}

func (arg *RefArg) String() string {
	return fmt.Sprintf("ref(%v.%v)", arg.Call, arg.Arg)
}

func (arg *PidArg) String() string {
	return fmt.Sprintf("pid(%v)", arg.Which)
}

func (arg *StdFileArg) String() string {
	return fmt.Sprintf("stdfd(%v)", arg.N)
}

func (arg *FileArg) String() string {
	return fmt.Sprintf("file(%q)", arg.Contents)
}

func (arg *FilenameArg) String() string {
	return fmt.Sprintf("path(%q)", arg.Contents)
}

// Call is one concrete call instance: a syscall number and a tuple of argument descriptors.
type Call struct {
	NR   uint64
	Name string
	Args []Arg
}

func (c *Call) String() string {
	buf := new(bytes.Buffer)
	fmt.Fprintf(buf, "%v(", c.Name)
	for i, arg := range c.Args {
		if i != 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(arg.String())
	}
	buf.WriteByte(')')
	return buf.String()
}

// Case is an ordered sequence of calls encoded into one replay file.
type Case struct {
	Calls    []*Call
	NoOracle bool
	// Index is the flattened index of the case in the product of its case specification.
	Index uint64
}

// Primary returns the call that names the case (the last one, previous calls only set up state).
func (c *Case) Primary() *Call {
	return c.Calls[len(c.Calls)-1]
}

func (c *Case) String() string {
	buf := new(bytes.Buffer)
	for _, call := range c.Calls {
		buf.WriteString(call.String())
		buf.WriteByte('\n')
	}
	return buf.String()
}
