// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// This file does serialization of cases into the replay format consumed by the harness.
// The format aims at simple parsing: binary and irreversible.
// Every word is 64 bits in the native byte order of the target:
//
//	case   := record* EOF
//	record := nr nargs arg{nargs} ncopyin (addr arg){ncopyin}
//	arg    := execArgConst size value
//	        | execArgData len bytes
//	        | execArgStdFile size n
//	        | execArgFile size len bytes
//	        | execArgFilename size len bytes
//	        | execArgPid size which
//
// bytes are raw and zero-padded to a multiple of 8. nargs is always the number of argument
// registers of the calling convention. Copyin instructions of a record are applied in order
// before the call is made.

package prog

import (
	"encoding/binary"
	"fmt"
)

const (
	ExecInstrEOF = ^uint64(0)
)

const (
	execArgConst = uint64(iota)
	execArgData
	execArgStdFile
	execArgFile
	execArgFilename
	execArgPid
)

// SerializeCase resolves and encodes all calls of c.
// Returned errors are confined to the case (see IsCaseError).
func (target *Target) SerializeCase(c *Case, env *Env) ([]byte, error) {
	ec, err := target.EncodeCase(c, env)
	if err != nil {
		return nil, err
	}
	return target.SerializeExec(ec), nil
}

// EncodeCase resolves all placeholders of c and lays out its data in the harness data area.
func (target *Target) EncodeCase(c *Case, env *Env) (*ExecCase, error) {
	if len(c.Calls) == 0 {
		return nil, fmt.Errorf("%w: case without calls", ErrEncoding)
	}
	if env == nil {
		env = new(Env)
	}
	enc := &encoder{
		target: target,
		order:  target.ByteOrder(),
		env:    env,
		mem:    newMemAlloc(target.DataOffset, target.DataSize()),
	}
	ec := new(ExecCase)
	for i, call := range c.Calls {
		ecall, err := enc.encodeCall(i, call)
		if err != nil {
			return nil, fmt.Errorf("call #%v %v: %w", i, call.Name, err)
		}
		ec.Calls = append(ec.Calls, ecall)
	}
	return ec, nil
}

type encoder struct {
	target *Target
	order  binary.ByteOrder
	env    *Env
	mem    *memAlloc
	calls  [][]*argNode // top-level arguments of the already encoded calls
}

// argNode is one argument or vector lane of the call being encoded.
type argNode struct {
	id    int
	name  string
	arg   Arg
	width int // slot or lane width in bits
	lanes []*argNode
	dep   *argNode // sibling a LenArg refers to

	// Final encoding of the slot/lane and the length of the argument payload
	// (pointee bytes for pointers, width for scalars).
	enc     ExecArg
	length  uint64
	pointer bool
}

func (enc *encoder) encodeCall(idx int, c *Call) (ExecCall, error) {
	if len(c.Args) > enc.target.SyscallArgs {
		return ExecCall{}, fmt.Errorf("%w: %v arguments, the calling convention has %v",
			ErrEncoding, len(c.Args), enc.target.SyscallArgs)
	}
	var nodes []*argNode
	var build func(args []Arg, width int, prefix string) []*argNode
	build = func(args []Arg, width int, prefix string) []*argNode {
		sibs := make([]*argNode, len(args))
		for i, arg := range args {
			n := &argNode{
				id:    len(nodes),
				name:  fmt.Sprintf("%v%v", prefix, i),
				arg:   arg,
				width: width,
			}
			nodes = append(nodes, n)
			sibs[i] = n
			if vec, ok := arg.(*VectorArg); ok {
				n.lanes = build(vec.Lanes, vec.Width, n.name+".lane")
			}
		}
		return sibs
	}
	top := build(c.Args, int(enc.target.PtrSize*8), "arg")
	g, err := enc.buildGraph(idx, top)
	if err != nil {
		return ExecCall{}, err
	}
	order, cycle := g.order()
	if cycle != nil {
		var names []string
		for _, id := range cycle {
			names = append(names, fmt.Sprintf("%v %v", nodes[id].name, nodes[id].arg))
		}
		return ExecCall{}, cycleError(names)
	}
	ecall := ExecCall{NR: c.NR}
	for _, id := range order {
		if err := enc.resolve(nodes[id], &ecall); err != nil {
			return ExecCall{}, err
		}
	}
	for _, n := range top {
		ecall.Args = append(ecall.Args, n.enc)
	}
	for len(ecall.Args) < enc.target.SyscallArgs {
		ecall.Args = append(ecall.Args, ExecArgConst{Size: enc.target.PtrSize})
	}
	enc.calls = append(enc.calls, top)
	return ecall, nil
}

// buildGraph records what every node depends on: a length on its target sibling,
// a vector on its lanes. References to earlier calls point to final encodings already,
// so they are only checked to point backwards.
func (enc *encoder) buildGraph(idx int, top []*argNode) (*depGraph, error) {
	var all []*argNode
	var walk func(sibs []*argNode) error
	walk = func(sibs []*argNode) error {
		for pos, n := range sibs {
			all = append(all, n)
			switch arg := n.arg.(type) {
			case *LenArg:
				target := arg.Target
				if !arg.Abs {
					target += pos
				}
				if target < 0 || target >= len(sibs) {
					return fmt.Errorf("%w: %v %v refers to a missing sibling", ErrUnresolvedReference, n.name, arg)
				}
				n.dep = sibs[target]
			case *VectorArg:
				if err := walk(n.lanes); err != nil {
					return err
				}
			case *RefArg:
				if arg.Call >= idx {
					return fmt.Errorf("%w: %v %v refers to call #%v which does not precede it",
						ErrUnresolvedReference, n.name, arg, arg.Call)
				}
				if arg.Arg >= len(enc.calls[arg.Call]) {
					return fmt.Errorf("%w: %v %v refers to argument %v, but call #%v has %v",
						ErrUnresolvedReference, n.name, arg, arg.Arg, arg.Call, len(enc.calls[arg.Call]))
				}
			}
		}
		return nil
	}
	if err := walk(top); err != nil {
		return nil, err
	}
	g := newDepGraph(len(all))
	for _, n := range all {
		if n.dep != nil {
			g.addDep(n.id, n.dep.id)
		}
		for _, lane := range n.lanes {
			g.addDep(n.id, lane.id)
		}
	}
	return g, nil
}

func (enc *encoder) resolve(n *argNode, call *ExecCall) error {
	size := uint64(n.width / 8)
	switch arg := n.arg.(type) {
	case *ConstArg:
		n.setConst(arg.Val)
	case *StringArg:
		return enc.place(n, arg.Len(), func(data []byte) { copy(data, arg.Bytes()) }, call)
	case *BufferArg:
		return enc.place(n, arg.Size, arg.fill, call)
	case *VectorArg:
		return enc.placeVector(n, arg, call)
	case *LenArg:
		n.setConst(n.dep.length)
	case *RefArg:
		ref := enc.calls[arg.Call][arg.Arg]
		n.enc = resizeExecArg(ref.enc, size)
		n.pointer = ref.pointer
		n.length = size
		if ref.pointer {
			n.length = ref.length
		}
	case *PidArg:
		if enc.env.ReplayPids {
			n.enc = ExecArgPid{Size: size, Which: arg.Which}
			n.length = size
		} else {
			n.setConst(enc.env.Pids.get(arg.Which))
		}
	case *StdFileArg:
		n.enc = ExecArgStdFile{Size: size, N: arg.N}
		n.length = size
	case *FileArg:
		n.enc = ExecArgFile{Size: size, Contents: arg.Contents}
		n.length = size
	case *FilenameArg:
		n.enc = ExecArgFilename{Size: size, Contents: arg.Contents}
		n.length = size
	default:
		panic(fmt.Sprintf("unknown arg %#v", arg))
	}
	return nil
}

func (n *argNode) setConst(v uint64) {
	size := uint64(n.width / 8)
	n.enc = ExecArgConst{Size: size, Value: v & sizeMask(size)}
	n.length = size
}

func (n *argNode) setPointer(addr uint64) error {
	size := uint64(n.width / 8)
	if addr&^sizeMask(size) != 0 {
		return fmt.Errorf("%w: %v: address 0x%x does not fit into %v bytes", ErrEncoding, n.name, addr, size)
	}
	n.enc = ExecArgConst{Size: size, Value: addr}
	n.pointer = true
	return nil
}

// place reserves size bytes, fills them and makes the node point to the region.
// Nothing is materialized before the region is reserved, so oversized buffers fail cheaply.
func (enc *encoder) place(n *argNode, size uint64, fill func([]byte), call *ExecCall) error {
	addr, err := enc.mem.alloc(size)
	if err != nil {
		return fmt.Errorf("%v: %w", n.name, err)
	}
	data := make([]byte, size)
	fill(data)
	call.Copyin = append(call.Copyin, ExecCopyin{Addr: addr, Arg: ExecArgData{Data: data}})
	n.length = uint64(len(data))
	return n.setPointer(addr)
}

// placeVector packs resolved lanes at a fixed stride. Lanes the harness resolves
// (descriptors, file paths, replay-time pids) are left zero and patched by separate copyins.
func (enc *encoder) placeVector(n *argNode, vec *VectorArg, call *ExecCall) error {
	if vec.Width != 32 && vec.Width != 64 {
		return fmt.Errorf("%w: %v: bad lane width %v", ErrEncoding, n.name, vec.Width)
	}
	stride := uint64(vec.Width / 8)
	addr, err := enc.mem.alloc(vec.Len())
	if err != nil {
		return fmt.Errorf("%v: %w", n.name, err)
	}
	data := make([]byte, vec.Len())
	var patches []ExecCopyin
	for i, lane := range n.lanes {
		off := uint64(i) * stride
		if v, ok := lane.enc.(ExecArgConst); ok {
			putUint(enc.order, data[off:], stride, v.Value)
			continue
		}
		patches = append(patches, ExecCopyin{Addr: addr + off, Arg: lane.enc})
	}
	call.Copyin = append(call.Copyin, ExecCopyin{Addr: addr, Arg: ExecArgData{Data: data}})
	call.Copyin = append(call.Copyin, patches...)
	n.length = uint64(len(data))
	return n.setPointer(addr)
}

func resizeExecArg(arg ExecArg, size uint64) ExecArg {
	switch a := arg.(type) {
	case ExecArgConst:
		a.Size, a.Value = size, a.Value&sizeMask(size)
		return a
	case ExecArgStdFile:
		a.Size = size
		return a
	case ExecArgFile:
		a.Size = size
		return a
	case ExecArgFilename:
		a.Size = size
		return a
	case ExecArgPid:
		a.Size = size
		return a
	default:
		panic(fmt.Sprintf("bad slot arg %#v", arg))
	}
}

func sizeMask(size uint64) uint64 {
	if size >= 8 {
		return ^uint64(0)
	}
	return 1<<(size*8) - 1
}

func putUint(order binary.ByteOrder, b []byte, size, v uint64) {
	switch size {
	case 4:
		order.PutUint32(b, uint32(v))
	case 8:
		order.PutUint64(b, v)
	default:
		panic(fmt.Sprintf("bad size %v", size))
	}
}

// SerializeExec writes an encoded case in the replay format.
func (target *Target) SerializeExec(ec *ExecCase) []byte {
	w := &execWriter{order: target.ByteOrder()}
	for _, c := range ec.Calls {
		w.write(c.NR)
		w.write(uint64(len(c.Args)))
		for _, arg := range c.Args {
			w.writeArg(arg)
		}
		w.write(uint64(len(c.Copyin)))
		for _, copyin := range c.Copyin {
			w.write(copyin.Addr)
			w.writeArg(copyin.Arg)
		}
	}
	w.write(ExecInstrEOF)
	return w.buf
}

type execWriter struct {
	buf   []byte
	order binary.ByteOrder
}

func (w *execWriter) write(v uint64) {
	var word [8]byte
	w.order.PutUint64(word[:], v)
	w.buf = append(w.buf, word[:]...)
}

func (w *execWriter) writeBlob(data []byte) {
	w.write(uint64(len(data)))
	w.buf = append(w.buf, data...)
	if pad := (8 - len(data)%8) % 8; pad != 0 {
		w.buf = append(w.buf, make([]byte, pad)...)
	}
}

func (w *execWriter) writeArg(arg ExecArg) {
	switch a := arg.(type) {
	case ExecArgConst:
		w.write(execArgConst)
		w.write(a.Size)
		w.write(a.Value)
	case ExecArgData:
		w.write(execArgData)
		w.writeBlob(a.Data)
	case ExecArgStdFile:
		w.write(execArgStdFile)
		w.write(a.Size)
		w.write(a.N)
	case ExecArgFile:
		w.write(execArgFile)
		w.write(a.Size)
		w.writeBlob(a.Contents)
	case ExecArgFilename:
		w.write(execArgFilename)
		w.write(a.Size)
		w.writeBlob(a.Contents)
	case ExecArgPid:
		w.write(execArgPid)
		w.write(a.Size)
		w.write(uint64(a.Which))
	default:
		panic(fmt.Sprintf("unknown exec arg %#v", arg))
	}
}
