// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// ExecCase is a case with all placeholders resolved, in the shape of the replay format.
type ExecCase struct {
	Calls []ExecCall
}

type ExecCall struct {
	NR     uint64
	Args   []ExecArg
	Copyin []ExecCopyin
}

type ExecCopyin struct {
	Addr uint64
	Arg  ExecArg
}

// ExecArg is one of ExecArg* types.
type ExecArg interface{}

type ExecArgConst struct {
	Size  uint64
	Value uint64
}

type ExecArgData struct {
	Data []byte
}

// ExecArgStdFile is substituted with a descriptor for a standard stream by the harness.
type ExecArgStdFile struct {
	Size uint64
	N    uint64
}

// ExecArgFile is substituted with a descriptor of a temporary file holding Contents.
type ExecArgFile struct {
	Size     uint64
	Contents []byte
}

// ExecArgFilename is substituted with the address of the path of a temporary file holding Contents.
type ExecArgFilename struct {
	Size     uint64
	Contents []byte
}

// ExecArgPid is substituted with a process id at replay time.
type ExecArgPid struct {
	Size  uint64
	Which Pid
}

// DeserializeExec parses data produced by SerializeExec.
func (target *Target) DeserializeExec(data []byte) (*ExecCase, error) {
	dec := &execDecoder{
		target: target,
		order:  target.ByteOrder(),
		data:   data,
	}
	dec.parse()
	if dec.err != nil {
		return nil, dec.err
	}
	return &dec.c, nil
}

type execDecoder struct {
	target *Target
	order  binary.ByteOrder
	data   []byte
	err    error
	c      ExecCase
}

func (dec *execDecoder) parse() {
	for dec.err == nil {
		nr := dec.read()
		if nr == ExecInstrEOF {
			if dec.err == nil && len(dec.data) != 0 {
				dec.setErr(fmt.Errorf("%v trailing bytes after EOF", len(dec.data)))
			}
			return
		}
		call := ExecCall{NR: nr}
		nargs := dec.read()
		if nargs != uint64(dec.target.SyscallArgs) {
			dec.setErr(fmt.Errorf("call %v has %v args, want %v", nr, nargs, dec.target.SyscallArgs))
			return
		}
		for i := uint64(0); i < nargs; i++ {
			call.Args = append(call.Args, dec.readArg(false))
		}
		ncopyin := dec.read()
		for i := uint64(0); i < ncopyin && dec.err == nil; i++ {
			addr := dec.read()
			call.Copyin = append(call.Copyin, ExecCopyin{Addr: addr, Arg: dec.readArg(true)})
		}
		if dec.err == nil {
			dec.c.Calls = append(dec.c.Calls, call)
		}
	}
}

func (dec *execDecoder) readArg(copyin bool) ExecArg {
	switch kind := dec.read(); kind {
	case execArgConst:
		return ExecArgConst{Size: dec.readSize(), Value: dec.read()}
	case execArgData:
		if !copyin {
			dec.setErr(fmt.Errorf("data argument in a register"))
		}
		return ExecArgData{Data: dec.readBlob()}
	case execArgStdFile:
		return ExecArgStdFile{Size: dec.readSize(), N: dec.read()}
	case execArgFile:
		return ExecArgFile{Size: dec.readSize(), Contents: dec.readBlob()}
	case execArgFilename:
		return ExecArgFilename{Size: dec.readSize(), Contents: dec.readBlob()}
	case execArgPid:
		size := dec.readSize()
		which := dec.read()
		if which >= uint64(pidCount) {
			dec.setErr(fmt.Errorf("bad pid %v", which))
		}
		return ExecArgPid{Size: size, Which: Pid(which)}
	default:
		dec.setErr(fmt.Errorf("bad argument kind %v", kind))
		return nil
	}
}

func (dec *execDecoder) readSize() uint64 {
	size := dec.read()
	if size != 4 && size != 8 {
		dec.setErr(fmt.Errorf("bad argument size %v", size))
	}
	return size
}

func (dec *execDecoder) read() uint64 {
	if dec.err != nil {
		return 0
	}
	if len(dec.data) < 8 {
		dec.setErr(fmt.Errorf("truncated replay data"))
		return 0
	}
	v := dec.order.Uint64(dec.data)
	dec.data = dec.data[8:]
	return v
}

func (dec *execDecoder) readBlob() []byte {
	size := dec.read()
	if dec.err != nil {
		return nil
	}
	padded := (size + 7) / 8 * 8
	if padded < size || padded > uint64(len(dec.data)) {
		dec.setErr(fmt.Errorf("truncated blob of %v bytes", size))
		return nil
	}
	data := dec.data[:size:size]
	dec.data = dec.data[padded:]
	return data
}

func (dec *execDecoder) setErr(err error) {
	if dec.err == nil {
		dec.err = err
	}
}

// String dumps the case in a human-readable form, one instruction per line.
func (ec *ExecCase) String() string {
	buf := new(strings.Builder)
	for i, c := range ec.Calls {
		fmt.Fprintf(buf, "call #%v: nr=%v\n", i, c.NR)
		for _, copyin := range c.Copyin {
			fmt.Fprintf(buf, "\tcopyin 0x%x <- %v\n", copyin.Addr, execArgString(copyin.Arg))
		}
		for j, arg := range c.Args {
			fmt.Fprintf(buf, "\targ%v = %v\n", j, execArgString(arg))
		}
	}
	return buf.String()
}

func execArgString(arg ExecArg) string {
	switch a := arg.(type) {
	case ExecArgConst:
		return fmt.Sprintf("const%v 0x%x", a.Size*8, a.Value)
	case ExecArgData:
		return fmt.Sprintf("data[%v] %q", len(a.Data), a.Data)
	case ExecArgStdFile:
		return fmt.Sprintf("stdfd%v %v", a.Size*8, a.N)
	case ExecArgFile:
		return fmt.Sprintf("file%v %q", a.Size*8, a.Contents)
	case ExecArgFilename:
		return fmt.Sprintf("filename%v %q", a.Size*8, a.Contents)
	case ExecArgPid:
		return fmt.Sprintf("pid%v %v", a.Size*8, a.Which)
	default:
		return fmt.Sprintf("%#v", arg)
	}
}
