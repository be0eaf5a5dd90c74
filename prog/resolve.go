// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"fmt"
	"sync"
)

// Resolver maps type tags to ordered lists of argument descriptors.
// Resolution is a pure function of the tag text, results are cached per text.
// Returned lists and descriptors are shared and must not be modified.
type Resolver struct {
	mu    sync.Mutex
	cache map[resolveKey][]Arg
}

type resolveKey struct {
	text  string
	width int
}

func NewResolver() *Resolver {
	return &Resolver{
		cache: make(map[resolveKey][]Arg),
	}
}

// ResolveText parses and resolves a tag given as text.
func (r *Resolver) ResolveText(text string) ([]Arg, error) {
	tag, err := ParseTag(text)
	if err != nil {
		return nil, err
	}
	return r.Resolve(tag)
}

// Resolve returns the values of the tag as a top-level (register wide) argument.
func (r *Resolver) Resolve(tag *Tag) ([]Arg, error) {
	return r.resolve(tag, 64)
}

func (r *Resolver) resolve(tag *Tag, width int) ([]Arg, error) {
	key := resolveKey{tag.Text, width}
	r.mu.Lock()
	res, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return res, nil
	}
	res, err := r.generate(tag, width)
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		panic(fmt.Sprintf("tag %q resolved to no values", tag.Text))
	}
	r.mu.Lock()
	r.cache[key] = res
	r.mu.Unlock()
	return res, nil
}

// Values of the symbolic classes. These are deliberately small and adversarial.
const (
	smallBufSize  = 128
	pageBufSize   = 4096
	initBufSize   = 256
	regularFile   = "stuffhere"
	scriptFile    = "#!/bin/sh\necho hi\n"
	maxPid        = ^uint64(0)
	lowDescriptor = 1
)

func (r *Resolver) generate(tag *Tag, width int) ([]Arg, error) {
	switch tag.Kind {
	case TagInt:
		return []Arg{MakeConstArg(width, tag.Val)}, nil
	case TagString:
		return []Arg{MakeStringArg(tag.Data, true)}, nil
	case TagData:
		return []Arg{MakeStringArg(tag.Data, false)}, nil
	case TagVector:
		lanes := make([][]Arg, len(tag.Elems))
		for i, elem := range tag.Elems {
			vals, err := r.resolve(elem, tag.Width)
			if err != nil {
				return nil, err
			}
			lanes[i] = vals
		}
		var res []Arg
		for _, tuple := range Cross(lanes) {
			res = append(res, MakeVectorArg(tag.Width, tuple))
		}
		return res, nil
	case TagUnion:
		// A union offers a choice of representative values, so alternatives are concatenated.
		var res []Arg
		for _, elem := range tag.Elems {
			vals, err := r.resolve(elem, width)
			if err != nil {
				return nil, err
			}
			res = append(res, vals...)
		}
		return res, nil
	case TagClass:
		return classValues(tag.Class, width)
	case TagLen:
		return []Arg{&LenArg{Target: tag.Target, Abs: true}}, nil
	case TagRef:
		return []Arg{&RefArg{Call: tag.Call, Arg: tag.Arg}}, nil
	case TagAlloc:
		return []Arg{&BufferArg{Size: tag.Val}}, nil
	case TagStdFile:
		return []Arg{&StdFileArg{N: tag.Val}}, nil
	case TagFile:
		return []Arg{&FileArg{Contents: tag.Data}}, nil
	case TagPath:
		return []Arg{&FilenameArg{Contents: tag.Data}}, nil
	default:
		return nil, fmt.Errorf("%w: tag %q of kind %v", ErrUnknownType, tag.Text, tag.Kind)
	}
}

func classValues(class Class, width int) ([]Arg, error) {
	switch class {
	case ClassFD:
		return []Arg{
			MakeConstArg(width, lowDescriptor),
			&FileArg{Contents: []byte(regularFile)},
			&StdFileArg{N: 0},
		}, nil
	case ClassFilename:
		return []Arg{
			MakeStringArg([]byte("/tmp/file9"), true),
			MakeStringArg([]byte("/"), true),
			MakeStringArg([]byte("/tmp"), true),
			&FilenameArg{Contents: []byte(scriptFile)},
		}, nil
	case ClassString:
		return []Arg{
			MakeStringArg([]byte("testing"), true),
			&BufferArg{Size: initBufSize, Init: true},
			&FilenameArg{Contents: []byte(regularFile)},
		}, nil
	case ClassBuffer:
		return []Arg{
			&BufferArg{Size: smallBufSize},
			&BufferArg{Size: pageBufSize},
		}, nil
	case ClassSize:
		return []Arg{&LenArg{Target: -1}}, nil
	case ClassPid:
		return []Arg{
			MakeConstArg(width, 0),
			MakeConstArg(width, maxPid),
			&PidArg{Which: PidSelf},
			&PidArg{Which: PidParent},
			&PidArg{Which: PidChild},
		}, nil
	default:
		return nil, fmt.Errorf("%w: class %v", ErrUnknownType, class)
	}
}
