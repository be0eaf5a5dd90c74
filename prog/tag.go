// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package prog

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Tag is a parsed argument type tag. Tags form a closed set of kinds;
// text that is not one of them is rejected by ParseTag before any generation happens.
type Tag struct {
	Kind TagKind
	Text string

	Val    uint64 // TagInt, TagAlloc, TagStdFile
	Data   []byte // TagString, TagData, TagFile, TagPath
	Width  int    // TagVector lane width in bits
	Elems  []*Tag // TagVector lanes, TagUnion alternatives
	Class  Class  // TagClass
	Target int    // TagLen sibling index
	Call   int    // TagRef
	Arg    int    // TagRef
}

type TagKind int

const (
	TagInt TagKind = iota
	TagString
	TagData
	TagVector
	TagUnion
	TagClass
	TagLen
	TagRef
	TagAlloc
	TagStdFile
	TagFile
	TagPath
)

// Class is a symbolic argument class that expands to a curated list of edge-case values.
type Class int

const (
	ClassFD Class = iota
	ClassFilename
	ClassString
	ClassBuffer
	ClassSize
	ClassPid
)

var classNames = map[string]Class{
	"fd":  ClassFD,
	"fn":  ClassFilename,
	"str": ClassString,
	"buf": ClassBuffer,
	"sz":  ClassSize,
	"pid": ClassPid,
}

func (tag *Tag) String() string {
	return tag.Text
}

// ParseTag parses a single type tag, e.g. "fd", "0x10", "[0,0,pid]", "{buf;str}", "\"/tmp\"".
func ParseTag(text string) (*Tag, error) {
	p := &tagParser{s: text}
	tag := p.parseTag()
	if p.err == nil && p.pos != len(p.s) {
		p.syntaxf("unexpected %q", p.s[p.pos:])
	}
	if p.err != nil {
		return nil, p.err
	}
	return tag, nil
}

// CheckSiblings verifies that every length tag in a list of sibling tags
// (call arguments or vector lanes) refers to an existing sibling.
func CheckSiblings(tags []*Tag) error {
	for i, tag := range tags {
		if err := checkSibling(tag, i, len(tags)); err != nil {
			return err
		}
	}
	return nil
}

func checkSibling(tag *Tag, pos, n int) error {
	switch tag.Kind {
	case TagClass:
		if tag.Class == ClassSize && pos == 0 {
			return fmt.Errorf("%w: %q has no preceding sibling", ErrTemplateSyntax, tag.Text)
		}
	case TagLen:
		if tag.Target >= n {
			return fmt.Errorf("%w: %q refers to sibling %v, but there are only %v",
				ErrTemplateSyntax, tag.Text, tag.Target, n)
		}
	case TagUnion:
		for _, elem := range tag.Elems {
			if err := checkSibling(elem, pos, n); err != nil {
				return err
			}
		}
	}
	return nil
}

type tagParser struct {
	s   string
	pos int
	err error
}

func (p *tagParser) syntaxf(msg string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: tag %q: %v", ErrTemplateSyntax, p.s, fmt.Sprintf(msg, args...))
	}
	p.pos = len(p.s)
}

func (p *tagParser) unknownf(msg string, args ...any) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: %v", ErrUnknownType, fmt.Sprintf(msg, args...))
	}
	p.pos = len(p.s)
}

func (p *tagParser) eof() bool {
	return p.pos >= len(p.s)
}

func (p *tagParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.s[p.pos]
}

func (p *tagParser) skipSpace() {
	for !p.eof() && (p.peek() == ' ' || p.peek() == '\t') {
		p.pos++
	}
}

func (p *tagParser) tryConsume(prefix string) bool {
	if strings.HasPrefix(p.s[p.pos:], prefix) {
		p.pos += len(prefix)
		return true
	}
	return false
}

func (p *tagParser) parseTag() *Tag {
	if p.err != nil {
		return nil
	}
	start := p.pos
	var tag *Tag
	switch ch := p.peek(); {
	case p.eof():
		p.syntaxf("empty tag")
		return nil
	case strings.HasPrefix(p.s[p.pos:], "32["):
		p.pos += 2
		tag = p.parseVector(32)
	case ch == '[':
		tag = p.parseVector(64)
	case ch == '{':
		tag = p.parseUnion()
	case ch == '"':
		tag = &Tag{Kind: TagString, Data: p.parseQuoted()}
	case strings.HasPrefix(p.s[p.pos:], `x"`):
		p.pos++
		tag = &Tag{Kind: TagData, Data: p.parseHex()}
	case ch >= '0' && ch <= '9':
		tag = &Tag{Kind: TagInt, Val: p.parseInt()}
	case isIdentChar(ch):
		tag = p.parseIdent()
	default:
		p.syntaxf("unexpected %q", ch)
	}
	if p.err != nil {
		return nil
	}
	tag.Text = p.s[start:p.pos]
	return tag
}

func (p *tagParser) parseVector(width int) *Tag {
	p.pos++ // '['
	tag := &Tag{Kind: TagVector, Width: width}
	tag.Elems = p.parseList(',', ']', "vector")
	if p.err == nil {
		if err := CheckSiblings(tag.Elems); err != nil {
			p.err = err
		}
	}
	return tag
}

func (p *tagParser) parseUnion() *Tag {
	p.pos++ // '{'
	return &Tag{Kind: TagUnion, Elems: p.parseList(';', '}', "union")}
}

func (p *tagParser) parseList(sep, end byte, what string) []*Tag {
	p.skipSpace()
	if p.peek() == end {
		p.syntaxf("empty %v", what)
		return nil
	}
	var elems []*Tag
	for p.err == nil {
		p.skipSpace()
		elems = append(elems, p.parseTag())
		p.skipSpace()
		switch {
		case p.err != nil:
		case p.eof():
			p.syntaxf("unbalanced %v, missing %q", what, end)
		case p.peek() == sep:
			p.pos++
		case p.peek() == end:
			p.pos++
			return elems
		default:
			p.syntaxf("unexpected %q in %v", p.peek(), what)
		}
	}
	return nil
}

func (p *tagParser) parseQuoted() []byte {
	start := p.pos
	p.pos++ // '"'
	for ; !p.eof(); p.pos++ {
		switch p.s[p.pos] {
		case '\\':
			p.pos++
		case '"':
			p.pos++
			str, err := strconv.Unquote(p.s[start:p.pos])
			if err != nil {
				p.syntaxf("bad string literal %v: %v", p.s[start:p.pos], err)
				return nil
			}
			return []byte(str)
		}
	}
	p.syntaxf("unbalanced quote")
	return nil
}

func (p *tagParser) parseHex() []byte {
	str := p.parseQuoted()
	if p.err != nil {
		return nil
	}
	data, err := hex.DecodeString(string(str))
	if err != nil {
		p.syntaxf("bad hex string: %v", err)
		return nil
	}
	return data
}

func (p *tagParser) parseInt() uint64 {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	lit := p.s[start:p.pos]
	v, err := parseIntLiteral(lit)
	if err != nil {
		p.syntaxf("%v", err)
	}
	return v
}

// parseIntLiteral parses decimal, 0x-prefixed hex and 0-prefixed octal numbers.
func parseIntLiteral(lit string) (uint64, error) {
	base, digits := 10, lit
	switch {
	case strings.HasPrefix(lit, "0x") || strings.HasPrefix(lit, "0X"):
		base, digits = 16, lit[2:]
	case len(lit) > 1 && lit[0] == '0':
		base, digits = 8, lit[1:]
	}
	v, err := strconv.ParseUint(digits, base, 64)
	if err != nil || digits == "" {
		return 0, fmt.Errorf("bad number %q", lit)
	}
	return v, nil
}

func (p *tagParser) parseIdent() *Tag {
	start := p.pos
	for !p.eof() && isIdentChar(p.peek()) {
		p.pos++
	}
	ident := p.s[start:p.pos]
	switch {
	case ident == "sz" && p.tryConsume("@"):
		return &Tag{Kind: TagLen, Target: p.parseIndex()}
	case ident == "ref" && p.tryConsume(":"):
		tag := &Tag{Kind: TagRef, Call: p.parseIndex()}
		if !p.tryConsume(".") {
			p.syntaxf("want ref:call.arg")
		}
		tag.Arg = p.parseIndex()
		return tag
	case ident == "alloc" && p.tryConsume(":"):
		return &Tag{Kind: TagAlloc, Val: p.parseInt()}
	case ident == "stdfd" && p.tryConsume(":"):
		return &Tag{Kind: TagStdFile, Val: p.parseInt()}
	case ident == "file" && p.tryConsume(":"):
		return &Tag{Kind: TagFile, Data: p.parseQuotedArg()}
	case ident == "path" && p.tryConsume(":"):
		return &Tag{Kind: TagPath, Data: p.parseQuotedArg()}
	}
	class, ok := classNames[ident]
	if !ok {
		p.unknownf("%q in tag %q", ident, p.s)
		return nil
	}
	return &Tag{Kind: TagClass, Class: class}
}

func (p *tagParser) parseQuotedArg() []byte {
	if p.peek() != '"' {
		p.syntaxf("want quoted string")
		return nil
	}
	return p.parseQuoted()
}

func (p *tagParser) parseIndex() int {
	start := p.pos
	for !p.eof() && p.peek() >= '0' && p.peek() <= '9' {
		p.pos++
	}
	v, err := strconv.ParseUint(p.s[start:p.pos], 10, 16)
	if err != nil {
		p.syntaxf("bad index %q", p.s[start:p.pos])
	}
	return int(v)
}

func isIdentChar(ch byte) bool {
	return ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_'
}
