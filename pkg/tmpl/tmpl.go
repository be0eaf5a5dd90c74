// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tmpl parses syscall template files.
//
// Every non-blank line describes one call:
//
//	[marker] [+] nr name tag...
//
// Anything after '#' (outside of a quoted string) is a comment.
// A leading token that is not a number marks the case as not checkable by the oracle.
// A '+' appends the call to the case of the previous line: the preceding calls set up
// state (e.g. a file handle) for the last one, and all of them are encoded into the same file.
// Tags are separated by whitespace outside of brackets and quotes.
package tmpl

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/syztempl/syztempl/prog"
)

// Template is a parsed template file.
type Template struct {
	File  string
	Cases []*prog.CaseSpec
}

// Calls returns the total number of call lines.
func (t *Template) Calls() int {
	n := 0
	for _, c := range t.Cases {
		n += len(c.Calls)
	}
	return n
}

// ParseFile parses a template file.
func ParseFile(file string) (*Template, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file: %w", err)
	}
	return Parse(data, file)
}

// Glob returns the sorted list of template files matched by the globs.
// It is an error if a glob matches nothing.
func Glob(globs []string) ([]string, error) {
	dedup := make(map[string]bool)
	var files []string
	for _, glob := range globs {
		matches, err := filepath.Glob(glob)
		if err != nil {
			return nil, fmt.Errorf("bad template glob %q: %w", glob, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files matched by glob %q", glob)
		}
		for _, file := range matches {
			if !dedup[file] {
				dedup[file] = true
				files = append(files, file)
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// Parse parses template data. If any line fails to parse, the whole file is rejected.
// Errors wrap prog.ErrTemplateSyntax or prog.ErrUnknownType.
func Parse(data []byte, filename string) (*Template, error) {
	t := &Template{File: filename}
	var last *prog.CaseSpec
	for i, line := range strings.Split(string(data), "\n") {
		lineno := i + 1
		tokens, err := splitLine(line)
		if err != nil {
			return nil, fmt.Errorf("%v:%v: %w", filename, lineno, err)
		}
		if len(tokens) == 0 {
			continue
		}
		call, err := parseCall(tokens)
		if err != nil {
			return nil, fmt.Errorf("%v:%v: %w", filename, lineno, err)
		}
		call.Line = lineno
		if call.Chained {
			if last == nil {
				return nil, fmt.Errorf("%v:%v: %w: chained call %v has no previous call",
					filename, lineno, prog.ErrTemplateSyntax, call.Name)
			}
			last.Calls = append(last.Calls, call)
			last.NoOracle = last.NoOracle || call.NoOracle
			continue
		}
		last = &prog.CaseSpec{
			Calls:    []*prog.CallSpec{call},
			NoOracle: call.NoOracle,
			File:     filename,
			Line:     lineno,
		}
		t.Cases = append(t.Cases, last)
	}
	return t, nil
}

func parseCall(tokens []string) (*prog.CallSpec, error) {
	call := new(prog.CallSpec)
	if !isNumber(tokens[0]) && tokens[0] != "+" {
		call.NoOracle = true
		tokens = tokens[1:]
	}
	if len(tokens) != 0 && tokens[0] == "+" {
		call.Chained = true
		tokens = tokens[1:]
	}
	if len(tokens) == 0 || !isNumber(tokens[0]) {
		return nil, fmt.Errorf("%w: want syscall number", prog.ErrTemplateSyntax)
	}
	nr, err := strconv.ParseUint(tokens[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad syscall number %q", prog.ErrTemplateSyntax, tokens[0])
	}
	call.NR = nr
	if len(tokens) < 2 {
		return nil, fmt.Errorf("%w: missing syscall name", prog.ErrTemplateSyntax)
	}
	call.Name = tokens[1]
	if !isName(call.Name) {
		return nil, fmt.Errorf("%w: bad syscall name %q", prog.ErrTemplateSyntax, call.Name)
	}
	for _, text := range tokens[2:] {
		tag, err := prog.ParseTag(text)
		if err != nil {
			return nil, err
		}
		call.Tags = append(call.Tags, tag)
	}
	if err := prog.CheckSiblings(call.Tags); err != nil {
		return nil, err
	}
	return call, nil
}

// splitLine strips the comment and splits the line into tokens.
func splitLine(line string) ([]string, error) {
	var tokens []string
	var stack []byte
	start, inQuote := -1, false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if inQuote {
			switch ch {
			case '\\':
				i++
			case '"':
				inQuote = false
			}
			continue
		}
		switch ch {
		case '#':
			line = line[:i]
		case ' ', '\t', '\r':
			if len(stack) == 0 && start != -1 {
				tokens = append(tokens, line[start:i])
				start = -1
			}
			continue
		case '"':
			inQuote = true
		case '[', '{':
			stack = append(stack, ch)
		case ']', '}':
			open := byte('[')
			if ch == '}' {
				open = '{'
			}
			if len(stack) == 0 || stack[len(stack)-1] != open {
				return nil, fmt.Errorf("%w: unbalanced %q", prog.ErrTemplateSyntax, ch)
			}
			stack = stack[:len(stack)-1]
		}
		if start == -1 && i < len(line) {
			start = i
		}
	}
	if inQuote {
		return nil, fmt.Errorf("%w: unbalanced quote", prog.ErrTemplateSyntax)
	}
	if len(stack) != 0 {
		return nil, fmt.Errorf("%w: unbalanced %q", prog.ErrTemplateSyntax, stack[len(stack)-1])
	}
	if start != -1 {
		tokens = append(tokens, line[start:])
	}
	return tokens, nil
}

func isNumber(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isName(s string) bool {
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !(ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9' || ch == '_' || ch == '$') {
			return false
		}
	}
	return s != ""
}
