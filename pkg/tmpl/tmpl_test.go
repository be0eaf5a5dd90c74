// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package tmpl

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syztempl/syztempl/prog"
	"github.com/syztempl/syztempl/sys/targets"
)

func TestParse(t *testing.T) {
	const data = `
# comment
105 setsockopt fd 0xffff 0x1006 [0,0] 8   # trailing comment

x 20 getpid
5 open "/tmp/#notcomment" 0 0644
3 read  fd	buf sz
161 getfh "/.profile" alloc:20
! + 264 fhopen ref:0.1 { 0 ; 2 }
4 write 1 [1, "a b", 32[2,3]] sz
`
	tmpl, err := Parse([]byte(data), "test.tmpl")
	require.NoError(t, err)
	require.Len(t, tmpl.Cases, 6)
	assert.Equal(t, 7, tmpl.Calls())

	c := tmpl.Cases[0]
	assert.Equal(t, 3, c.Line)
	assert.Equal(t, "test.tmpl:3", c.String())
	assert.False(t, c.NoOracle)
	assert.Equal(t, uint64(105), c.Primary().NR)
	assert.Equal(t, "setsockopt", c.Primary().Name)
	assert.Equal(t, []string{"fd", "0xffff", "0x1006", "[0,0]", "8"}, tagTexts(c.Primary().Tags))

	c = tmpl.Cases[1]
	assert.True(t, c.NoOracle)
	assert.Equal(t, "getpid", c.Primary().Name)
	assert.Empty(t, c.Primary().Tags)

	assert.Equal(t, []string{`"/tmp/#notcomment"`, "0", "0644"}, tagTexts(tmpl.Cases[2].Primary().Tags))
	assert.Equal(t, []string{"fd", "buf", "sz"}, tagTexts(tmpl.Cases[3].Primary().Tags))

	c = tmpl.Cases[4]
	require.Len(t, c.Calls, 2)
	assert.True(t, c.NoOracle)
	assert.Equal(t, 8, c.Line)
	assert.Equal(t, "getfh", c.Calls[0].Name)
	assert.False(t, c.Calls[0].Chained)
	assert.Equal(t, "fhopen", c.Primary().Name)
	assert.True(t, c.Primary().Chained)
	assert.Equal(t, 9, c.Primary().Line)

	c = tmpl.Cases[5]
	assert.Equal(t, []string{`[1, "a b", 32[2,3]]`, "sz"}, tagTexts(c.Primary().Tags))
	vec := c.Primary().Tags[0]
	require.Len(t, vec.Elems, 3)
	assert.Equal(t, prog.TagString, vec.Elems[1].Kind)
	assert.Equal(t, []byte("a b"), vec.Elems[1].Data)
}

func tagTexts(tags []*prog.Tag) []string {
	var res []string
	for _, tag := range tags {
		res = append(res, tag.Text)
	}
	return res
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		data string
		err  error
		msg  string
	}{
		{"1 foo [1,2\n2 bar 0", prog.ErrTemplateSyntax, "f.tmpl:1:"},
		{"1 foo 0\n2 bar {1;2", prog.ErrTemplateSyntax, "f.tmpl:2:"},
		{"1 foo 0\n2 bar 1,2]", prog.ErrTemplateSyntax, "unbalanced"},
		{"1 foo \"abc", prog.ErrTemplateSyntax, "unbalanced quote"},
		{"foo bar 0", prog.ErrTemplateSyntax, "want syscall number"},
		{"! foo", prog.ErrTemplateSyntax, "want syscall number"},
		{"!", prog.ErrTemplateSyntax, "want syscall number"},
		{"1", prog.ErrTemplateSyntax, "missing syscall name"},
		{"1 a-b 0", prog.ErrTemplateSyntax, "bad syscall name"},
		{"99999999999999999999 foo", prog.ErrTemplateSyntax, "bad syscall number"},
		{"+ 1 foo 0", prog.ErrTemplateSyntax, "no previous call"},
		{"1 foo sz buf", prog.ErrTemplateSyntax, "no preceding sibling"},
		{"1 foo buf sz@2", prog.ErrTemplateSyntax, "refers to sibling 2"},
		{"1 foo fd\n2 bar struct", prog.ErrUnknownType, `"struct"`},
		{"1 foo [1,fdd]", prog.ErrUnknownType, `"fdd"`},
	}
	for _, test := range tests {
		t.Run(test.data, func(t *testing.T) {
			tmpl, err := Parse([]byte(test.data), "f.tmpl")
			require.Error(t, err)
			assert.Nil(t, tmpl)
			assert.ErrorIs(t, err, test.err)
			assert.Contains(t, err.Error(), test.msg)
		})
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line   string
		tokens []string
	}{
		{"", nil},
		{"   # only comment", nil},
		{"1 a b", []string{"1", "a", "b"}},
		{"\t1  a\t\tb \r", []string{"1", "a", "b"}},
		{`1 "x y" {a; b}`, []string{"1", `"x y"`, "{a; b}"}},
		{`1 "a\"#b" c#d`, []string{"1", `"a\"#b"`, "c"}},
		{`1 file:"x # y"`, []string{"1", `file:"x # y"`}},
		{"1 [a,{b;[c d]}]e f", []string{"1", "[a,{b;[c d]}]e", "f"}},
	}
	for _, test := range tests {
		tokens, err := splitLine(test.line)
		require.NoError(t, err, test.line)
		assert.Equal(t, test.tokens, tokens, test.line)
	}
	for _, line := range []string{"[", "]", "{]", "[}", "\"", "[\"]"} {
		_, err := splitLine(line)
		assert.Error(t, err, line)
	}
}

func TestGlob(t *testing.T) {
	files, err := Glob([]string{"../../sys/*/templates/*.tmpl", "../../sys/openbsd/templates/*.tmpl"})
	require.NoError(t, err)
	require.NotEmpty(t, files)
	assert.IsNonDecreasing(t, files)
	seen := make(map[string]bool)
	for _, file := range files {
		assert.False(t, seen[file], file)
		seen[file] = true
	}
	_, err = Glob([]string{"../../sys/*/templates/*.nonexistent"})
	assert.Error(t, err)
}

// TestTemplates checks that the shipped templates parse and every case encodes for every arch of their OS.
func TestTemplates(t *testing.T) {
	files, err := filepath.Glob("../../sys/*/templates/*.tmpl")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, file := range files {
		OS := filepath.Base(filepath.Dir(filepath.Dir(file)))
		t.Run(OS+"/"+filepath.Base(file), func(t *testing.T) {
			tmpl, err := ParseFile(file)
			require.NoError(t, err)
			require.NotEmpty(t, tmpl.Cases)
			r := prog.NewResolver()
			for arch := range targets.List[OS] {
				target, err := prog.GetTarget(OS, arch)
				require.NoError(t, err)
				for _, spec := range tmpl.Cases {
					e, err := r.Expand(spec)
					require.NoError(t, err, spec.String())
					for idx, c := range e.Cases() {
						_, err := target.SerializeCase(c, nil)
						require.NoError(t, err, "%v/%v %v #%v:\n%v", OS, arch, spec, idx,
							strings.TrimSpace(c.String()))
					}
				}
			}
		})
	}
}
