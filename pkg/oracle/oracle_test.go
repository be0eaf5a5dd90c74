// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package oracle

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "pass", Pass.String())
	assert.Equal(t, "fail", Fail.String())
	assert.Equal(t, "unverified", Unverified.String())
	assert.Equal(t, "skipped", Skipped.String())
	assert.Equal(t, "verdict(10)", Verdict(10).String())
}

func TestCommandArgs(t *testing.T) {
	cmd := &Command{Bin: "harness", Args: []string{"-v"}}
	assert.Equal(t, []string{"-v", "case"}, cmd.args("case"))
	cmd = &Command{Bin: "harness", Args: []string{"-file={}", "-x"}}
	assert.Equal(t, []string{"-file=case", "-x"}, cmd.args("case"))
	cmd = &Command{Bin: "harness"}
	assert.Equal(t, []string{"case"}, cmd.args("case"))
}

func TestCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	dir := t.TempDir()
	good := filepath.Join(dir, "good")
	bad := filepath.Join(dir, "bad")
	require.NoError(t, os.WriteFile(good, []byte("ok"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("crash"), 0644))
	script := `grep -q ok "$0"`
	cmd := &Command{Bin: "/bin/sh", Args: []string{"-c", script, "{}"}, Timeout: time.Minute}

	ctx := context.Background()
	verdict, err := cmd.Check(ctx, good)
	require.NoError(t, err)
	assert.Equal(t, Pass, verdict)

	verdict, err = cmd.Check(ctx, bad)
	require.NoError(t, err)
	assert.Equal(t, Fail, verdict)
}

func TestCommandTimeout(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs /bin/sh")
	}
	cmd := &Command{Bin: "/bin/sh", Args: []string{"-c", "sleep 100", "{}"}, Timeout: 100 * time.Millisecond}
	start := time.Now()
	verdict, err := cmd.Check(context.Background(), "case")
	require.NoError(t, err)
	assert.Equal(t, Unverified, verdict)
	assert.Less(t, time.Since(start), 50*time.Second)
}

func TestCommandErrors(t *testing.T) {
	cmd := &Command{Bin: filepath.Join(t.TempDir(), "nonexistent")}
	verdict, err := cmd.Check(context.Background(), "case")
	assert.Error(t, err)
	assert.Equal(t, Unverified, verdict)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	verdict, err = (&Command{Bin: "/bin/true"}).Check(ctx, "case")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Unverified, verdict)
}

func TestFunc(t *testing.T) {
	var o Oracle = Func(func(ctx context.Context, file string) (Verdict, error) {
		if file == "a" {
			return Pass, nil
		}
		return Fail, nil
	})
	v, err := o.Check(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, Pass, v)
	v, _ = o.Check(context.Background(), "b")
	assert.Equal(t, Fail, v)
}
