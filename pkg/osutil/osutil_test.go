// Copyright 2017 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package osutil

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsExist(t *testing.T) {
	if f := os.Args[0]; !IsExist(f) {
		t.Fatalf("executable %v does not exist", f)
	}
	if f := os.Args[0] + "-foo-bar-buz"; IsExist(f) {
		t.Fatalf("file %v exists", f)
	}
}

func skipNoShell(t *testing.T) {
	if runtime.GOOS == "windows" || !IsExist("/bin/sh") {
		t.Skip("no /bin/sh")
	}
}

func TestRunExitCode(t *testing.T) {
	skipNoShell(t)
	out, err := RunCmd(time.Minute, "", "/bin/sh", "-c", "echo out; exit 3")
	require.Error(t, err)
	var verbose *VerboseError
	require.True(t, errors.As(err, &verbose))
	assert.Equal(t, 3, verbose.ExitCode)
	assert.False(t, verbose.Timedout)
	assert.Equal(t, "out\n", string(out))

	out, err = RunCmd(time.Minute, "", "/bin/sh", "-c", "echo ok")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", string(out))
}

func TestRunTimeout(t *testing.T) {
	skipNoShell(t)
	start := time.Now()
	_, err := RunCmd(100*time.Millisecond, "", "/bin/sh", "-c", "sleep 100")
	require.Error(t, err)
	var verbose *VerboseError
	require.True(t, errors.As(err, &verbose))
	assert.True(t, verbose.Timedout)
	assert.Less(t, time.Since(start), 50*time.Second)
}

func TestPrependContext(t *testing.T) {
	err := PrependContext("oracle", &VerboseError{Title: "failed"})
	assert.Equal(t, "oracle: failed", err.Error())
	err = PrependContext("oracle", errors.New("boom"))
	assert.Equal(t, "oracle: boom", err.Error())
}

func TestWriteFileAtomically(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "case")
	require.NoError(t, WriteFileAtomically(file, []byte("first")))
	require.NoError(t, WriteFileAtomically(file, []byte("second")))
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
	names, err := ListDir(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"case"}, names)
}

func TestProcessIDs(t *testing.T) {
	self, parent := ProcessIDs()
	assert.Equal(t, os.Getpid(), self)
	assert.Equal(t, os.Getppid(), parent)
	assert.True(t, IsProcessAlive(self))
}
