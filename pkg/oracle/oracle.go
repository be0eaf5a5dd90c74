// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package oracle submits generated cases to an external harness that replays them
// and decides whether the dispatch path behaved.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/syztempl/syztempl/pkg/log"
	"github.com/syztempl/syztempl/pkg/osutil"
)

type Verdict int

const (
	Pass Verdict = iota
	Fail
	// Unverified means the harness did not give an answer: it timed out or could not be started.
	Unverified
	// Skipped cases are not checkable and were never submitted.
	Skipped
)

var verdictNames = [...]string{
	Pass:       "pass",
	Fail:       "fail",
	Unverified: "unverified",
	Skipped:    "skipped",
}

func (v Verdict) String() string {
	if v < 0 || int(v) >= len(verdictNames) {
		return fmt.Sprintf("verdict(%d)", int(v))
	}
	return verdictNames[v]
}

// Oracle checks one replay file.
// An error means the check could not be carried out at all.
type Oracle interface {
	Check(ctx context.Context, file string) (Verdict, error)
}

// FilePlaceholder in Command.Args is replaced with the case file.
// If no argument contains it, the file is appended.
const FilePlaceholder = "{}"

const DefaultTimeout = 10 * time.Second

// Command is an oracle that runs an external program per case:
// exit status 0 is Pass, any other status is Fail, timeout is Unverified.
type Command struct {
	Bin     string
	Args    []string
	Timeout time.Duration
}

func (cmd *Command) Check(ctx context.Context, file string) (Verdict, error) {
	if err := ctx.Err(); err != nil {
		return Unverified, err
	}
	timeout := cmd.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	output, err := osutil.Run(timeout, osutil.Command(cmd.Bin, cmd.args(file)...))
	if err == nil {
		return Pass, nil
	}
	var verbose *osutil.VerboseError
	if !errors.As(err, &verbose) {
		return Unverified, err
	}
	if verbose.Timedout {
		log.Logf(1, "oracle: %v timed out after %v", file, timeout)
		return Unverified, nil
	}
	log.Logf(1, "oracle: %v failed with exit status %v:\n%s", file, verbose.ExitCode, output)
	return Fail, nil
}

func (cmd *Command) args(file string) []string {
	var args []string
	replaced := false
	for _, arg := range cmd.Args {
		if strings.Contains(arg, FilePlaceholder) {
			arg = strings.ReplaceAll(arg, FilePlaceholder, file)
			replaced = true
		}
		args = append(args, arg)
	}
	if !replaced {
		args = append(args, file)
	}
	return args
}

// Func adapts a function to the Oracle interface.
type Func func(ctx context.Context, file string) (Verdict, error)

func (f Func) Check(ctx context.Context, file string) (Verdict, error) {
	return f(ctx, file)
}
