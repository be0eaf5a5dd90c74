// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package genconfig

import (
	"github.com/syztempl/syztempl/prog"
)

type Config struct {
	// Target OS/arch the cases are encoded for, e.g. "openbsd/amd64".
	Target string `json:"target" yaml:"target"`
	// Globs of template files (e.g. "sys/openbsd/templates/*.tmpl").
	Templates []string `json:"templates" yaml:"templates"`
	// Location of the output corpus directory. Outputs here include:
	// - <output>/NNN_name_SSS: one replay file per case
	// - <output>/manifest.json: list of all cases with their origin and oracle verdicts
	Output string `json:"output" yaml:"output"`
	// Prefix file names with the syscall number (defaults to true).
	WithNR *bool `json:"with_nr,omitempty" yaml:"with_nr,omitempty"`
	// Harness command that replays one case, e.g. ["/usr/local/bin/harness", "-f", "{}"].
	// "{}" is replaced with the case file, if it is not present the file is appended.
	// Optional, without it no case is verified.
	Oracle []string `json:"oracle,omitempty" yaml:"oracle,omitempty"`
	// Timeout of one oracle run in seconds.
	OracleTimeout int `json:"oracle_timeout,omitempty" yaml:"oracle_timeout,omitempty"`
	// Number of parallel oracle runs.
	Procs int `json:"procs" yaml:"procs"`
	// When process identities are resolved:
	// "generate" bakes ids of the generator process and its relatives into the cases,
	// "replay" leaves them to the harness.
	Pids string `json:"pids" yaml:"pids"`
	// Optional syz-db compatible file the corpus is mirrored into.
	CorpusDB string `json:"corpus_db,omitempty" yaml:"corpus_db,omitempty"`
	// Optional .tar.xz file the corpus is packed into after generation.
	Archive string `json:"archive,omitempty" yaml:"archive,omitempty"`
	// Optional previous corpus (directory or .tar.xz) the new one is compared with.
	Compare string `json:"compare,omitempty" yaml:"compare,omitempty"`
	// Address to serve metrics on (e.g. "localhost:8080"), optional.
	HTTP string `json:"http,omitempty" yaml:"http,omitempty"`

	// Implementation details beyond this point. Filled after parsing.
	SysTarget *prog.Target `json:"-" yaml:"-"`
}
