// Copyright 2015 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package genconfig holds the configuration of a corpus generation run.
package genconfig

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/syztempl/syztempl/pkg/config"
	"github.com/syztempl/syztempl/pkg/oracle"
	"github.com/syztempl/syztempl/prog"
)

const (
	PidsGenerate = "generate"
	PidsReplay   = "replay"
	MaxProcs     = 64
)

func LoadData(data []byte) (*Config, error) {
	cfg := Default()
	if err := config.LoadData(data, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func LoadFile(filename string) (*Config, error) {
	cfg := Default()
	if err := config.LoadFile(filename, cfg); err != nil {
		return nil, err
	}
	if err := Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a config with default values that a config file or flags override.
func Default() *Config {
	return &Config{
		Procs:         1,
		Pids:          PidsGenerate,
		OracleTimeout: int(oracle.DefaultTimeout / time.Second),
	}
}

// Complete checks the config and fills in derived fields.
func Complete(cfg *Config) error {
	if cfg.Target == "" {
		return fmt.Errorf("config param target is empty")
	}
	target, err := prog.ParseTarget(cfg.Target)
	if err != nil {
		return fmt.Errorf("bad config param target: %w", err)
	}
	cfg.SysTarget = target
	if len(cfg.Templates) == 0 {
		return fmt.Errorf("config param templates is empty")
	}
	if cfg.Output == "" {
		return fmt.Errorf("config param output is empty")
	}
	if cfg.Output, err = filepath.Abs(cfg.Output); err != nil {
		return err
	}
	if cfg.WithNR == nil {
		withNR := true
		cfg.WithNR = &withNR
	}
	if cfg.Procs < 1 || cfg.Procs > MaxProcs {
		return fmt.Errorf("bad config param procs: '%v', want [1, %v]", cfg.Procs, MaxProcs)
	}
	if cfg.OracleTimeout <= 0 {
		return fmt.Errorf("bad config param oracle_timeout: '%v', want > 0", cfg.OracleTimeout)
	}
	if len(cfg.Oracle) != 0 && cfg.Oracle[0] == "" {
		return fmt.Errorf("config param oracle has empty binary")
	}
	switch cfg.Pids {
	case PidsGenerate, PidsReplay:
	default:
		return fmt.Errorf("config param pids must contain one of %v/%v", PidsGenerate, PidsReplay)
	}
	if cfg.Archive != "" && !strings.HasSuffix(cfg.Archive, ".tar.xz") {
		return fmt.Errorf("config param archive must be a .tar.xz file")
	}
	for _, path := range []string{cfg.CorpusDB, cfg.Archive} {
		if path != "" && isInside(path, cfg.Output) {
			return fmt.Errorf("%v must not be inside of the output dir", path)
		}
	}
	return nil
}

func isInside(path, dir string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (cfg *Config) UseOracle() bool {
	return len(cfg.Oracle) != 0
}

// MakeOracle returns the harness command, or nil if no oracle is configured.
func (cfg *Config) MakeOracle() oracle.Oracle {
	if !cfg.UseOracle() {
		return nil
	}
	return &oracle.Command{
		Bin:     cfg.Oracle[0],
		Args:    cfg.Oracle[1:],
		Timeout: time.Duration(cfg.OracleTimeout) * time.Second,
	}
}

func (cfg *Config) Env(pids prog.Pids) *prog.Env {
	return &prog.Env{
		Pids:       pids,
		ReplayPids: cfg.Pids == PidsReplay,
	}
}
