// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package batch runs one corpus generation: it parses all template files, expands
// every case specification, encodes the cases, writes them out and submits them to the oracle.
package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/syztempl/syztempl/pkg/corpus"
	"github.com/syztempl/syztempl/pkg/genconfig"
	"github.com/syztempl/syztempl/pkg/log"
	"github.com/syztempl/syztempl/pkg/oracle"
	"github.com/syztempl/syztempl/pkg/tmpl"
	"github.com/syztempl/syztempl/prog"
	"golang.org/x/sync/errgroup"
)

// Summary is the outcome of one batch.
type Summary struct {
	Files    int
	BadFiles map[string]error
	Cases    int
	Bytes    int
	// CaseErrors counts cases that failed to encode per error kind.
	CaseErrors map[string]int
	Verdicts   map[oracle.Verdict]int
	// OracleErrors counts checks where the oracle itself could not run.
	// Such cases are recorded as unverified.
	OracleErrors int
	Manifest     *corpus.Manifest
	Diff         *corpus.Diff
	Duration     time.Duration

	mu sync.Mutex
}

func (s *Summary) TotalCaseErrors() int {
	total := 0
	for _, n := range s.CaseErrors {
		total += n
	}
	return total
}

func (s *Summary) String() string {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "templates: %v (%v rejected)\n", s.Files, len(s.BadFiles))
	for _, file := range sortedKeys(s.BadFiles) {
		fmt.Fprintf(buf, "\t%v\n", s.BadFiles[file])
	}
	fmt.Fprintf(buf, "cases: %v (%v bytes)\n", s.Cases, s.Bytes)
	fmt.Fprintf(buf, "case errors: %v\n", s.TotalCaseErrors())
	for _, kind := range sortedKeys(s.CaseErrors) {
		fmt.Fprintf(buf, "\t%v: %v\n", kind, s.CaseErrors[kind])
	}
	if len(s.Verdicts) != 0 {
		fmt.Fprintf(buf, "oracle:")
		for v := oracle.Pass; v <= oracle.Skipped; v++ {
			fmt.Fprintf(buf, " %v=%v", v, s.Verdicts[v])
		}
		fmt.Fprintf(buf, "\n")
	}
	if s.OracleErrors != 0 {
		fmt.Fprintf(buf, "oracle errors: %v\n", s.OracleErrors)
	}
	if s.Diff != nil {
		fmt.Fprintf(buf, "compared with the previous corpus: %v added, %v removed, %v changed\n",
			len(s.Diff.Added), len(s.Diff.Removed), len(s.Diff.Changed))
	}
	fmt.Fprintf(buf, "took %v\n", s.Duration.Round(time.Millisecond))
	return buf.String()
}

func (s *Summary) addVerdict(v oracle.Verdict) {
	s.mu.Lock()
	s.Verdicts[v]++
	s.mu.Unlock()
	statVerdicts[v].Add(1)
}

// Run generates the corpus described by cfg.
// Template and case errors are reported in the summary, the returned error means the batch failed.
func Run(ctx context.Context, cfg *genconfig.Config) (*Summary, error) {
	return run(ctx, cfg, cfg.MakeOracle())
}

type runner struct {
	cfg      *genconfig.Config
	target   *prog.Target
	resolver *prog.Resolver
	env      *prog.Env
	writer   *corpus.Writer
	oracle   oracle.Oracle
	summary  *Summary

	// Number of queued oracle checks and the last oracle error, protected by summary.mu.
	checks    int
	oracleErr error
}

func run(ctx context.Context, cfg *genconfig.Config, orc oracle.Oracle) (*Summary, error) {
	start := time.Now()
	files, err := tmpl.Glob(cfg.Templates)
	if err != nil {
		return nil, err
	}
	var pids prog.Pids
	if cfg.Pids == genconfig.PidsGenerate {
		var stop func()
		pids, stop, err = LivePids()
		if err != nil {
			return nil, err
		}
		defer stop()
	}
	writer, err := corpus.NewWriter(cfg.Output, *cfg.WithNR, cfg.CorpusDB)
	if err != nil {
		return nil, err
	}
	summary := &Summary{
		BadFiles:   make(map[string]error),
		CaseErrors: make(map[string]int),
		Verdicts:   make(map[oracle.Verdict]int),
		Manifest:   corpus.NewManifest(cfg.Target, files),
	}
	r := &runner{
		cfg:      cfg,
		target:   cfg.SysTarget,
		resolver: prog.NewResolver(),
		env:      cfg.Env(pids),
		writer:   writer,
		oracle:   orc,
		summary:  summary,
	}
	log.Logf(0, "generating %v corpus from %v template files into %v (run %v)",
		cfg.Target, len(files), cfg.Output, summary.Manifest.RunID)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Procs)
	genErr := r.generate(gctx, g, files)
	checkErr := g.Wait()
	if err := writer.Close(); err != nil {
		return nil, err
	}
	if checkErr != nil {
		return nil, checkErr
	}
	if genErr != nil {
		return nil, genErr
	}
	if err := summary.Manifest.Save(filepath.Join(cfg.Output, corpus.ManifestFile)); err != nil {
		return nil, err
	}
	if r.checks != 0 && summary.OracleErrors == r.checks {
		return nil, fmt.Errorf("oracle failed on all %v cases: %w", r.checks, r.oracleErr)
	}
	if cfg.Archive != "" {
		if err := corpus.Archive(cfg.Output, cfg.Archive); err != nil {
			return nil, fmt.Errorf("failed to archive corpus: %w", err)
		}
		log.Logf(0, "archived corpus to %v", cfg.Archive)
	}
	if cfg.Compare != "" {
		summary.Diff, err = corpus.CompareDirs(cfg.Compare, cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to compare corpus: %w", err)
		}
	}
	summary.Duration = time.Since(start)
	return summary, nil
}

// generate encodes and writes cases sequentially, oracle checks are queued to g.
func (r *runner) generate(ctx context.Context, g *errgroup.Group, files []string) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.summary.Files++
		statFiles.Add(1)
		expansions, err := r.expandFile(file)
		if err != nil {
			log.Errorf("%v", err)
			r.summary.BadFiles[file] = err
			statBadFiles.Add(1)
			continue
		}
		for _, e := range expansions {
			if err := r.generateCases(ctx, g, e); err != nil {
				return err
			}
		}
	}
	return nil
}

// expandFile parses and resolves a whole template file before anything is written,
// so that an error in any line rejects the file.
func (r *runner) expandFile(file string) ([]*prog.Expansion, error) {
	t, err := tmpl.ParseFile(file)
	if err != nil {
		return nil, err
	}
	var res []*prog.Expansion
	for _, spec := range t.Cases {
		e, err := r.resolver.Expand(spec)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	log.Logf(1, "%v: %v case specifications", file, len(res))
	return res, nil
}

func (r *runner) generateCases(ctx context.Context, g *errgroup.Group, e *prog.Expansion) error {
	spec := e.Spec
	for idx, c := range e.Cases() {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := r.target.SerializeCase(c, r.env)
		if err != nil {
			if !prog.IsCaseError(err) {
				return fmt.Errorf("%v #%v: %w", spec, idx, err)
			}
			log.Logf(1, "%v #%v: %v", spec, idx, err)
			r.summary.CaseErrors[caseErrorKind(err)]++
			statCaseErrors.Add(1)
			continue
		}
		call := c.Primary()
		entry, err := r.writer.Write(call.NR, call.Name, data)
		if err != nil {
			return err
		}
		log.Logf(2, "%v #%v -> %v:\n%v", spec, idx, entry.Name, c)
		r.summary.Cases++
		r.summary.Bytes += entry.Size
		statCases.Add(1)
		statBytes.Add(entry.Size)
		statCaseSize.Add(entry.Size)
		r.summary.Manifest.Add(&corpus.ManifestEntry{
			Name:     entry.Name,
			Template: spec.String(),
			Index:    idx,
			Calls:    strings.TrimSpace(c.String()),
			Size:     entry.Size,
			SHA1:     entry.Hash,
		})
		if r.oracle == nil {
			continue
		}
		if c.NoOracle {
			r.setVerdict(entry.Name, oracle.Skipped)
			continue
		}
		r.checks++
		g.Go(func() error {
			r.check(ctx, entry)
			return nil
		})
	}
	return nil
}

// check records the oracle verdict for one written case. If the oracle cannot run,
// the case stays unverified and the error is counted, the batch goes on.
func (r *runner) check(ctx context.Context, entry *corpus.Entry) {
	start := time.Now()
	verdict, err := r.oracle.Check(ctx, entry.Path)
	if err != nil {
		log.Errorf("oracle failed on %v: %v", entry.Name, err)
		statOracleErrors.Add(1)
		r.summary.mu.Lock()
		r.summary.OracleErrors++
		r.oracleErr = err
		r.summary.mu.Unlock()
		r.setVerdict(entry.Name, oracle.Unverified)
		return
	}
	oracleTime.Save(time.Since(start))
	if verdict == oracle.Fail {
		log.Logf(0, "oracle: %v failed", entry.Name)
	}
	r.setVerdict(entry.Name, verdict)
}

func (r *runner) setVerdict(name string, v oracle.Verdict) {
	r.summary.addVerdict(v)
	r.summary.Manifest.SetVerdict(name, v.String())
}

func caseErrorKind(err error) string {
	for _, kind := range []error{prog.ErrUnresolvedReference, prog.ErrResolutionCycle, prog.ErrEncoding} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return "other"
}

func sortedKeys[V any](m map[string]V) []string {
	var keys []string
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
