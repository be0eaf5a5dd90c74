// Copyright 2026 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// syz-templ generates a corpus of syscall replay files from template files.
// Usage:
//
//	syz-templ -config=gen.cfg
//	syz-templ -target=openbsd/amd64 -templates='sys/openbsd/templates/*.tmpl' -out=corpus
//
// Flags override the corresponding config params.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/syztempl/syztempl/pkg/batch"
	"github.com/syztempl/syztempl/pkg/config"
	"github.com/syztempl/syztempl/pkg/genconfig"
	"github.com/syztempl/syztempl/pkg/log"
	"github.com/syztempl/syztempl/pkg/osutil"
	"github.com/syztempl/syztempl/pkg/stat"
	"github.com/syztempl/syztempl/pkg/tool"
)

var (
	flagConfig    = flag.String("config", "", "config file (JSON or YAML)")
	flagTarget    = flag.String("target", "", "target OS/arch")
	flagTemplates tool.ListFlag
	flagOut       = flag.String("out", "", "output corpus dir")
	flagNoNR      = flag.Bool("no_nr", false, "don't prefix file names with syscall numbers")
	flagOracle    = flag.String("oracle", "", "harness binary that replays a case, gets the case file as the last argument")
	flagTimeout   = flag.Int("timeout", 0, "oracle timeout in seconds")
	flagProcs     = flag.Int("procs", 0, "number of parallel oracle runs")
	flagPids      = flag.String("pids", "", "when process ids are resolved: generate or replay")
	flagDB        = flag.String("db", "", "mirror the corpus into this corpus.db")
	flagArchive   = flag.String("archive", "", "pack the corpus into this .tar.xz file")
	flagCompare   = flag.String("compare", "", "compare the corpus with this previous corpus dir or archive")
	flagHTTP      = flag.String("http", "", "serve metrics on this address")
)

func main() {
	flag.Var(&flagTemplates, "templates", "comma-separated list of template file globs (can be repeated)")
	defer tool.Init()()
	cfg, err := loadConfig()
	if err != nil {
		tool.Failf("bad config: %v", err)
	}
	if cfg.HTTP != "" {
		serveMetrics(cfg.HTTP)
	}
	shutdown := make(chan struct{})
	osutil.HandleInterrupts(shutdown)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-shutdown
		cancel()
	}()
	summary, err := batch.Run(ctx, cfg)
	if err != nil {
		tool.Fail(err)
	}
	for _, st := range stat.Collect(stat.Simple) {
		log.Logf(1, "%-20v: %v", st.Name, st.Value)
	}
	fmt.Print(summary)
	if summary.Diff != nil && !summary.Diff.Empty() {
		fmt.Print(summary.Diff)
	}
	if len(summary.BadFiles) != 0 {
		os.Exit(1)
	}
}

func loadConfig() (*genconfig.Config, error) {
	cfg := genconfig.Default()
	if *flagConfig != "" {
		if err := config.LoadFile(*flagConfig, cfg); err != nil {
			return nil, err
		}
	}
	if *flagTarget != "" {
		cfg.Target = *flagTarget
	}
	if len(flagTemplates) != 0 {
		cfg.Templates = flagTemplates
	}
	if *flagOut != "" {
		cfg.Output = *flagOut
	}
	if *flagNoNR {
		withNR := false
		cfg.WithNR = &withNR
	}
	if *flagOracle != "" {
		cfg.Oracle = []string{*flagOracle}
	}
	if *flagTimeout != 0 {
		cfg.OracleTimeout = *flagTimeout
	}
	if *flagProcs != 0 {
		cfg.Procs = *flagProcs
	}
	if *flagPids != "" {
		cfg.Pids = *flagPids
	}
	if *flagDB != "" {
		cfg.CorpusDB = *flagDB
	}
	if *flagArchive != "" {
		cfg.Archive = *flagArchive
	}
	if *flagCompare != "" {
		cfg.Compare = *flagCompare
	}
	if *flagHTTP != "" {
		cfg.HTTP = *flagHTTP
	}
	if err := genconfig.Complete(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Logf(0, "serving metrics on http://%v/metrics", addr)
	go func() {
		err := http.ListenAndServe(addr, mux)
		log.Errorf("failed to serve metrics: %v", err)
	}()
}
