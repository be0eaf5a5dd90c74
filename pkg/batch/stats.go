// Copyright 2024 syzkaller project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package batch

import (
	"fmt"
	"time"

	"github.com/syztempl/syztempl/pkg/oracle"
	"github.com/syztempl/syztempl/pkg/stat"
)

var (
	statFiles = stat.New("templates", "Number of processed template files",
		stat.Console, stat.Prometheus("syztempl_templates"))
	statBadFiles = stat.New("template errors", "Number of template files rejected by the parser",
		stat.Console, stat.Prometheus("syztempl_template_errors"))
	statCases = stat.New("cases", "Number of written cases",
		stat.Console, stat.Rate{}, stat.Prometheus("syztempl_cases"))
	statCaseErrors = stat.New("case errors", "Number of cases that failed to encode",
		stat.Console, stat.Prometheus("syztempl_case_errors"))
	statBytes = stat.New("corpus size", "Total size of written cases",
		stat.Simple, stat.FormatMB, stat.Prometheus("syztempl_corpus_bytes"))
	statCaseSize = stat.New("case size", "Size of encoded cases",
		stat.Distribution{}, stat.Prometheus("syztempl_case_size"))
	statVerdicts = [...]*stat.Val{
		oracle.Pass: stat.New("oracle pass", "Number of cases the harness accepted",
			stat.Console, stat.Prometheus("syztempl_oracle_pass")),
		oracle.Fail: stat.New("oracle fail", "Number of cases the harness rejected",
			stat.Console, stat.Prometheus("syztempl_oracle_fail")),
		oracle.Unverified: stat.New("oracle unverified", "Number of cases the harness did not check in time",
			stat.Console, stat.Prometheus("syztempl_oracle_unverified")),
		oracle.Skipped: stat.New("oracle skipped", "Number of cases marked as not checkable",
			stat.Simple, stat.Prometheus("syztempl_oracle_skipped")),
	}
	statOracleErrors = stat.New("oracle errors", "Number of cases the harness could not be started for",
		stat.Console, stat.Prometheus("syztempl_oracle_errors"))
	oracleTime     stat.AverageValue[time.Duration]
	statOracleTime = stat.New("oracle time", "Average duration of one oracle run",
		func() int { return int(oracleTime.Value() / time.Millisecond) },
		func(v int, period time.Duration) string { return fmt.Sprintf("%v ms", v) },
		stat.Prometheus("syztempl_oracle_time_ms"))
)
