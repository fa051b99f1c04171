// Copyright © 2021-2025 The Gomon Project.

package main

import (
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/process"
)

var (
	// flags defines the command line flags.
	flags = struct {
		pids   pidList
		report bool
		format string
	}{
		pids:   pidList{process.Pid(os.Getpid())},
		format: "yaml",
	}
)

// init initializes the command line flags.
func init() {
	gocore.Flags.Var(
		&flags.pids,
		"pids",
		"[-pids <pid>,...]",
		"A comma-separated list of `pids` to report on (default is psmon's own pid)",
	)
	gocore.Flags.Var(
		&flags.report,
		"report",
		"[-report]",
		"Write one report to standard output and exit rather than serve",
	)
	gocore.Flags.Var(
		&flags.format,
		"format",
		"[-format yaml|json]",
		"The `format` of the report written with -report",
	)

	gocore.Flags.CommandDescription = `Reports on the local host's
	system memory and cpu times, and on processes':
		• identity and command line
		• resident and virtual memory
		• cpu times and start time
		• open files and internet connections, as listed by lsof`
}

// pidList is a command line flag type.
type pidList []process.Pid

// Set is a flag.Value interface method to enable pidList as a command line flag.
func (l *pidList) Set(s string) error {
	var pids pidList
	for _, f := range strings.Split(s, ",") {
		pid, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || pid < 0 {
			return gocore.Error("invalid pid", err, map[string]string{"pid": f})
		}
		if !slices.Contains(pids, process.Pid(pid)) {
			pids = append(pids, process.Pid(pid))
		}
	}
	*l = pids
	return nil
}

// String is a flag.Value interface method to enable pidList as a command line flag.
func (l *pidList) String() string {
	ss := make([]string, len(*l))
	for i, pid := range *l {
		ss[i] = pid.String()
	}
	return strings.Join(ss, ",")
}
