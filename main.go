// Copyright © 2021-2023 The Gomon Project.

package main

import (
	"context"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/process"
	"github.com/zosmac/psmon/report"
	"github.com/zosmac/psmon/serve"
	"github.com/zosmac/psmon/system"
)

// main
func main() {
	gocore.Main(Main)
}

// Main called from gocore.Main.
func Main(ctx context.Context) error {
	if !slices.Contains(report.Formats, flags.format) {
		return gocore.Error("format", nil, map[string]string{
			"format": flags.format,
			"valid":  strings.Join(report.Formats, ","),
		})
	}

	provider, err := system.Host()
	if err != nil {
		return gocore.Error("system", err)
	}

	var pids []process.Pid
	for _, pid := range flags.pids {
		if process.Exists(pid) {
			pids = append(pids, pid)
		} else {
			gocore.Error("no such process", nil, map[string]string{
				"pid": pid.String(),
			}).Warn()
		}
	}

	if flags.report {
		r, err := report.Gather(ctx, provider, pids, process.New)
		if err != nil {
			return gocore.Error("report", err)
		}
		return report.Encode(os.Stdout, flags.format, r)
	}

	gocore.Error("start", nil, map[string]string{
		"pid":        strconv.Itoa(os.Getpid()),
		"command":    strings.Join(os.Args, " "),
		"executable": gocore.Executable,
		"version":    gocore.Version,
		"user":       gocore.Username(os.Getuid()),
		"pids":       flags.pids.String(),
	}).Info()

	return gocore.Error("stop", serve.Serve(ctx, provider, pids), map[string]string{
		"command": os.Args[0],
	})
}
