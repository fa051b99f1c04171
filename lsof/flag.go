// Copyright © 2021-2023 The Gomon Project.

package lsof

import (
	"time"

	"github.com/zosmac/gocore"
)

var (
	// flags defines the command line flags.
	flags = struct {
		path    string
		timeout time.Duration
	}{
		path:    "lsof",
		timeout: 10 * time.Second,
	}
)

// init initializes the command line flags.
func init() {
	gocore.Flags.Var(
		&flags.path,
		"lsof",
		"[-lsof <path>]",
		"The `path` of the lsof command that lists a process' open files and sockets",
	)
	gocore.Flags.Var(
		&flags.timeout,
		"lsoftimeout",
		"[-lsoftimeout <duration>]",
		"Abandon an lsof command that runs longer than `duration`",
	)
}
