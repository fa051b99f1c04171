// Copyright © 2021-2023 The Gomon Project.

package process

import (
	"errors"
	"math"
	"strconv"

	"golang.org/x/sys/unix"
)

type (
	// Pid is the identifier for a process.
	Pid int
)

var (
	// kill sends a signal to a process.
	kill = unix.Kill
)

// String formats a pid as a string to comply with fmt.Stringer interface.
func (pid Pid) String() string {
	return strconv.Itoa(int(pid))
}

// Exists reports whether a process with this pid exists, without requiring any permission
// to inspect or signal it. A null signal that fails with EPERM still proves existence.
//
// Pids at or below 0 are never signalled, because kill(2) interprets them as process groups:
// 0 is the kernel scheduler and always exists, negative pids do not identify a process.
func Exists(pid Pid) bool {
	switch {
	case pid == 0:
		return true
	case pid < 0, pid > math.MaxInt32:
		return false
	}

	err := kill(int(pid), 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
