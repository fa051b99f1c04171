// Copyright © 2021 The Gomon Project.

package process

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/zosmac/gocore"
	"golang.org/x/sys/unix"
)

var (
	// hostNative reads the /proc filesystem.
	hostNative Native = procfs{}

	// ticks is the system units for CPU time per second (i.e. "jiffies", USER_HZ).
	ticks = 100.0

	// pagesize of memory pages.
	pagesize = uint64(os.Getpagesize())
)

type (
	// procfs queries process facts from /proc/<pid>.
	procfs struct{}
)

// Info gets the identifying properties of a process.
func (procfs) Info(pid Pid) (Record, error) {
	fields, err := stat(pid)
	if err != nil {
		return Record{}, err
	}

	m, err := gocore.Measures(filepath.Join("/proc", pid.String(), "status"))
	if err != nil {
		return Record{}, errno(err)
	}

	ppid, _ := strconv.Atoi(fields[3])
	uid, _ := strconv.Atoi(m["Uid"])
	gid, _ := strconv.Atoi(m["Gid"])

	r := Record{
		Pid:  pid,
		Ppid: Pid(ppid),
		Name: fields[1],
		UID:  uid,
		GID:  gid,
	}

	r.Executable, _ = os.Readlink(filepath.Join("/proc", pid.String(), "exe"))
	if arg, err := os.ReadFile(filepath.Join("/proc", pid.String(), "cmdline")); err == nil {
		for _, a := range bytes.Split(bytes.TrimRight(arg, "\000"), []byte{0}) {
			if len(a) > 0 {
				r.Args = append(r.Args, string(a))
			}
		}
	}

	return r, nil
}

// Memory gets a process' resident and virtual set sizes.
func (procfs) Memory(pid Pid) (Memory, error) {
	buf, err := os.ReadFile(filepath.Join("/proc", pid.String(), "statm"))
	if err != nil {
		return Memory{}, errno(err)
	}

	fields := strings.Fields(string(buf))
	if len(fields) < 2 {
		return Memory{}, fmt.Errorf("/proc/%d/statm has %d fields", pid, len(fields))
	}
	size, _ := strconv.ParseUint(fields[0], 10, 64)
	resident, _ := strconv.ParseUint(fields[1], 10, 64)

	return Memory{
		Resident: resident * pagesize,
		Virtual:  size * pagesize,
	}, nil
}

// Times gets a process' cumulative user and system cpu seconds.
func (procfs) Times(pid Pid) (Times, error) {
	fields, err := stat(pid)
	if err != nil {
		return Times{}, err
	}

	user, _ := strconv.ParseUint(fields[13], 10, 64)
	system, _ := strconv.ParseUint(fields[14], 10, 64)

	return Times{
		User:   float64(user) / ticks,
		System: float64(system) / ticks,
	}, nil
}

// CreateTime gets a process' start time in seconds since the epoch.
func (procfs) CreateTime(pid Pid) (float64, error) {
	fields, err := stat(pid)
	if err != nil {
		return 0, err
	}

	boot, err := host.BootTime()
	if err != nil {
		return 0, gocore.Error("BootTime", err)
	}
	start, _ := strconv.ParseUint(fields[21], 10, 64)

	return float64(boot) + float64(start)/ticks, nil
}

// stat reads /proc/<pid>/stat, returning its fields indexed as in proc(5). The command
// name is extracted from between the outer parentheses, as it may contain spaces.
func stat(pid Pid) ([]string, error) {
	buf, err := os.ReadFile(filepath.Join("/proc", pid.String(), "stat"))
	if err != nil {
		return nil, errno(err)
	}

	lparen := bytes.IndexByte(buf, '(')
	rparen := bytes.LastIndexByte(buf, ')')
	if lparen < 0 || rparen < lparen {
		return nil, fmt.Errorf("/proc/%d/stat malformed: %q", pid, buf)
	}

	fields := []string{pid.String(), string(buf[lparen+1 : rparen])}
	fields = append(fields, strings.Fields(string(buf[rparen+1:]))...)
	if len(fields) < 22 {
		return nil, fmt.Errorf("/proc/%d/stat has %d fields", pid, len(fields))
	}

	return fields, nil
}

// errno maps a /proc read failure to the errno of the equivalent process query:
// a missing /proc/<pid> entry means the process is gone.
func errno(err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %v", unix.ESRCH, err)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %v", unix.EPERM, err)
	}
	return err
}
