// Copyright © 2021-2023 The Gomon Project.

package system

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/zosmac/gocore"
)

var (
	// hostNative reads the /proc filesystem.
	hostNative Native = procfs{}

	// ticks is the system units for CPU time per second (i.e. "jiffies", USER_HZ).
	ticks = 100.0
)

type (
	// procfs queries system facts from /proc.
	procfs struct{}
)

// TotalPhysical gets the size of physical memory.
func (procfs) TotalPhysical() (uint64, error) {
	return meminfo("MemTotal")
}

// AvailablePhysical gets the physical memory available to start new applications.
func (procfs) AvailablePhysical() (uint64, error) {
	if avail, err := meminfo("MemAvailable"); err == nil { // kernel 3.14+
		return avail, nil
	}
	var avail uint64
	for _, key := range []string{"MemFree", "Buffers", "Cached"} {
		size, err := meminfo(key)
		if err != nil {
			return 0, err
		}
		avail += size
	}
	return avail, nil
}

// TotalVirtual gets the size of swap.
func (procfs) TotalVirtual() (uint64, error) {
	return meminfo("SwapTotal")
}

// AvailableVirtual gets the free swap.
func (procfs) AvailableVirtual() (uint64, error) {
	return meminfo("SwapFree")
}

// CPUTimes gets the system's cumulative user, nice, system, and idle cpu seconds.
func (procfs) CPUTimes() ([]float64, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		k, v, _ := strings.Cut(sc.Text(), " ")
		if k != "cpu" {
			continue
		}
		flds := strings.Fields(v)
		if len(flds) < 4 {
			return nil, fmt.Errorf("/proc/stat cpu has %d fields", len(flds))
		}
		times := make([]float64, 4)
		for i := range times {
			t, err := strconv.ParseUint(flds[i], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("/proc/stat cpu field %d: %w", i, err)
			}
			times[i] = float64(t) / ticks
		}
		return times, nil
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf("/proc/stat has no cpu line")
}

// CPUs counts the logical cpus listed in /proc/stat.
func (procfs) CPUs() (int, error) {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return 0, err
	}
	defer f.Close()

	var n int
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if l := sc.Text(); len(l) > 3 && l[:3] == "cpu" && l[3] != ' ' {
			n++
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, fmt.Errorf("/proc/stat lists no cpus")
	}
	return n, nil
}

// Pids gets the identifiers of the system's processes from the numeric entries of /proc.
func (procfs) Pids() ([]int, error) {
	dir, err := os.Open("/proc")
	if err != nil {
		return nil, err
	}
	defer dir.Close()

	names, err := dir.Readdirnames(0)
	if err != nil {
		return nil, err
	}

	pids := make([]int, 0, len(names))
	for _, name := range names {
		if pid, err := strconv.Atoi(name); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// meminfo gets a memory size in bytes from /proc/meminfo, which reports in kB.
func meminfo(key string) (uint64, error) {
	m, err := gocore.Measures("/proc/meminfo")
	if err != nil {
		return 0, err
	}
	v, ok := m[key]
	if !ok {
		return 0, fmt.Errorf("/proc/meminfo has no %s", key)
	}
	size, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("/proc/meminfo %s: %w", key, err)
	}
	return size * 1024, nil
}
