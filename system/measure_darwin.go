// Copyright © 2021-2023 The Gomon Project.

package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	psprocess "github.com/shirou/gopsutil/v3/process"
)

var (
	// hostNative queries the mach host and sysctl interfaces through gopsutil.
	hostNative Native = sysinfo{}
)

type (
	// sysinfo queries system facts with gopsutil.
	sysinfo struct{}
)

// TotalPhysical gets the size of physical memory.
func (sysinfo) TotalPhysical() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Total, nil
}

// AvailablePhysical gets the physical memory available without swapping.
func (sysinfo) AvailablePhysical() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.Available, nil
}

// TotalVirtual gets the size of the swap files.
func (sysinfo) TotalVirtual() (uint64, error) {
	sm, err := mem.SwapMemory()
	if err != nil {
		return 0, err
	}
	return sm.Total, nil
}

// AvailableVirtual gets the free swap.
func (sysinfo) AvailableVirtual() (uint64, error) {
	sm, err := mem.SwapMemory()
	if err != nil {
		return 0, err
	}
	return sm.Free, nil
}

// CPUTimes gets the system's cumulative user, nice, system, and idle cpu seconds.
func (sysinfo) CPUTimes() ([]float64, error) {
	ts, err := cpu.Times(false)
	if err != nil {
		return nil, err
	}
	if len(ts) == 0 {
		return nil, fmt.Errorf("host cpu times not reported")
	}
	return []float64{ts[0].User, ts[0].Nice, ts[0].System, ts[0].Idle}, nil
}

// CPUs gets the count of logical cpus.
func (sysinfo) CPUs() (int, error) {
	return cpu.Counts(true)
}

// Pids gets the identifiers of the system's processes.
func (sysinfo) Pids() ([]int, error) {
	ids, err := psprocess.Pids()
	if err != nil {
		return nil, err
	}
	pids := make([]int, len(ids))
	for i, id := range ids {
		pids[i] = int(id)
	}
	return pids, nil
}
