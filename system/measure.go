// Copyright © 2021-2023 The Gomon Project.

package system

import (
	"fmt"
	"sync"

	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/process"
)

type (
	// Native is the host layer queried for system-wide facts. Memory sizes are in bytes,
	// cpu times in seconds positioned as user, nice, system, idle.
	Native interface {
		TotalPhysical() (uint64, error)
		AvailablePhysical() (uint64, error)
		TotalVirtual() (uint64, error)
		AvailableVirtual() (uint64, error)
		CPUTimes() ([]float64, error)
		CPUs() (int, error)
		Pids() ([]int, error)
	}

	// Provider reports the system's memory, cpu times, and processes. Total physical
	// memory and the cpu count are read once, when the Provider is created.
	Provider struct {
		native        Native
		totalPhysical uint64
		cpus          int
	}
)

var (
	// host is the Provider over the host's native layer.
	host = sync.OnceValues(func() (*Provider, error) {
		return New(hostNative)
	})
)

// Host returns the Provider for this system, creating it on first use.
func Host() (*Provider, error) {
	return host()
}

// New creates a Provider over the native layer.
func New(native Native) (*Provider, error) {
	total, err := native.TotalPhysical()
	if err != nil {
		return nil, gocore.Error("TotalPhysical", err)
	}
	cpus, err := native.CPUs()
	if err != nil {
		return nil, gocore.Error("CPUs", err)
	}
	if cpus < 1 {
		return nil, gocore.Error("CPUs", fmt.Errorf("%d cpus reported", cpus))
	}
	return &Provider{
		native:        native,
		totalPhysical: total,
		cpus:          cpus,
	}, nil
}

// CPUs returns the count of logical cpus.
func (p *Provider) CPUs() int {
	return p.cpus
}

// TotalPhysicalMemory returns the physical memory size.
func (p *Provider) TotalPhysicalMemory() uint64 {
	return p.totalPhysical
}

// AvailablePhysicalMemory queries the physical memory available for allocation.
func (p *Provider) AvailablePhysicalMemory() (uint64, error) {
	avail, err := p.native.AvailablePhysical()
	if err != nil {
		return 0, gocore.Error("AvailablePhysical", err)
	}
	return avail, nil
}

// UsedPhysicalMemory is the total less the available physical memory.
func (p *Provider) UsedPhysicalMemory() (int64, error) {
	avail, err := p.AvailablePhysicalMemory()
	if err != nil {
		return 0, err
	}
	return used(p.totalPhysical, avail), nil
}

// TotalVirtualMemory queries the swap size, which may change as swap is added or removed.
func (p *Provider) TotalVirtualMemory() (uint64, error) {
	total, err := p.native.TotalVirtual()
	if err != nil {
		return 0, gocore.Error("TotalVirtual", err)
	}
	return total, nil
}

// AvailableVirtualMemory queries the free swap.
func (p *Provider) AvailableVirtualMemory() (uint64, error) {
	avail, err := p.native.AvailableVirtual()
	if err != nil {
		return 0, gocore.Error("AvailableVirtual", err)
	}
	return avail, nil
}

// UsedVirtualMemory is the total less the available swap.
func (p *Provider) UsedVirtualMemory() (int64, error) {
	total, err := p.TotalVirtualMemory()
	if err != nil {
		return 0, err
	}
	avail, err := p.AvailableVirtualMemory()
	if err != nil {
		return 0, err
	}
	return used(total, avail), nil
}

// Memory captures all of the memory measures together.
func (p *Provider) Memory() (Memory, error) {
	availPhysical, err := p.AvailablePhysicalMemory()
	if err != nil {
		return Memory{}, err
	}
	totalVirtual, err := p.TotalVirtualMemory()
	if err != nil {
		return Memory{}, err
	}
	availVirtual, err := p.AvailableVirtualMemory()
	if err != nil {
		return Memory{}, err
	}

	return Memory{
		TotalPhysical:     p.totalPhysical,
		AvailablePhysical: availPhysical,
		UsedPhysical:      used(p.totalPhysical, availPhysical),
		TotalVirtual:      totalVirtual,
		AvailableVirtual:  availVirtual,
		UsedVirtual:       used(totalVirtual, availVirtual),
	}, nil
}

// CPUTimes queries the system's cumulative cpu seconds.
func (p *Provider) CPUTimes() (CPUTimes, error) {
	times, err := p.native.CPUTimes()
	if err != nil {
		return CPUTimes{}, gocore.Error("CPUTimes", err)
	}
	if len(times) != 4 {
		return CPUTimes{}, gocore.Error("CPUTimes", fmt.Errorf("%d values, want user, nice, system, idle", len(times)))
	}
	return CPUTimes{
		User:   times[0],
		Nice:   times[1],
		System: times[2],
		Idle:   times[3],
	}, nil
}

// Pids lists the system's process identifiers in the order the system reports them.
func (p *Provider) Pids() ([]process.Pid, error) {
	ids, err := p.native.Pids()
	if err != nil {
		return nil, gocore.Error("Pids", err)
	}
	pids := make([]process.Pid, len(ids))
	for i, id := range ids {
		pids[i] = process.Pid(id)
	}
	return pids, nil
}

// used subtracts available from total without wrapping when available exceeds total.
func used(total, available uint64) int64 {
	return int64(total) - int64(available)
}
