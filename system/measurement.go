// Copyright © 2021-2023 The Gomon Project.

package system

type (
	// Memory is a snapshot of the system's physical and virtual (swap) memory in bytes.
	// Used values are signed: available may exceed total while the kernel's accounting
	// settles.
	Memory struct {
		TotalPhysical     uint64 `json:"total_physical" yaml:"total_physical"`
		AvailablePhysical uint64 `json:"available_physical" yaml:"available_physical"`
		UsedPhysical      int64  `json:"used_physical" yaml:"used_physical"`
		TotalVirtual      uint64 `json:"total_virtual" yaml:"total_virtual"`
		AvailableVirtual  uint64 `json:"available_virtual" yaml:"available_virtual"`
		UsedVirtual       int64  `json:"used_virtual" yaml:"used_virtual"`
	}

	// CPUTimes holds the system's cumulative cpu seconds by mode.
	CPUTimes struct {
		User   float64 `json:"user" yaml:"user"`
		Nice   float64 `json:"nice" yaml:"nice"`
		System float64 `json:"system" yaml:"system"`
		Idle   float64 `json:"idle" yaml:"idle"`
	}
)

// Used returns the cpu seconds spent outside of the idle mode.
func (c CPUTimes) Used() float64 {
	return c.User + c.Nice + c.System
}
