// Copyright © 2021-2023 The Gomon Project.

package process

type (
	// Record contains the identifying properties of a process.
	Record struct {
		Pid        Pid      `json:"pid" yaml:"pid"`
		Ppid       Pid      `json:"ppid" yaml:"ppid"`
		Name       string   `json:"name" yaml:"name"`
		Executable string   `json:"executable,omitempty" yaml:"executable,omitempty"`
		Args       []string `json:"args,omitempty" yaml:"args,omitempty"`
		UID        int      `json:"uid" yaml:"uid"`
		GID        int      `json:"gid" yaml:"gid"`
	}

	// Memory reports a process' resident and virtual set sizes in bytes.
	Memory struct {
		Resident uint64 `json:"resident" yaml:"resident"`
		Virtual  uint64 `json:"virtual" yaml:"virtual"`
	}

	// Times reports a process' cumulative cpu seconds since it started.
	Times struct {
		User   float64 `json:"user" yaml:"user"`
		System float64 `json:"system" yaml:"system"`
	}

	// OpenFile is a regular file open on a process descriptor.
	OpenFile struct {
		Path string `json:"path" yaml:"path"`
		Fd   int    `json:"fd" yaml:"fd"`
	}

	// Connection represents a process' network socket.
	Connection struct {
		Fd       int    `json:"fd" yaml:"fd"`
		Family   string `json:"family" yaml:"family"`
		Protocol string `json:"protocol" yaml:"protocol"`
		Local    string `json:"local" yaml:"local"`
		Remote   string `json:"remote,omitempty" yaml:"remote,omitempty"`
		State    string `json:"state,omitempty" yaml:"state,omitempty"`
	}
)
