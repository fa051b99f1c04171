// Copyright © 2021-2023 The Gomon Project.

package process

import (
	"errors"

	"github.com/zosmac/psmon/lsof"
	"golang.org/x/sys/unix"
)

type (
	// Native is the host layer queried for per-process facts. Its failures carry the
	// OS errno (unix.ESRCH, unix.EPERM, ...) so that they can be matched with errors.Is.
	Native interface {
		Info(Pid) (Record, error)
		Memory(Pid) (Memory, error)
		Times(Pid) (Times, error)
		CreateTime(Pid) (float64, error)
	}

	// Adapter queries one process at a time. It remembers the name from its last
	// successful Info so that later errors and lsof correlation can identify the process.
	// An Adapter is not safe for concurrent use; use one Adapter per pid.
	Adapter struct {
		native Native
		lister lsof.Lister
		name   string
	}
)

// New creates an Adapter over the host's process tables and lsof.
func New() *Adapter {
	return NewAdapter(hostNative, lsof.Command{})
}

// NewAdapter creates an Adapter with explicit native and lsof collaborators.
func NewAdapter(native Native, lister lsof.Lister) *Adapter {
	return &Adapter{
		native: native,
		lister: lister,
	}
}

// Name returns the name cached by the last successful Info, which may be stale.
func (a *Adapter) Name() string {
	return a.name
}

// Info gets the identifying properties of the process and caches its name.
func (a *Adapter) Info(pid Pid) (Record, error) {
	r, err := query(a, pid, a.native.Info)
	if err != nil {
		return r, err
	}
	a.name = r.Name
	return r, nil
}

// Memory gets the process' resident and virtual memory sizes.
func (a *Adapter) Memory(pid Pid) (Memory, error) {
	return query(a, pid, a.native.Memory)
}

// Times gets the process' user and system cpu seconds.
func (a *Adapter) Times(pid Pid) (Times, error) {
	return query(a, pid, a.native.Times)
}

// CreateTime gets the process' start time in seconds since the epoch.
func (a *Adapter) CreateTime(pid Pid) (float64, error) {
	return query(a, pid, a.native.CreateTime)
}

// query calls a native query, translating ESRCH and EPERM into NoSuchProcess and
// AccessDenied. Other errors are returned as is.
func query[T any](a *Adapter, pid Pid, fn func(Pid) (T, error)) (T, error) {
	v, err := fn(pid)
	switch {
	case err == nil:
		return v, nil
	case errors.Is(err, unix.ESRCH):
		return v, &NoSuchProcess{Pid: pid, Name: a.name}
	case errors.Is(err, unix.EPERM):
		return v, &AccessDenied{Pid: pid, Name: a.name}
	}
	return v, err
}
