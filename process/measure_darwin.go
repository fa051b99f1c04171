// Copyright © 2021-2023 The Gomon Project.

package process

/*
#include <libproc.h>
#include <sys/sysctl.h>
#include <mach/mach_time.h>
*/
import "C"

import (
	"bytes"
	"fmt"
	"unsafe"
)

var (
	// hostNative queries the kernel with proc_pidinfo.
	hostNative Native = libproc{}

	// timebase converts mach absolute time units to nanoseconds.
	timebase = func() float64 {
		var info C.mach_timebase_info_data_t
		if C.mach_timebase_info(&info) != 0 || info.denom == 0 {
			return 1
		}
		return float64(info.numer) / float64(info.denom)
	}()
)

type (
	// libproc queries process facts with the libproc interfaces.
	libproc struct{}
)

// Info gets the identifying properties of a process.
func (libproc) Info(pid Pid) (Record, error) {
	bsd, err := bsdinfo(pid)
	if err != nil {
		return Record{}, err
	}

	name := C.GoString(&bsd.pbi_name[0])
	if name == "" {
		name = C.GoString(&bsd.pbi_comm[0])
	}

	r := Record{
		Pid:  pid,
		Ppid: Pid(bsd.pbi_ppid),
		Name: name,
		UID:  int(bsd.pbi_uid),
		GID:  int(bsd.pbi_gid),
	}

	path := make([]byte, C.PROC_PIDPATHINFO_MAXSIZE)
	if n := C.proc_pidpath(C.int(pid), unsafe.Pointer(&path[0]), C.uint32_t(len(path))); n > 0 {
		r.Executable = string(path[:n])
	}
	r.Args = pid.args()

	return r, nil
}

// Memory gets a process' resident and virtual set sizes.
func (libproc) Memory(pid Pid) (Memory, error) {
	ti, err := taskinfo(pid)
	if err != nil {
		return Memory{}, err
	}

	return Memory{
		Resident: uint64(ti.pti_resident_size),
		Virtual:  uint64(ti.pti_virtual_size),
	}, nil
}

// Times gets a process' cumulative user and system cpu seconds.
func (libproc) Times(pid Pid) (Times, error) {
	ti, err := taskinfo(pid)
	if err != nil {
		return Times{}, err
	}

	return Times{
		User:   float64(ti.pti_total_user) * timebase / 1e9,
		System: float64(ti.pti_total_system) * timebase / 1e9,
	}, nil
}

// CreateTime gets a process' start time in seconds since the epoch.
func (libproc) CreateTime(pid Pid) (float64, error) {
	bsd, err := bsdinfo(pid)
	if err != nil {
		return 0, err
	}

	return float64(bsd.pbi_start_tvsec) + float64(bsd.pbi_start_tvusec)/1e6, nil
}

// bsdinfo gets the BSD properties of a process. Any user may query these.
func bsdinfo(pid Pid) (C.struct_proc_bsdinfo, error) {
	var bsd C.struct_proc_bsdinfo
	if n, err := C.proc_pidinfo(
		C.int(pid),
		C.PROC_PIDTBSDINFO,
		0,
		unsafe.Pointer(&bsd),
		C.int(C.PROC_PIDTBSDINFO_SIZE),
	); n != C.int(C.PROC_PIDTBSDINFO_SIZE) {
		return bsd, pidinfoError("PROC_PIDTBSDINFO", int(n), err)
	}
	return bsd, nil
}

// taskinfo gets the task metrics of a process. Only the owner or root may query these.
func taskinfo(pid Pid) (C.struct_proc_taskinfo, error) {
	var ti C.struct_proc_taskinfo
	if n, err := C.proc_pidinfo(
		C.int(pid),
		C.PROC_PIDTASKINFO,
		0,
		unsafe.Pointer(&ti),
		C.int(C.PROC_PIDTASKINFO_SIZE),
	); n != C.int(C.PROC_PIDTASKINFO_SIZE) {
		return ti, pidinfoError("PROC_PIDTASKINFO", int(n), err)
	}
	return ti, nil
}

// pidinfoError returns the errno of a failed proc_pidinfo, which is ESRCH for a missing
// process and EPERM for a process of another user.
func pidinfoError(flavor string, n int, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("proc_pidinfo %s returned %d bytes", flavor, n)
}

// args retrieves the process command line arguments.
func (pid Pid) args() []string {
	size := C.size_t(C.ARG_MAX)
	buf := make([]byte, size)

	if rv := C.sysctl(
		(*C.int)(unsafe.Pointer(&[3]C.int{C.CTL_KERN, C.KERN_PROCARGS2, C.int(pid)})),
		3,
		unsafe.Pointer(&buf[0]),
		&size,
		unsafe.Pointer(nil),
		0,
	); rv != 0 || size < 4 {
		return nil
	}

	l := int(*(*uint32)(unsafe.Pointer(&buf[0])))
	ss := bytes.FieldsFunc(buf[4:size], func(r rune) bool { return r == 0 })
	var args []string
	for i, s := range ss {
		if i == 0 {
			continue // executable
		} else if i <= l {
			args = append(args, string(s))
		} else {
			break // environment
		}
	}

	return args
}
