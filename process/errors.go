// Copyright © 2021-2023 The Gomon Project.

package process

import (
	"fmt"
)

type (
	// NoSuchProcess reports that the process no longer exists.
	NoSuchProcess struct {
		Pid  Pid
		Name string
	}

	// AccessDenied reports that the caller lacks permission to query the process.
	// Name is the last name observed for the process, if any.
	AccessDenied struct {
		Pid  Pid
		Name string
	}

	// CorrelationError reports that the open resources of a process could not be
	// listed with lsof.
	CorrelationError struct {
		Pid Pid
		Op  string
		Err error
	}
)

// Error method to comply with error interface.
func (err *NoSuchProcess) Error() string {
	return "process no longer exists " + identify(err.Pid, err.Name)
}

// Error method to comply with error interface.
func (err *AccessDenied) Error() string {
	return "access denied " + identify(err.Pid, err.Name)
}

// Error method to comply with error interface.
func (err *CorrelationError) Error() string {
	return fmt.Sprintf("%s of pid %d: %v", err.Op, err.Pid, err.Err)
}

// Unwrap method to comply with error interface.
func (err *CorrelationError) Unwrap() error {
	return err.Err
}

func identify(pid Pid, name string) string {
	if name == "" {
		return fmt.Sprintf("(pid=%d)", pid)
	}
	return fmt.Sprintf("(pid=%d, name=%q)", pid, name)
}
