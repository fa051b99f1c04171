// Copyright © 2021-2023 The Gomon Project.

package report

import (
	"context"
	"errors"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/process"
	"github.com/zosmac/psmon/system"
	"golang.org/x/sync/errgroup"
)

type (
	// Report is a snapshot of the system and of the processes requested.
	Report struct {
		Timestamp    time.Time       `json:"timestamp" yaml:"timestamp"`
		Memory       system.Memory   `json:"memory" yaml:"memory"`
		CPU          system.CPUTimes `json:"cpu" yaml:"cpu"`
		CPUs         int             `json:"cpus" yaml:"cpus"`
		ProcessCount int             `json:"process_count" yaml:"process_count"`
		Processes    []Entry         `json:"processes" yaml:"processes"`
	}

	// Entry reports the measures of a process. Measures that could not be queried are
	// omitted, and the reasons recorded in Error.
	Entry struct {
		Pid         process.Pid          `json:"pid" yaml:"pid"`
		Record      *process.Record      `json:"record,omitempty" yaml:"record,omitempty"`
		Memory      *process.Memory      `json:"memory,omitempty" yaml:"memory,omitempty"`
		Times       *process.Times       `json:"times,omitempty" yaml:"times,omitempty"`
		CreateTime  float64              `json:"create_time,omitempty" yaml:"create_time,omitempty"`
		OpenFiles   []process.OpenFile   `json:"open_files,omitempty" yaml:"open_files,omitempty"`
		Connections []process.Connection `json:"connections,omitempty" yaml:"connections,omitempty"`
		Error       string               `json:"error,omitempty" yaml:"error,omitempty"`
	}
)

// Gather measures the system and each of the pids, querying the pids concurrently with
// an Adapter apiece. A process that vanishes or denies access is reported in its Entry;
// any other failure aborts the gather.
func Gather(ctx context.Context, provider *system.Provider, pids []process.Pid, newAdapter func() *process.Adapter) (*Report, error) {
	start := time.Now()
	r := &Report{
		Timestamp: start,
		CPUs:      provider.CPUs(),
		Processes: make([]Entry, len(pids)),
	}

	var err error
	if r.Memory, err = provider.Memory(); err != nil {
		return nil, err
	}
	if r.CPU, err = provider.CPUTimes(); err != nil {
		return nil, err
	}
	all, err := provider.Pids()
	if err != nil {
		return nil, err
	}
	r.ProcessCount = len(all)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, pid := range pids {
		g.Go(func() error {
			var err error
			r.Processes[i], err = measure(ctx, newAdapter(), pid)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	gocore.Error("gather", nil, map[string]string{
		"processes": strconv.Itoa(len(pids)),
		"time":      time.Since(start).String(),
	}).Info()

	return r, nil
}

// measure queries a process' measures. The process' identity is queried first so that
// later errors and lsof rows are matched against its name.
func measure(ctx context.Context, a *process.Adapter, pid process.Pid) (e Entry, err error) {
	e.Pid = pid
	var reasons []string
	defer func() {
		e.Error = strings.Join(reasons, "; ")
	}()

	// failed records a process' domain error, reporting whether the gather should stop
	// querying this process and any other error to abort the gather with.
	failed := func(err error) (bool, error) {
		var gone *process.NoSuchProcess
		var denied *process.AccessDenied
		var corr *process.CorrelationError
		switch {
		case errors.As(err, &gone):
			reasons = append(reasons, err.Error())
			return true, nil
		case errors.As(err, &denied), errors.As(err, &corr):
			reasons = append(reasons, err.Error())
			return false, nil
		}
		return true, gocore.Error("measure", err, map[string]string{
			"pid": pid.String(),
		})
	}

	if r, err := a.Info(pid); err == nil {
		e.Record = &r
	} else if stop, err := failed(err); stop {
		return e, err
	}

	if m, err := a.Memory(pid); err == nil {
		e.Memory = &m
	} else if stop, err := failed(err); stop {
		return e, err
	}

	if t, err := a.Times(pid); err == nil {
		e.Times = &t
	} else if stop, err := failed(err); stop {
		return e, err
	}

	if ct, err := a.CreateTime(pid); err == nil {
		e.CreateTime = ct
	} else if stop, err := failed(err); stop {
		return e, err
	}

	if files, err := a.OpenFiles(ctx, pid); err == nil {
		e.OpenFiles = files
	} else if stop, err := failed(err); stop {
		return e, err
	}

	if conns, err := a.Connections(ctx, pid); err == nil {
		e.Connections = conns
	} else if stop, err := failed(err); stop {
		return e, err
	}

	return e, nil
}
