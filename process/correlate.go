// Copyright © 2021-2023 The Gomon Project.

package process

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/zosmac/gocore"
	"github.com/zosmac/psmon/lsof"
)

// OpenFiles lists the regular files that the process holds open on numbered descriptors.
func (a *Adapter) OpenFiles(ctx context.Context, pid Pid) ([]OpenFile, error) {
	rows, err := a.correlate(ctx, pid, "open files", false)
	if err != nil {
		return nil, err
	}

	var files []OpenFile
	for _, row := range rows {
		fd, ok := row.Descriptor()
		if !ok || row.Type != "REG" {
			continue
		}
		files = append(files, OpenFile{
			Path: row.Name,
			Fd:   fd,
		})
	}
	return files, nil
}

// Connections lists the internet sockets of the process.
func (a *Adapter) Connections(ctx context.Context, pid Pid) ([]Connection, error) {
	rows, err := a.correlate(ctx, pid, "connections", true)
	if err != nil {
		return nil, err
	}

	var conns []Connection
	for _, row := range rows {
		fd, ok := row.Descriptor()
		if !ok || (row.Type != "IPv4" && row.Type != "IPv6") {
			continue
		}
		local, remote, state := lsof.Endpoints(row.Name)
		conns = append(conns, Connection{
			Fd:       fd,
			Family:   row.Type,
			Protocol: row.Node,
			Local:    local,
			Remote:   remote,
			State:    state,
		})
	}
	return conns, nil
}

// correlate lists and parses the lsof rows for the pid, discarding rows of other processes
// and rows whose command disagrees with the cached name.
func (a *Adapter) correlate(ctx context.Context, pid Pid, op string, inet bool) ([]lsof.Row, error) {
	out, err := a.lister.List(ctx, int(pid), inet)
	if err != nil {
		return nil, &CorrelationError{Pid: pid, Op: op, Err: err}
	}
	if len(out) == 0 {
		return nil, nil
	}

	rows, err := lsof.Parse(bytes.NewReader(out))
	if err != nil {
		return nil, &CorrelationError{Pid: pid, Op: op, Err: err}
	}

	kept := rows[:0]
	for _, row := range rows {
		if Pid(row.Pid) != pid {
			continue
		}
		if !sameCommand(a.name, row.Command) {
			gocore.Error("lsof row skipped", fmt.Errorf("command does not match process name, pid may be reused"), map[string]string{
				"pid":     pid.String(),
				"name":    a.name,
				"command": row.Command,
			}).Info()
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

// sameCommand reports whether lsof's command, which lsof may truncate, agrees with the name.
// Any command agrees with an unknown name.
func sameCommand(name, command string) bool {
	if name == "" {
		return true
	}
	return strings.HasPrefix(name, command) || strings.HasPrefix(command, name)
}
