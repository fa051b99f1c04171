// Copyright © 2021-2023 The Gomon Project.

package lsof

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/zosmac/gocore"
)

type (
	// Lister produces lsof output for a process: its open files, or with inet only its
	// internet sockets.
	Lister interface {
		List(ctx context.Context, pid int, inet bool) ([]byte, error)
	}

	// Command runs the lsof command. Zero values select the -lsof and -lsoftimeout flags.
	Command struct {
		Path    string
		Timeout time.Duration
	}
)

// List runs lsof for the pid and returns its standard output.
// lsof exits with status 1 when it finds nothing to list, which yields empty output.
func (c Command) List(ctx context.Context, pid int, inet bool) ([]byte, error) {
	path := c.Path
	if path == "" {
		path = flags.path
	}
	timeout := c.Timeout
	if timeout == 0 {
		timeout = flags.timeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	args := []string{"-n", "-P"}
	if inet {
		args = append(args, "-a", "-i")
	}
	args = append(args, "-p", strconv.Itoa(pid))

	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return stdout.Bytes(), nil
	}

	details := map[string]string{
		"command": cmd.String(),
		"stderr":  strings.TrimSpace(stderr.String()),
	}
	if ctx.Err() != nil {
		return nil, gocore.Error("lsof", ctx.Err(), details)
	}

	var exit *exec.ExitError
	if !errors.As(err, &exit) {
		return nil, gocore.Error("lsof", err, details) // could not start
	}
	if stdout.Len() > 0 { // some files could not be reported, the rest are
		gocore.Error("lsof", err, details).Info()
		return stdout.Bytes(), nil
	}
	if exit.ExitCode() == 1 {
		return nil, nil
	}
	return nil, gocore.Error("lsof", err, details)
}
