// Copyright © 2021-2023 The Gomon Project.

package serve

import (
	"errors"
	"time"

	"github.com/zosmac/gocore"
)

var (
	// flags defines the command line flags.
	flags = struct {
		port int
		sample
	}{
		port:   1234,
		sample: sample(15 * time.Second),
	}
)

// init initializes the command line flags.
func init() {
	gocore.Flags.Var(
		&flags.port,
		"port",
		"[-port n]",
		"Port number for the psmon HTTP server",
	)
	gocore.Flags.Var(
		&flags.sample,
		"sample",
		"[-sample <interval>]",
		"Measure no more often than `interval` for Prometheus collections, specified in Go time.Duration string format",
	)
}

// sample is a command line flag type.
type sample time.Duration

// Set is a flag.Value interface method to enable sample as a command line flag
func (i *sample) Set(s string) error {
	d, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	if d < time.Second {
		return errors.New("invalid sample interval, minimum is 1s")
	}
	*i = sample(d)
	return nil
}

// String is a flag.Value interface method to enable sample as a command line flag.
func (i *sample) String() string {
	return time.Duration(*i).String()
}
