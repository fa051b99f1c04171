// Copyright © 2021-2023 The Gomon Project.

/*
Package main implements the Go language "psmon" process monitor command. It reports the
system's memory and cpu times, and the identity, memory, cpu times, open files, and
internet connections of selected processes, either once to standard output or
continually through an HTTP server with
  - delivery of metrics to Prometheus
  - a JSON report endpoint
  - a web socket that reports on any pid requested

The main package defines the following command line flags:
  - -pids:   a comma-separated list of the pids to report on (default psmon's own pid)
  - -report: to write one report to standard output and exit
  - -format: the report format, yaml or json (default yaml)
*/
package main
