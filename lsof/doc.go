// Copyright © 2021-2023 The Gomon Project.

/*
Package lsof runs the lsof command for a single process and parses its tabular output:
  - Command lists a process' open files, or its internet sockets, bounded by a timeout
  - Parse locates the columns from the header line and slices each row into a Row
  - Endpoints splits the NAME of an internet socket row into addresses and state

The package defines the following command line flags:
  - -lsof:        the path of the lsof command (default "lsof")
  - -lsoftimeout: the limit on an lsof command's run time (default 10s)
*/
package lsof
