// Copyright © 2021-2023 The Gomon Project.

/*
Package system reports system-wide measures for the "psmon" command: physical and
virtual memory, cumulative cpu times, and the list of process identifiers.
*/
package system
