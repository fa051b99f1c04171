// Copyright © 2021-2023 The Gomon Project.

/*
Package report gathers a snapshot of the system and of a set of processes, and encodes
it as YAML or JSON.
*/
package report
