// Copyright © 2021-2023 The Gomon Project.

/*
Package process queries the facts of individual processes for the "psmon" command:
  - Exists checks for a pid with the null signal, without permission to inspect it
  - Adapter queries a process' identity, memory, and cpu times from the host, reporting a
    vanished process as NoSuchProcess and an inaccessible one as AccessDenied
  - Adapter correlates lsof's listing of a process' open files and internet sockets with
    the process, discarding rows that belong to another process
*/
package process
