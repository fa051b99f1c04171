// Copyright © 2021-2023 The Gomon Project.

package lsof

const (
	// sampleFiles is the output of "lsof -n -P -p 4242".
	sampleFiles = `COMMAND   PID USER    FD   TYPE             DEVICE SIZE/OFF    NODE NAME
worker   4242 alice  cwd    DIR              259,2     4096 1835009 /home/alice
worker   4242 alice  txt    REG              259,2  1183448 3670049 /usr/bin/worker
worker   4242 alice  mem    REG              259,2  2029592 3671234 /usr/lib/x86_64-linux-gnu/libc.so.6
worker   4242 alice    0u   CHR              136,0      0t0       3 /dev/pts/0
worker   4242 alice    3r   REG              259,2     1024 1835100 /home/alice/data/input.csv
worker   4242 alice    4wW  REG              259,2        0 1835101 /home/alice/data/out file.log
worker   4242 alice    5u  IPv4              98765      0t0     TCP 127.0.0.1:8080 (LISTEN)
worker   4242 alice    6u  unix 0x0000000000000000      0t0   77123 type=STREAM
`

	// sampleSockets is the output of "lsof -n -P -a -i -p 4242".
	sampleSockets = `COMMAND   PID USER    FD   TYPE DEVICE SIZE/OFF NODE NAME
worker   4242 alice    5u  IPv4  98765      0t0  TCP 127.0.0.1:8080 (LISTEN)
worker   4242 alice    6u  IPv4  98766      0t0  TCP 10.0.0.5:43210->93.184.216.34:443 (ESTABLISHED)
worker   4242 alice    7u  IPv6  98767      0t0  TCP [::1]:9090->[::1]:51000 (CLOSE_WAIT)
worker   4242 alice    8u  IPv4  98768      0t0  UDP *:68
`

	// sampleMalformed has one good row, one truncated row, and one row with a bad PID.
	sampleMalformed = `COMMAND   PID USER    FD   TYPE             DEVICE SIZE/OFF    NODE NAME
worker   4242 alice    3r   REG              259,2     1024 1835100 /home/alice/data/input.csv
worker   4242 alice
worker   abcd alice    3r   REG              259,2     1024 1835100 /home/alice/data/input.csv
`

	// sampleEscaped is the output of "lsof -n -P" for commands that lsof escapes: "my sleep",
	// a name with a tab, a name truncated within an escape, and a name starting with DEL.
	sampleEscaped = `COMMAND    PID USER    FD   TYPE             DEVICE SIZE/OFF    NODE NAME
my\x20sle 7557 root     0r   REG              259,2       12 1835200 /tmp/input.txt
tab^Iname 7558 root     3r   REG              259,2       12 1835200 /tmp/tab.txt
worker\x  7559 root     4w   REG              259,2       12 1835200 /tmp/cut.txt
^?del     7560 root     5u   REG              259,2       12 1835200 /tmp/del.txt
`
)
