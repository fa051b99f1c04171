// Copyright © 2021-2023 The Gomon Project.

package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"reflect"
	"syscall"
	"testing"

	"golang.org/x/sys/unix"
)

// sampleFiles is "lsof -n -P -p 4242" output mixed with rows of another pid, another
// command, and a truncated row.
const sampleFiles = `COMMAND   PID USER    FD   TYPE             DEVICE SIZE/OFF    NODE NAME
worker   4242 alice  cwd    DIR              259,2     4096 1835009 /home/alice
worker   4242 alice    3r   REG              259,2     1024 1835100 /home/alice/data/input.csv
worker   4242 alice    4wW  REG              259,2        0 1835101 /home/alice/data/out file.log
worker   4242 alice    5u  IPv4              98765      0t0     TCP 127.0.0.1:8080 (LISTEN)
worker   4243 alice    3r   REG              259,2     1024 1835102 /home/alice/other.csv
nginx    4242 alice    3r   REG              259,2     1024 1835103 /var/log/nginx.log
worker   4242 alice
`

// sampleSockets is the output of "lsof -n -P -a -i -p 4242".
const sampleSockets = `COMMAND   PID USER    FD   TYPE DEVICE SIZE/OFF NODE NAME
worker   4242 alice    5u  IPv4  98765      0t0  TCP 127.0.0.1:8080 (LISTEN)
worker   4242 alice    6u  IPv4  98766      0t0  TCP 10.0.0.5:43210->93.184.216.34:443 (ESTABLISHED)
worker   4242 alice    7u  IPv6  98767      0t0  TCP [::1]:9090->[::1]:51000 (CLOSE_WAIT)
worker   4242 alice    8u  IPv4  98768      0t0  UDP *:68
`

type (
	fakeNative struct {
		record Record
		err    error
	}

	fakeLister struct {
		files, sockets string
		err            error
		pid            int
	}
)

func (f fakeNative) Info(Pid) (Record, error)        { return f.record, f.err }
func (f fakeNative) Memory(Pid) (Memory, error)      { return Memory{Resident: 4096, Virtual: 8192}, f.err }
func (f fakeNative) Times(Pid) (Times, error)        { return Times{User: 1.5, System: 0.25}, f.err }
func (f fakeNative) CreateTime(Pid) (float64, error) { return 1700000000.5, f.err }

func (f *fakeLister) List(_ context.Context, pid int, inet bool) ([]byte, error) {
	f.pid = pid
	if f.err != nil {
		return nil, f.err
	}
	if inet {
		return []byte(f.sockets), nil
	}
	return []byte(f.files), nil
}

func TestQueryTranslation(t *testing.T) {
	other := errors.New("device not configured")
	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"esrch", unix.ESRCH, func(err error) bool {
			var e *NoSuchProcess
			return errors.As(err, &e) && e.Pid == 4242
		}},
		{"wrapped esrch", fmt.Errorf("%w: %v", unix.ESRCH, fs.ErrNotExist), func(err error) bool {
			var e *NoSuchProcess
			return errors.As(err, &e)
		}},
		{"eperm", unix.EPERM, func(err error) bool {
			var e *AccessDenied
			return errors.As(err, &e) && e.Pid == 4242
		}},
		{"other", other, func(err error) bool {
			return err == other
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAdapter(fakeNative{err: tt.err}, &fakeLister{})
			if _, err := a.Info(4242); !tt.check(err) {
				t.Errorf("Info() error = %v", err)
			}
			if _, err := a.Memory(4242); !tt.check(err) {
				t.Errorf("Memory() error = %v", err)
			}
			if _, err := a.Times(4242); !tt.check(err) {
				t.Errorf("Times() error = %v", err)
			}
			if _, err := a.CreateTime(4242); !tt.check(err) {
				t.Errorf("CreateTime() error = %v", err)
			}
		})
	}
}

func TestNameCache(t *testing.T) {
	native := &fakeNative{record: Record{Pid: 4242, Name: "worker"}}
	a := NewAdapter(native, &fakeLister{})

	native.err = unix.ESRCH
	_, err := a.Memory(4242)
	var gone *NoSuchProcess
	if !errors.As(err, &gone) || gone.Name != "" {
		t.Fatalf("Memory() before Info error = %v, want NoSuchProcess without name", err)
	}

	native.err = nil
	r, err := a.Info(4242)
	if err != nil || r.Name != "worker" {
		t.Fatalf("Info() = %+v, %v", r, err)
	}
	if a.Name() != "worker" {
		t.Fatalf("Name() = %q, want %q", a.Name(), "worker")
	}

	native.err = unix.EPERM
	_, err = a.Times(4242)
	var denied *AccessDenied
	if !errors.As(err, &denied) || denied.Name != "worker" {
		t.Fatalf("Times() error = %v, want AccessDenied for worker", err)
	}
	if want := `access denied (pid=4242, name="worker")`; err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	native.err = unix.ESRCH
	if _, err := a.Info(4242); err == nil {
		t.Fatal("Info() returned no error")
	}
	if a.Name() != "worker" {
		t.Errorf("failed Info() changed Name() to %q", a.Name())
	}
}

func TestQueryValues(t *testing.T) {
	a := NewAdapter(fakeNative{}, &fakeLister{})
	if m, err := a.Memory(1); err != nil || m != (Memory{Resident: 4096, Virtual: 8192}) {
		t.Errorf("Memory() = %+v, %v", m, err)
	}
	if tm, err := a.Times(1); err != nil || tm != (Times{User: 1.5, System: 0.25}) {
		t.Errorf("Times() = %+v, %v", tm, err)
	}
	if ct, err := a.CreateTime(1); err != nil || ct != 1700000000.5 {
		t.Errorf("CreateTime() = %v, %v", ct, err)
	}
}

func TestExists(t *testing.T) {
	tests := []struct {
		pid  Pid
		want bool
	}{
		{Pid(os.Getpid()), true},
		{1, true},
		{0, true},
		{-1, false},
		{-4242, false},
		{math.MaxInt32 + 1, false},
	}
	for _, tt := range tests {
		if got := Exists(tt.pid); got != tt.want {
			t.Errorf("Exists(%d) = %t, want %t", tt.pid, got, tt.want)
		}
	}
}

func TestExistsSignalOutcome(t *testing.T) {
	defer func(k func(int, syscall.Signal) error) { kill = k }(kill)

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"delivered", nil, true},
		{"another user's", unix.EPERM, true},
		{"gone", unix.ESRCH, false},
		{"invalid", unix.EINVAL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var signalled []int
			kill = func(pid int, sig syscall.Signal) error {
				if sig != 0 {
					t.Errorf("kill(%d, %d), want the null signal", pid, sig)
				}
				signalled = append(signalled, pid)
				return tt.err
			}
			if got := Exists(4242); got != tt.want {
				t.Errorf("Exists(4242) = %t, want %t", got, tt.want)
			}
			if len(signalled) != 1 || signalled[0] != 4242 {
				t.Errorf("kill called for %v, want [4242]", signalled)
			}
		})
	}

	kill = func(pid int, _ syscall.Signal) error {
		t.Errorf("kill(%d) called for a pid outside the process range", pid)
		return nil
	}
	for _, pid := range []Pid{0, -1, math.MaxInt32 + 1} {
		Exists(pid)
	}
}

func TestHostInfo(t *testing.T) {
	a := New()
	r, err := a.Info(Pid(os.Getpid()))
	if err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	if r.Pid != Pid(os.Getpid()) || r.Name == "" || a.Name() != r.Name {
		t.Errorf("Info() = %+v, Name() = %q", r, a.Name())
	}
	if r.Ppid != Pid(os.Getppid()) {
		t.Errorf("Info() Ppid = %d, want %d", r.Ppid, os.Getppid())
	}
	if m, err := a.Memory(Pid(os.Getpid())); err != nil || m.Resident == 0 || m.Virtual < m.Resident {
		t.Errorf("Memory() = %+v, %v", m, err)
	}
	if ct, err := a.CreateTime(Pid(os.Getpid())); err != nil || ct <= 0 {
		t.Errorf("CreateTime() = %v, %v", ct, err)
	}
}

func TestHostNoSuchProcess(t *testing.T) {
	const pid = Pid(math.MaxInt32)
	a := New()
	queries := map[string]func() error{
		"Info":       func() error { _, err := a.Info(pid); return err },
		"Memory":     func() error { _, err := a.Memory(pid); return err },
		"Times":      func() error { _, err := a.Times(pid); return err },
		"CreateTime": func() error { _, err := a.CreateTime(pid); return err },
	}
	for name, query := range queries {
		err := query()
		var gone *NoSuchProcess
		if !errors.As(err, &gone) || gone.Pid != pid {
			t.Errorf("%s() error = %v, want NoSuchProcess for pid %d", name, err, pid)
		}
	}
}

func TestOpenFiles(t *testing.T) {
	lister := &fakeLister{files: sampleFiles}
	a := NewAdapter(fakeNative{record: Record{Pid: 4242, Name: "worker"}}, lister)

	files, err := a.OpenFiles(context.Background(), 4242)
	if err != nil {
		t.Fatalf("OpenFiles() error = %v", err)
	}
	if len(files) != 3 { // nothing cached: the nginx row is kept
		t.Fatalf("OpenFiles() = %+v, want 3 files", files)
	}
	if lister.pid != 4242 {
		t.Errorf("List() pid = %d, want 4242", lister.pid)
	}

	if _, err := a.Info(4242); err != nil {
		t.Fatalf("Info() error = %v", err)
	}
	files, err = a.OpenFiles(context.Background(), 4242)
	if err != nil {
		t.Fatalf("OpenFiles() error = %v", err)
	}
	want := []OpenFile{
		{Path: "/home/alice/data/input.csv", Fd: 3},
		{Path: "/home/alice/data/out file.log", Fd: 4},
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("OpenFiles() = %+v, want %+v", files, want)
	}
}

func TestConnections(t *testing.T) {
	a := NewAdapter(fakeNative{record: Record{Pid: 4242, Name: "worker"}}, &fakeLister{sockets: sampleSockets})
	if _, err := a.Info(4242); err != nil {
		t.Fatalf("Info() error = %v", err)
	}

	conns, err := a.Connections(context.Background(), 4242)
	if err != nil {
		t.Fatalf("Connections() error = %v", err)
	}
	want := []Connection{
		{Fd: 5, Family: "IPv4", Protocol: "TCP", Local: "127.0.0.1:8080", State: "LISTEN"},
		{Fd: 6, Family: "IPv4", Protocol: "TCP", Local: "10.0.0.5:43210", Remote: "93.184.216.34:443", State: "ESTABLISHED"},
		{Fd: 7, Family: "IPv6", Protocol: "TCP", Local: "[::1]:9090", Remote: "[::1]:51000", State: "CLOSE_WAIT"},
		{Fd: 8, Family: "IPv4", Protocol: "UDP", Local: "*:68"},
	}
	if !reflect.DeepEqual(conns, want) {
		t.Errorf("Connections() = %+v, want %+v", conns, want)
	}

	conns, err = a.Connections(context.Background(), 4243)
	if err != nil || len(conns) != 0 {
		t.Errorf("Connections() of another pid = %+v, %v, want none", conns, err)
	}
}

func TestCorrelationErrors(t *testing.T) {
	failure := errors.New("lsof: executable file not found")
	a := NewAdapter(fakeNative{}, &fakeLister{err: failure})

	_, err := a.OpenFiles(context.Background(), 4242)
	var ce *CorrelationError
	if !errors.As(err, &ce) || ce.Op != "open files" || ce.Pid != 4242 || !errors.Is(err, failure) {
		t.Fatalf("OpenFiles() error = %v, want CorrelationError", err)
	}
	if _, err := a.Connections(context.Background(), 4242); !errors.As(err, &ce) || ce.Op != "connections" {
		t.Fatalf("Connections() error = %v, want CorrelationError", err)
	}

	a = NewAdapter(fakeNative{}, &fakeLister{files: "lsof: unsupported option\n"})
	if _, err := a.OpenFiles(context.Background(), 4242); !errors.As(err, &ce) {
		t.Fatalf("OpenFiles() of unparsable output error = %v, want CorrelationError", err)
	}

	a = NewAdapter(fakeNative{}, &fakeLister{})
	if files, err := a.OpenFiles(context.Background(), 4242); err != nil || len(files) != 0 {
		t.Errorf("OpenFiles() of empty output = %+v, %v", files, err)
	}
}

func TestSameCommand(t *testing.T) {
	tests := []struct {
		name, command string
		want          bool
	}{
		{"", "anything", true},
		{"worker", "worker", true},
		{"worker-pool-main", "worker-po", true},
		{"wrk", "wrk-helper", true},
		{"worker", "nginx", false},
		{"my sleep", "my sle", true},
		{"Google Chrome Helper", "Google C", true},
		{"my sleep", `my\x20sle`, false},
	}
	for _, tt := range tests {
		if got := sameCommand(tt.name, tt.command); got != tt.want {
			t.Errorf("sameCommand(%q, %q) = %t, want %t", tt.name, tt.command, got, tt.want)
		}
	}
}

func TestOpenFilesEscapedCommand(t *testing.T) {
	const escaped = `COMMAND    PID USER    FD   TYPE             DEVICE SIZE/OFF    NODE NAME
my\x20sle 7557 root     0r   REG              259,2       12 1835200 /tmp/input.txt
my\x20sle 7557 root     1w   REG              259,2        0 1835201 /tmp/output.txt
`
	a := NewAdapter(fakeNative{record: Record{Pid: 7557, Name: "my sleep"}}, &fakeLister{files: escaped})
	if _, err := a.Info(7557); err != nil {
		t.Fatalf("Info() error = %v", err)
	}

	files, err := a.OpenFiles(context.Background(), 7557)
	if err != nil {
		t.Fatalf("OpenFiles() error = %v", err)
	}
	want := []OpenFile{
		{Path: "/tmp/input.txt", Fd: 0},
		{Path: "/tmp/output.txt", Fd: 1},
	}
	if !reflect.DeepEqual(files, want) {
		t.Errorf("OpenFiles() = %+v, want %+v", files, want)
	}
}
