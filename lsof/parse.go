// Copyright © 2021-2023 The Gomon Project.

package lsof

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/zosmac/gocore"
)

var (
	// headerRegex for parsing lsof header line of lsof command.
	headerRegex = regexp.MustCompile(
		`^(?P<command>COMMAND) ` +
			`(?P<pid>[ ]*PID) ` +
			`(?P<user>[ ]*USER) ` +
			`(?P<fd>[ ]*FD)` +
			`(?P<mode> )` +
			`(?P<lock> ) ` +
			`(?P<type>[ ]*TYPE) ` +
			`(?P<device>[ ]*DEVICE) ` +
			`(?P<sizeoff>[ ]*SIZE/OFF) ` +
			`(?P<node>[ ]*NODE) ` +
			`(?P<name>[ ]*NAME)[ ]*$`,
	)

	// headerGroups maps capture group names to indices.
	headerGroups = func() map[string]int {
		g := map[string]int{}
		for _, name := range headerRegex.SubexpNames() {
			g[name] = headerRegex.SubexpIndex(name)
		}
		return g
	}()
)

var (
	// cEscapes maps the C escape letters that lsof prints to their characters.
	cEscapes = map[byte]byte{
		'b':  '\b',
		'f':  '\f',
		'n':  '\n',
		'r':  '\r',
		't':  '\t',
		'\\': '\\',
	}
)

const (
	// lsof header line regular expression capture group names.
	groupCommand = "command"
	groupPid     = "pid"
	groupUser    = "user"
	groupFd      = "fd"
	groupMode    = "mode"
	groupLock    = "lock"
	groupType    = "type"
	groupDevice  = "device"
	groupSizeOff = "sizeoff"
	groupNode    = "node"
	groupName    = "name"
)

type (
	// Row is one open file reported by lsof. Command is decoded from lsof's escaped form.
	Row struct {
		Command string
		Pid     int
		User    string
		FD      string
		Mode    byte
		Lock    byte
		Type    string
		Device  string
		SizeOff string
		Node    string
		Name    string
	}

	// columns records the starting offset of each column of the lsof output.
	columns struct {
		user, fd, mode, typ, device, size, node, name int
	}
)

// Descriptor returns the file descriptor number of the row, if FD is numeric rather than
// a name such as "cwd", "txt", or "mem".
func (r Row) Descriptor() (int, bool) {
	fd, err := strconv.Atoi(r.FD)
	return fd, err == nil
}

// Parse reads lsof output. The header line locates each column and every subsequent row
// is sliced at those offsets. Rows that cannot be sliced are logged and skipped.
func Parse(r io.Reader) ([]Row, error) {
	var rows []Row
	var cols *columns

	sc := bufio.NewScanner(r)
	for sc.Scan() {
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}

		if strings.HasPrefix(text, "COMMAND") {
			// lsof header: COMMAND PID USER FDml TYPE DEVICE SIZE/OFF NODE NAME
			indices := headerRegex.FindStringSubmatchIndex(text)
			if indices == nil {
				return rows, fmt.Errorf("unrecognized lsof header %q", text)
			}
			cols = &columns{
				user:   indices[headerGroups[groupUser]*2],
				fd:     indices[headerGroups[groupFd]*2],
				mode:   indices[headerGroups[groupMode]*2],
				typ:    indices[headerGroups[groupType]*2],
				device: indices[headerGroups[groupDevice]*2],
				size:   indices[headerGroups[groupSizeOff]*2],
				node:   indices[headerGroups[groupNode]*2],
				name:   indices[headerGroups[groupName]*2],
			}
			continue
		}

		if cols == nil {
			return nil, fmt.Errorf("lsof output has no header, first line %q", text)
		}

		row, err := cols.row(text)
		if err != nil {
			gocore.Error("lsof row skipped", err, map[string]string{
				"line": text,
			}).Info()
			continue
		}
		rows = append(rows, row)
	}

	if err := sc.Err(); err != nil {
		return rows, gocore.Error("lsof output", err)
	}

	return rows, nil
}

// row slices a line of lsof output into its columns.
func (c *columns) row(text string) (Row, error) {
	if len(text) < c.name {
		return Row{}, fmt.Errorf("row length %d ends before NAME column %d", len(text), c.name)
	}

	fields := strings.Fields(text[:c.user]) // COMMAND may contain spaces, PID is last
	if len(fields) < 2 {
		return Row{}, fmt.Errorf("row lacks COMMAND and PID")
	}
	pid, err := strconv.Atoi(fields[len(fields)-1])
	if err != nil {
		return Row{}, fmt.Errorf("row PID %q not numeric", fields[len(fields)-1])
	}

	return Row{
		Command: unescape(strings.Join(fields[:len(fields)-1], " ")),
		Pid:     pid,
		User:    strings.TrimSpace(text[c.user:c.fd]),
		FD:      strings.TrimSpace(text[c.fd:c.mode]),
		Mode:    text[c.mode],
		Lock:    text[c.mode+1],
		Type:    strings.TrimSpace(text[c.typ:c.device]),
		Device:  strings.TrimSpace(text[c.device:c.size]),
		SizeOff: strings.TrimSpace(text[c.size:c.node]),
		Node:    strings.TrimSpace(text[c.node:c.name]),
		Name:    text[c.name:],
	}, nil
}

// unescape decodes the escapes that lsof prints for characters of a COMMAND: \xNN,
// the C escapes \b \f \n \r \t, and ^X for control characters. lsof truncates the
// column after escaping, so an escape cut short ends the command.
func unescape(s string) string {
	if !strings.ContainsAny(s, `\^`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '\\':
			if i+1 == len(s) {
				return b.String()
			}
			switch s[i+1] {
			case 'x':
				if i+4 > len(s) {
					return b.String()
				}
				v, err := strconv.ParseUint(s[i+2:i+4], 16, 8)
				if err != nil {
					b.WriteByte(c)
					continue
				}
				b.WriteByte(byte(v))
				i += 3
			case 'b', 'f', 'n', 'r', 't', '\\':
				b.WriteByte(cEscapes[s[i+1]])
				i++
			default:
				b.WriteByte(c)
			}
		case '^':
			if i+1 == len(s) {
				return b.String()
			}
			switch n := s[i+1]; {
			case n == '?':
				b.WriteByte(0x7f)
				i++
			case n >= '@' && n <= '_':
				b.WriteByte(n - '@')
				i++
			default:
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
