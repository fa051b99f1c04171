// Copyright © 2021-2023 The Gomon Project.

package lsof

import (
	"net"
	"regexp"
	"strconv"
	"strings"
)

var (
	// zoneregex determines if a link local address embeds a zone index.
	zoneregex = regexp.MustCompile(`^((fe|FE)80):([0-9a-fA-F]{1,2})(::.*)$`)

	// zones maps network interface indices, in hex, to their names.
	zones = func() map[string]string {
		zm := map[string]string{}
		if nis, err := net.Interfaces(); err == nil {
			for _, ni := range nis {
				zm[strconv.FormatUint(uint64(ni.Index), 16)] = ni.Name
			}
		}
		return zm
	}()
)

// Endpoints splits the NAME of an lsof internet socket row, such as
// "10.0.0.5:43210->93.184.216.34:443 (ESTABLISHED)", "*:22 (LISTEN)", or "*:68",
// into its local and remote addresses and TCP state.
func Endpoints(name string) (local, remote, state string) {
	addrs, rest, _ := strings.Cut(strings.TrimSpace(name), " ")
	if rest = strings.TrimSpace(rest); strings.HasPrefix(rest, "(") && strings.HasSuffix(rest, ")") {
		state = rest[1 : len(rest)-1]
	}

	local, remote, _ = strings.Cut(addrs, "->")
	return addZone(local), addZone(remote), state
}

// addZone replaces the zone index that BSD embeds in a link local IPv6 address with
// the zone's interface name.
func addZone(addr string) string {
	ip, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	match := zoneregex.FindStringSubmatch(ip)
	if match == nil {
		return addr
	}
	ip = match[1] + match[4] // strip the zone index from the ipv6 link local address
	if zone, ok := zones[strings.ToLower(match[3])]; ok {
		ip += "%" + zone
	}
	return net.JoinHostPort(ip, port)
}
