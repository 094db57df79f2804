package reclaim

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
)

// tcpListenState is the st column value for LISTEN in /proc/net/tcp.
const tcpListenState = "0A"

// listenerInodes returns the socket inodes of every LISTEN entry on the given
// local port, across both the IPv4 and IPv6 tables.
func listenerInodes(port int) (mapset.Set[uint64], error) {
	inodes := mapset.NewSet[uint64]()
	for _, table := range []string{"/proc/net/tcp", "/proc/net/tcp6"} {
		data, err := os.ReadFile(table)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s: %w", table, err)
		}
		lines := strings.Split(string(data), "\n")
		for _, line := range lines[1:] {
			fields := strings.Fields(line)
			if len(fields) < 10 {
				continue
			}
			if fields[3] != tcpListenState {
				continue
			}
			// local_address is hexip:hexport
			colon := strings.LastIndex(fields[1], ":")
			if colon < 0 {
				continue
			}
			p, err := strconv.ParseInt(fields[1][colon+1:], 16, 32)
			if err != nil || int(p) != port {
				continue
			}
			inode, err := strconv.ParseUint(fields[9], 10, 64)
			if err != nil {
				continue
			}
			inodes.Add(inode)
		}
	}
	return inodes, nil
}

// Owners enumerates the process ids currently holding a LISTEN socket on the
// given TCP port. A process listening on both IPv4 and IPv6 is reported once.
func Owners(port int) ([]int, error) {
	inodes, err := listenerInodes(port)
	if err != nil {
		return nil, err
	}
	if inodes.Cardinality() == 0 {
		return nil, nil
	}

	pids := mapset.NewSet[int]()

	procEntries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("failed to read /proc: %w", err)
	}
	for _, entry := range procEntries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		fdDir := filepath.Join("/proc", entry.Name(), "fd")
		fds, err := os.ReadDir(fdDir)
		if err != nil {
			// Not our process or it exited mid-scan.
			continue
		}
		for _, fd := range fds {
			link, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
			if err != nil {
				continue
			}
			if !strings.HasPrefix(link, "socket:[") {
				continue
			}
			inode, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(link, "socket:["), "]"), 10, 64)
			if err != nil {
				continue
			}
			if inodes.Contains(inode) {
				pids.Add(pid)
			}
		}
	}

	return pids.ToSlice(), nil
}
