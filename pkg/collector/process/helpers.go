package process

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// procReadFile allows tests to stub reading /proc/PID/comm.
var procReadFile = os.ReadFile

// commForPID is the name fallback for processes whose executable name is unreadable.
func commForPID(pid int32) string {
	path := filepath.Join("/proc", strconv.FormatInt(int64(pid), 10), "comm")
	data, err := procReadFile(path)
	if err != nil {
		return fmt.Sprintf("pid-%d", pid)
	}
	comm := strings.TrimSpace(string(data))
	if comm == "" {
		return fmt.Sprintf("pid-%d", pid)
	}
	return comm
}
