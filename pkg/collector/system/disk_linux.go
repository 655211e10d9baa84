//go:build linux
// +build linux

package system

import (
	"os"
	"path/filepath"
	"strings"
)

// sysBlockStat allows tests to stub the /sys/block lookup.
var sysBlockStat = os.Stat

// wholeDisk reports whether name is a block device rather than a partition.
// Partitions share their parent's traffic, so summing them would double count.
func wholeDisk(name string) bool {
	_, err := sysBlockStat(filepath.Join("/sys/block", strings.ReplaceAll(name, "/", "!")))
	return err == nil
}
