//go:build !linux

package system

import "testing"

func stubWholeDisks(t *testing.T, _ ...string) {
	t.Helper()
}

func TestWholeDiskAcceptsEverything(t *testing.T) {
	if !wholeDisk("disk0") || !wholeDisk("disk0s1") {
		t.Fatalf("non-linux builds should accept every device")
	}
}
