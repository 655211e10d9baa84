//go:build !linux

package ui

// disableInputEcho is a no-op off Linux. Raw mode would also swallow Ctrl+C.
func disableInputEcho(fd int) (func(), error) {
	return nil, nil
}
