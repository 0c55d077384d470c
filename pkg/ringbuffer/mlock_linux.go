//go:build linux

package ringbuffer

import "syscall"

// lockMemory pins buf so the kernel cannot swap it out, mirroring
// jack_ringbuffer_mlock in the original player engine. Best effort: a
// failure (commonly EPERM/ENOMEM for an unprivileged process) is
// non-fatal, since the realtime consumer can tolerate an occasional
// page fault better than it can tolerate refusing to start.
func lockMemory(buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	return syscall.Mlock(buf)
}
