//go:build unix

package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

func machine() string {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return runtime.GOARCH
	}
	if m := unix.ByteSliceToString(u.Machine[:]); m != "" {
		return m
	}
	return runtime.GOARCH
}
