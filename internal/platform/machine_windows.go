//go:build windows

package platform

import (
	"os"
	"runtime"
	"strings"

	"golang.org/x/sys/windows"
)

// IMAGE_FILE_MACHINE_* values returned by IsWow64Process2.
const (
	imageFileMachineI386  = 0x014c
	imageFileMachineAMD64 = 0x8664
	imageFileMachineARM64 = 0xaa64
)

func machine() string {
	var process, native uint16
	if err := windows.IsWow64Process2(windows.CurrentProcess(), &process, &native); err == nil {
		switch native {
		case imageFileMachineAMD64:
			return "AMD64"
		case imageFileMachineARM64:
			return "ARM64"
		case imageFileMachineI386:
			return "x86"
		}
	}
	// IsWow64Process2 is missing before Windows 10 1511.
	for _, key := range []string{"PROCESSOR_ARCHITEW6432", "PROCESSOR_ARCHITECTURE"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return strings.ToUpper(runtime.GOARCH)
}
