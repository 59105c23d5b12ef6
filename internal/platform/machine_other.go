//go:build !unix && !windows

package platform

import "runtime"

func machine() string {
	return runtime.GOARCH
}
